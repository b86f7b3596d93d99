// Package daemonrun hosts the daemon process bootstrap shared by the weird
// binary and the weir daemon run command: logger, pid file, catalog store,
// daemon, and IPC server, torn down in order on SIGINT or SIGTERM.
package daemonrun
