// Package daemonctl orchestrates the daemon process from the CLI: launching
// the detached weird process, waiting for its IPC socket, requesting stop,
// and force-killing when a graceful stop stalls.
package daemonctl
