// Package watchfolder implements the dual-mode watch engine at the heart of
// weir.
//
// Each directory added to the Watcher is classified once: directories on
// local filesystems are registered with the OS notification primitive
// (fsnotify) and scanned immediately, while directories on network mounts
// join a polled set because change notifications are unreliable there. A
// single poll ticker exists while at least one network directory is watched.
//
// Files that match the patterns but are not yet structurally valid are
// quarantined in a ledger and rechecked on a one-shot retry timer that
// re-arms itself while entries remain. A file that exhausts its retry budget
// is renamed aside with an .invalid suffix and never reported.
//
// All mutable state lives on one event-loop goroutine; public operations post
// closures to it and wait for the reply. Handlers therefore run to completion
// before the next tick or notification is processed, and no path is reported
// ready more than once while the file exists.
package watchfolder
