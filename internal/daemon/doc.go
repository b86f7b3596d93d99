// Package daemon coordinates the watch engine, the catalog, and
// notifications, and enforces single-instance execution through a file lock.
//
// The daemon owns the watchfolder.Watcher and consumes its ready batches:
// each reported file is parsed, recorded in the catalog, optionally moved
// into the handoff directory, and announced over ntfy. Watch directories can
// be added and removed at runtime; the set configured in config.toml is
// registered on start.
package daemon
