// Package catalog persists every metadata file the watch engine reports.
//
// The catalog is an append-mostly SQLite table: one row per detected file,
// carrying the parsed torrent or magnet details and a lifecycle status. Rows
// begin as detected, move to handed_off when the file is relocated into the
// handoff directory, and to failed when parsing or handoff breaks. The
// database lives in the configured data directory and uses WAL with a short
// busy-retry loop so the daemon and CLI can read it concurrently.
package catalog
