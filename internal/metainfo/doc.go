// Package metainfo parses torrent metadata files and magnet reference files.
//
// The watch engine uses IsValidFile as its readiness predicate: a .torrent
// file that is still being downloaded into a watched directory fails the
// structural checks until the final bytes land. Load additionally extracts
// the display name and info hash for cataloging.
//
// Magnet reference files need no validity gate to be reported; ParseMagnet
// exists so the daemon can catalog their name and hash when possible.
package metainfo
