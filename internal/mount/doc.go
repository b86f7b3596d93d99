// Package mount classifies the filesystem backing a directory as local or
// network-mounted.
//
// The watch engine uses the classification once per directory, at registration
// time, to decide between inotify-driven watching and interval polling:
// change notifications are unreliable on CIFS/SMB/NFS mounts, so those
// directories are polled instead.
//
// Classification is best-effort. When the mount metadata query fails the
// classifier reports Local together with an advisory error describing the
// failure; callers log it and continue. Platforms without mount-type
// introspection always report Local.
package mount
