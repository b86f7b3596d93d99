package mount

// Kind identifies the broad category of a mounted filesystem.
type Kind int

const (
	// Local filesystems deliver reliable change notifications.
	Local Kind = iota
	// Network filesystems (CIFS/SMB/NFS family) need polling.
	Network
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	default:
		return "local"
	}
}
