//go:build linux

package mount

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Filesystem magic numbers reported by statfs for the network filesystem
// families whose change notifications are unreliable.
const (
	cifsMagicNumber = 0xFF534D42
	nfsSuperMagic   = 0x6969
	smbSuperMagic   = 0x517B
	smb2SuperMagic  = 0xFE534D42
)

// Classify reports whether the filesystem containing dir is network-mounted.
// The returned error is advisory: when it is non-nil the classification has
// defaulted to Local and the error describes why the mount query failed.
func Classify(dir string) (Kind, error) {
	// Query the directory itself, not a prefix of it, so mount points
	// nested below dir's parent are classified correctly.
	target := filepath.Join(dir, ".")

	var buf unix.Statfs_t
	if err := unix.Statfs(target, &buf); err != nil {
		return Local, fmt.Errorf("statfs %s: %s", target, statfsReason(err))
	}

	switch uint32(buf.Type) {
	case cifsMagicNumber, nfsSuperMagic, smbSuperMagic, smb2SuperMagic:
		return Network, nil
	}
	return Local, nil
}

func statfsReason(err error) string {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err.Error()
	}
	switch errno {
	case unix.EACCES:
		return "search permission denied for a component of the path"
	case unix.EFAULT:
		return "buffer or path points to an invalid address"
	case unix.EINTR:
		return "call interrupted by a signal"
	case unix.EIO:
		return "I/O error"
	case unix.ELOOP:
		return "too many symbolic links while resolving the path"
	case unix.ENAMETOOLONG:
		return "path is too long"
	case unix.ENOENT:
		return "path does not exist"
	case unix.ENOMEM:
		return "insufficient kernel memory"
	case unix.ENOSYS:
		return "filesystem does not support this call"
	case unix.ENOTDIR:
		return "a component of the path is not a directory"
	case unix.EOVERFLOW:
		return "values too large to be represented in the statfs struct"
	default:
		return fmt.Sprintf("unknown error (errno %d)", int(errno))
	}
}
