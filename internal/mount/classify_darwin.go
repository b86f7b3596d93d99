//go:build darwin

package mount

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Classify reports whether the filesystem containing dir is network-mounted.
// The returned error is advisory: when it is non-nil the classification has
// defaulted to Local and the error describes why the mount query failed.
func Classify(dir string) (Kind, error) {
	target := filepath.Join(dir, ".")

	var buf unix.Statfs_t
	if err := unix.Statfs(target, &buf); err != nil {
		return Local, fmt.Errorf("statfs %s: %v", target, err)
	}

	switch fstypeName(buf.Fstypename[:]) {
	case "nfs", "cifs", "smbfs":
		return Network, nil
	}
	return Local, nil
}

func fstypeName(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}
