//go:build unix

package platform

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// ProbeExclusive reports whether path can be opened for exclusive write
// access. A nil error means no other process holds it; an error wrapping
// fs.ErrNotExist means there is nothing to wait for. The file is closed
// again without modification.
//
// When the caller may not write the file at all, only the advisory lock is
// checked: waiting would not make the file writable, and the permission
// error belongs to the extraction that follows.
func ProbeExclusive(path string) error {
	// Opening a running executable for writing fails with ETXTBSY.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if errors.Is(err, fs.ErrPermission) {
		f, err = os.Open(path)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return &os.PathError{Op: "flock", Path: path, Err: err}
	}
	return unix.Flock(fd, unix.LOCK_UN)
}
