package platform

import (
	"io/fs"
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode fs.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode.Perm())
}

// FileMode returns the permission bits to apply to an extracted file, and
// false when the archive recorded none. The owner can always read and write,
// and nothing wider than the process umask allows is ever returned.
func FileMode(archived fs.FileMode) (fs.FileMode, bool) {
	perm := archived.Perm()
	if perm == 0 {
		return 0, false
	}
	return (perm | 0600) &^ Umask(), true
}
