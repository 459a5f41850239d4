//go:build unix

package platform

import (
	"io/fs"
	"sync"

	"golang.org/x/sys/unix"
)

var umask = sync.OnceValue(func() fs.FileMode {
	// The mask can only be read by setting it; restore it right away.
	old := unix.Umask(0)
	unix.Umask(old)
	return fs.FileMode(old) & fs.ModePerm
})

// Umask returns the process file mode creation mask.
func Umask() fs.FileMode { return umask() }
