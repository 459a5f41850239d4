//go:build windows

package platform

import "io/fs"

// Umask returns 0; Windows has no creation mask.
func Umask() fs.FileMode { return 0 }
