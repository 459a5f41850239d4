//go:build windows

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// ProbeExclusive reports whether path can be opened with no sharing allowed.
// A nil error means no other process holds it; an error wrapping
// fs.ErrNotExist means there is nothing to wait for. The handle is closed
// again without modification.
//
// A file the caller may not write is probed for reading only. Share mode 0
// still fails while any other handle is open.
func ProbeExclusive(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}

	h, err := openExclusive(p, windows.GENERIC_READ|windows.GENERIC_WRITE)
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		h, err = openExclusive(p, windows.GENERIC_READ)
	}
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	return windows.CloseHandle(h)
}

func openExclusive(p *uint16, access uint32) (windows.Handle, error) {
	return windows.CreateFile(p,
		access,
		0, // no sharing: fails while any other handle is open
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0)
}
