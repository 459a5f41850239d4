package archive

import (
	"errors"
	"io"
	"io/fs"
)

// Entry is one archive member. Name is the archive-internal path with
// forward slashes, exactly as stored; it has not been validated. Mode has
// no permission bits when the archive did not record Unix permissions.
type Entry struct {
	Name  string
	IsDir bool
	Mode  fs.FileMode
	Size  uint64

	open func() (io.ReadCloser, error)
}

// FileEntry builds a file entry whose content comes from open. It lets
// callers feed content that does not originate from a ZIP file.
func FileEntry(name string, mode fs.FileMode, open func() (io.ReadCloser, error)) Entry {
	return Entry{Name: name, Mode: mode, open: open}
}

// DirEntry builds a directory marker entry.
func DirEntry(name string) Entry {
	return Entry{Name: name, IsDir: true, Mode: fs.ModeDir | 0755}
}

// Open returns the decoded content of a file entry. Decode failures, whether
// they surface while opening or while reading, are reported as *CorruptError.
// The caller must close the returned reader.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.IsDir || e.open == nil {
		return nil, &CorruptError{Entry: e.Name, Err: errors.New("entry has no content")}
	}
	rc, err := e.open()
	if err != nil {
		return nil, &CorruptError{Entry: e.Name, Err: err}
	}
	return &entryReader{rc: rc, name: e.Name}, nil
}

type entryReader struct {
	rc   io.ReadCloser
	name string
}

func (r *entryReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		err = &CorruptError{Entry: r.name, Err: err}
	}
	return n, err
}

func (r *entryReader) Close() error {
	return r.rc.Close()
}
