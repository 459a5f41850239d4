package archive

import (
	"errors"
	"io"
	"io/fs"
	"iter"

	"github.com/klauspost/compress/zip"
)

// flagEncrypted is bit 0 of the general purpose flags.
const flagEncrypted = 0x1

// Host systems in the upper byte of CreatorVersion whose external attributes
// carry Unix permission bits.
const (
	creatorUnix  = 3
	creatorMacOS = 19
)

// Reader is an opened ZIP archive.
type Reader struct {
	path string
	zr   *zip.ReadCloser
}

// Open opens the archive at path. A missing file or one that is not a valid
// ZIP archive yields an *OpenError.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		// OpenReader may hand back a usable reader alongside ErrInsecurePath.
		if zr != nil {
			zr.Close()
		}
		return nil, &OpenError{Path: path, Err: err}
	}
	return &Reader{path: path, zr: zr}, nil
}

// Path returns the file the archive was opened from.
func (r *Reader) Path() string { return r.path }

// Comment returns the archive comment. Release builds store the version
// number there.
func (r *Reader) Comment() string { return r.zr.Comment }

// Len returns the number of members, directory markers included.
func (r *Reader) Len() int { return len(r.zr.File) }

// Close releases the underlying file.
func (r *Reader) Close() error { return r.zr.Close() }

// Entries yields the members in central directory order. Directory markers
// are included. Encrypted members are reported as *CorruptError since they
// cannot be decoded.
func (r *Reader) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, f := range r.zr.File {
			if f.Flags&flagEncrypted != 0 {
				err := &CorruptError{Entry: f.Name, Err: errors.New("encrypted entries are not supported")}
				if !yield(Entry{Name: f.Name}, err) {
					return
				}
				continue
			}
			if !yield(newEntry(f), nil) {
				return
			}
		}
	}
}

func newEntry(f *zip.File) Entry {
	info := f.FileInfo()
	e := Entry{
		Name:  f.Name,
		IsDir: info.IsDir(),
		Mode:  f.Mode(),
		Size:  f.UncompressedSize64,
	}
	// FAT and NTFS creators only record a read-only flag, which the decoder
	// reports as 0666 or 0444. Those are not permissions to apply.
	if !hasUnixMode(f.CreatorVersion) {
		e.Mode &^= fs.ModePerm
	}
	if !e.IsDir {
		e.open = func() (io.ReadCloser, error) { return f.Open() }
	}
	return e
}

func hasUnixMode(creatorVersion uint16) bool {
	switch creatorVersion >> 8 {
	case creatorUnix, creatorMacOS:
		return true
	}
	return false
}
