package diskio

import (
	"fmt"
	"os"
)

// File wraps an *os.File with the read/write-at/zero-fill surface the
// region file engine needs, adapted from the teacher's FileReader. Unlike
// the teacher's version this one is read-write only (no separate
// read-only open mode), matching the original engine's single
// READ_WRITE file access mode (spec §5: no read-only mode).
type File struct {
	path   string
	file   *os.File
	opened bool
}

// Open opens path for reading and writing, creating it (and leaving it
// empty) if it does not exist and createIfNotFound is true.
func Open(path string, createIfNotFound bool) (*File, error) {
	flags := os.O_RDWR
	if createIfNotFound {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	return &File{path: path, file: f, opened: true}, nil
}

func (f *File) Close() error {
	if !f.opened {
		return nil
	}
	f.opened = false
	return f.file.Close()
}

func (f *File) Handle() *os.File {
	return f.file
}

func (f *File) ReadAt(out []byte, off int64) error {
	if !f.opened {
		return fmt.Errorf("file not opened")
	}
	n, err := f.file.ReadAt(out, off)
	if n != len(out) {
		if err != nil {
			return err
		}
		return fmt.Errorf("read bytes mismatch: got %d, want %d", n, len(out))
	}
	return nil
}

func (f *File) WriteAt(in []byte, off int64) error {
	if !f.opened {
		return fmt.Errorf("file not opened")
	}
	n, err := f.file.WriteAt(in, off)
	if n != len(in) {
		if err != nil {
			return err
		}
		return fmt.Errorf("written bytes mismatch: got %d, want %d", n, len(in))
	}
	return nil
}

// FillZeroes writes size zero bytes at offset.
func (f *File) FillZeroes(offset int64, size int) error {
	if !f.opened {
		return fmt.Errorf("file not opened")
	}
	zeroes := make([]byte, size)
	return f.WriteAt(zeroes, offset)
}

func (f *File) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
