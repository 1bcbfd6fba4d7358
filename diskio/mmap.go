package diskio

import "golang.org/x/exp/mmap"

// MappedFile is a read-only, memory-mapped view of a file, used for
// out-of-band inspection of a region file without taking the write path
// (and so without racing a process that owns it under the normal
// single-owner model in spec §5).
type MappedFile struct {
	r *mmap.ReaderAt
}

func OpenMapped(path string) (*MappedFile, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &MappedFile{r: r}, nil
}

func (m *MappedFile) ReadAt(out []byte, off int64) error {
	_, err := m.r.ReadAt(out, off)
	return err
}

func (m *MappedFile) Len() int64 {
	return int64(m.r.Len())
}

func (m *MappedFile) Close() error {
	return m.r.Close()
}
