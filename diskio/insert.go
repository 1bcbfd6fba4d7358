package diskio

// copyChunkSize bounds how much memory InsertBytes uses per chunk while
// shifting file contents.
const copyChunkSize = 64 * 1024

// InsertBytes grows f by n bytes at offset: everything currently at or
// after offset is shifted forward by n, and the newly opened gap is
// zero-filled. This is the file-byte-insert primitive the original engine
// treats as an external collaborator during v2-to-v3 migration, here
// implemented directly on top of CopyOverlapping.
func InsertBytes(f *File, offset int64, n int) error {
	if n <= 0 {
		return nil
	}

	size, err := f.Size()
	if err != nil {
		return err
	}

	tailLen := size - offset
	if tailLen > 0 {
		if err := CopyOverlapping(f, offset, offset+int64(n), tailLen, copyChunkSize); err != nil {
			return err
		}
	}

	return f.FillZeroes(offset, n)
}
