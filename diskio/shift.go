package diskio

// CopyOverlapping copies totalLen bytes from src to dst within f, one
// chunk of at most bufSize bytes at a time. It chooses a direction safe
// for overlapping ranges: forward when shifting left (dst < src, as
// compaction does), backward when shifting right (dst > src, as a
// header-growing insert does).
func CopyOverlapping(f *File, src, dst int64, totalLen int64, bufSize int) error {
	if totalLen <= 0 {
		return nil
	}

	buf := make([]byte, bufSize)

	if dst < src {
		for off := int64(0); off < totalLen; off += int64(bufSize) {
			n := int64(bufSize)
			if remaining := totalLen - off; n > remaining {
				n = remaining
			}
			chunk := buf[:n]
			if err := f.ReadAt(chunk, src+off); err != nil {
				return err
			}
			if err := f.WriteAt(chunk, dst+off); err != nil {
				return err
			}
		}
		return nil
	}

	for off := totalLen; off > 0; {
		n := int64(bufSize)
		if n > off {
			n = off
		}
		off -= n
		chunk := buf[:n]
		if err := f.ReadAt(chunk, src+off); err != nil {
			return err
		}
		if err := f.WriteAt(chunk, dst+off); err != nil {
			return err
		}
	}
	return nil
}
