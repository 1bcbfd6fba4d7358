//go:build !linux

package diskio

// Preallocate falls back to zero-filling on platforms without fallocate,
// matching the teacher's original preallocation approach
// (manager/meta/preallocate_slab.go).
func Preallocate(f *File, offset, size int64) error {
	return f.FillZeroes(offset, int(size))
}
