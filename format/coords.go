package format

// BlockPos is a block's integer grid coordinate within a region.
type BlockPos struct {
	X, Y, Z int
}

// Volume returns the number of grid cells in a region of this size, when
// used as a region_size value (x * y * z).
func (p BlockPos) Volume() int {
	return p.X * p.Y * p.Z
}

// MaxBlocksAcross bounds each region_size axis: it is stored on disk as a
// single byte, so axes must fit in [0, MaxBlocksAcross).
const MaxBlocksAcross = 256

// LinearIndex computes the block-info table slot for a block position,
// using the zxy-major ordering fixed by the format: y varies fastest,
// then x, then z.
func LinearIndex(pos BlockPos, regionSize BlockPos) int {
	return pos.Y + regionSize.Y*(pos.X+regionSize.X*pos.Z)
}

// PositionFromIndex is the inverse permutation of LinearIndex.
func PositionFromIndex(i int, regionSize BlockPos) BlockPos {
	y := i % regionSize.Y
	rest := i / regionSize.Y
	x := rest % regionSize.X
	z := rest / regionSize.X
	return BlockPos{X: x, Y: y, Z: z}
}

// SectorCountFromBytes returns ceil(sizeInBytes / sectorSize) for
// sizeInBytes >= 1.
func SectorCountFromBytes(sizeInBytes, sectorSize uint32) uint32 {
	return (sizeInBytes-1)/sectorSize + 1
}
