package voxel

import "github.com/dot5enko/voxelregion/format"

// Block is the out-of-scope voxel value the region file persists: a cubic
// array of channels, each with its own bit depth. Only its size, per
// channel depths, and ability to round-trip through a serializer matter
// to the region file engine; the channel semantics (what each channel
// means) belong to a higher layer.
type Block struct {
	Edge   int
	Depths [format.ChannelCount]format.ChannelDepth

	// Channels[c] holds Edge^3 raw samples for channel c, widened to
	// uint64 regardless of the channel's declared depth. Only the low
	// Depths[c].Bits() bits of each sample are meaningful.
	Channels [format.ChannelCount][]uint64
}

// New allocates a Block of the given edge length with the given
// per-channel depths, all samples zeroed.
func New(edge int, depths [format.ChannelCount]format.ChannelDepth) *Block {
	b := &Block{Edge: edge, Depths: depths}
	volume := edge * edge * edge
	for c := range b.Channels {
		b.Channels[c] = make([]uint64, volume)
	}
	return b
}

// Equal reports whether two blocks have identical geometry, depths, and
// sample data - used by round-trip tests (P1).
func (b *Block) Equal(other *Block) bool {
	if other == nil {
		return false
	}
	if b.Edge != other.Edge || b.Depths != other.Depths {
		return false
	}
	for c := range b.Channels {
		if len(b.Channels[c]) != len(other.Channels[c]) {
			return false
		}
		for i, v := range b.Channels[c] {
			if other.Channels[c][i] != v {
				return false
			}
		}
	}
	return true
}
