package region

import (
	"sort"

	"github.com/dot5enko/voxelregion/bits"
	"github.com/dot5enko/voxelregion/format"
)

// rebuildSectorMap is the only place the sector map is constructed from
// scratch (spec §4.1): it enumerates present blocks, sorts them by sector
// index ascending, and lays each one's grid position down sector_count
// times. Invariants I1-I3 hold afterward by construction, provided the
// file already satisfied them.
func (rf *RegionFile) rebuildSectorMap() {
	type presentBlock struct {
		info  format.BlockInfo
		index int
	}

	present := make([]presentBlock, 0)
	for i, b := range rf.header.Blocks {
		if b.IsPresent() {
			present = append(present, presentBlock{info: b, index: i})
		}
	}

	sort.Slice(present, func(i, j int) bool {
		return present[i].info.SectorIndex() < present[j].info.SectorIndex()
	})

	totalSectors := 0
	for _, p := range present {
		totalSectors += int(p.info.SectorCount())
	}

	sectorMap := make([]format.BlockPos, 0, totalSectors)
	for _, p := range present {
		pos := format.PositionFromIndex(p.index, rf.header.Format.RegionSize)
		for i := uint32(0); i < p.info.SectorCount(); i++ {
			sectorMap = append(sectorMap, pos)
		}
	}

	rf.sectorMap = sectorMap

	presence := bits.NewBitSet(len(rf.header.Blocks))
	for _, p := range present {
		presence.Set(p.index)
	}
	rf.presence = presence
}

// ListPresentBlocks returns the grid positions of every present block, in
// ascending linear-index order.
func (rf *RegionFile) ListPresentBlocks() []format.BlockPos {
	indices := rf.presence.ToIndices(nil)
	out := make([]format.BlockPos, len(indices))
	for i, idx := range indices {
		out[i] = format.PositionFromIndex(idx, rf.header.Format.RegionSize)
	}
	return out
}
