package region

import (
	"fmt"

	"github.com/dot5enko/voxelregion/diskio"
	"github.com/dot5enko/voxelregion/format"
)

// removeSectorsFromBlock frees the trailing n sectors owned by the block at
// pos, sliding everything after them leftward by n sectors in both the file
// and the sector map, and decrementing the sector_index of every block that
// sat after the freed range (spec §4.5). Passing n equal to the block's full
// sector count frees it entirely, leaving its block-info entry absent - the
// path Case C's re-append takes after discarding a grown block's old home.
func (rf *RegionFile) removeSectorsFromBlock(pos format.BlockPos, n uint32) error {
	idx := format.LinearIndex(pos, rf.header.Format.RegionSize)
	if idx < 0 || idx >= len(rf.header.Blocks) {
		return fmt.Errorf("position %v out of range: %w", pos, ErrInvalidParameter)
	}

	info := rf.header.Blocks[idx]
	if !info.IsPresent() {
		return fmt.Errorf("block %v is not present: %w", pos, ErrInvalidParameter)
	}

	oldIndex := info.SectorIndex()
	oldCount := info.SectorCount()
	if n > oldCount {
		return fmt.Errorf("removing %d sectors from block %v which only owns %d: %w", n, pos, oldCount, ErrInvalidParameter)
	}
	if n == 0 {
		return nil
	}

	removedStart := oldIndex + (oldCount - n)
	removedEnd := removedStart + n

	if n == oldCount {
		rf.setBlockInfo(idx, format.BlockInfo(0))
	} else {
		kept, err := format.WithSectors(oldIndex, oldCount-n)
		if err != nil {
			return err
		}
		rf.setBlockInfo(idx, kept)
	}

	for i, b := range rf.header.Blocks {
		if i == idx || !b.IsPresent() {
			continue
		}
		if b.SectorIndex() < removedEnd {
			continue
		}
		shifted, err := format.WithSectors(b.SectorIndex()-n, b.SectorCount())
		if err != nil {
			return err
		}
		rf.header.Blocks[i] = shifted
	}

	totalSectors := uint32(len(rf.sectorMap))
	if removedEnd < totalSectors {
		sectorSize := int64(rf.header.Format.SectorSize)
		src := int64(rf.blocksBeginOffset) + int64(removedEnd)*sectorSize
		dst := int64(rf.blocksBeginOffset) + int64(removedStart)*sectorSize
		tailLen := int64(totalSectors-removedEnd) * sectorSize
		if err := diskio.CopyOverlapping(rf.file, src, dst, tailLen, 64*1024); err != nil {
			return fmt.Errorf("slide sectors after removing from block %v: %w: %w", pos, err, ErrFileCantWrite)
		}
	}

	rf.sectorMap = append(rf.sectorMap[:removedStart], rf.sectorMap[removedEnd:]...)
	rf.headerModified = true
	return nil
}
