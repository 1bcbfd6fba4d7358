package region

import (
	"fmt"

	"github.com/dot5enko/voxelregion/diskio"
	"github.com/dot5enko/voxelregion/format"
	"github.com/dot5enko/voxelregion/voxel"
)

// SaveBlock serializes and stores block at pos, choosing one of three
// allocation cases (spec §4.4):
//
//	A. the block is new - append at the end of the sector area.
//	B. it exists and needs no more sectors than before - overwrite in
//	   place, compacting if it now needs fewer.
//	C. it exists and needs more sectors - free its old sectors and
//	   append at the new end, rather than shifting every block after it.
func (rf *RegionFile) SaveBlock(pos format.BlockPos, block *voxel.Block) error {
	if !rf.IsOpen() {
		return fmt.Errorf("region file not open: %w", ErrFileCantWrite)
	}
	if err := rf.VerifyFormat(block); err != nil {
		return err
	}

	if rf.header.Version != format.FormatVersion {
		if err := rf.migrateToLatestLocked(); err != nil {
			return fmt.Errorf("migrate before save: %w: %w", err, ErrUnavailable)
		}
	}

	idx := format.LinearIndex(pos, rf.header.Format.RegionSize)
	if idx < 0 || idx >= len(rf.header.Blocks) {
		return fmt.Errorf("position %v out of range: %w", pos, ErrInvalidParameter)
	}

	payload, err := rf.serializer.SerializeAndCompress(block)
	if err != nil {
		return fmt.Errorf("serialize block %v: %w: %w", pos, err, ErrParseError)
	}

	written := uint32(4 + len(payload))
	newCount := format.SectorCountFromBytes(written, uint32(rf.header.Format.SectorSize))

	info := rf.header.Blocks[idx]

	if !info.IsPresent() {
		return rf.appendNewBlock(idx, pos, payload)
	}

	oldIndex := info.SectorIndex()
	oldCount := info.SectorCount()

	if newCount <= oldCount {
		if newCount < oldCount {
			if err := rf.removeSectorsFromBlock(pos, oldCount-newCount); err != nil {
				return err
			}
			rf.headerModified = true
		}

		offset := rf.sectorOffset(oldIndex)
		if err := rf.writePayload(offset, payload); err != nil {
			return fmt.Errorf("write block %v in place: %w: %w", pos, err, ErrFileCantWrite)
		}
		return nil
	}

	// Case C: needs more sectors than it has. Free what it owns and
	// append fresh rather than shifting every follower forward.
	if err := rf.removeSectorsFromBlock(pos, oldCount); err != nil {
		return err
	}
	return rf.appendNewBlock(idx, pos, payload)
}

func (rf *RegionFile) appendNewBlock(idx int, pos format.BlockPos, payload []byte) error {
	sectorSize := rf.header.Format.SectorSize
	blockOffset := int64(rf.blocksBeginOffset) + int64(len(rf.sectorMap))*int64(sectorSize)

	written := uint32(4 + len(payload))
	newCount := format.SectorCountFromBytes(written, uint32(sectorSize))

	if err := diskio.Preallocate(rf.file, blockOffset, int64(newCount)*int64(sectorSize)); err != nil {
		return fmt.Errorf("preallocate block %v: %w: %w", pos, err, ErrFileCantWrite)
	}

	if err := rf.writePayload(blockOffset, payload); err != nil {
		return fmt.Errorf("append block %v: %w: %w", pos, err, ErrFileCantWrite)
	}
	if err := rf.padToSectorSize(blockOffset + 4 + int64(len(payload))); err != nil {
		return fmt.Errorf("pad block %v: %w: %w", pos, err, ErrFileCantWrite)
	}

	newInfo, err := format.WithSectors(uint32(len(rf.sectorMap)), newCount)
	if err != nil {
		return err
	}
	rf.setBlockInfo(idx, newInfo)

	for i := uint32(0); i < newCount; i++ {
		rf.sectorMap = append(rf.sectorMap, pos)
	}

	rf.headerModified = true
	return nil
}

// writePayload writes the 4-byte little-endian length prefix followed by
// the payload itself, at offset.
func (rf *RegionFile) writePayload(offset int64, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	putLE32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return rf.file.WriteAt(buf, offset)
}

// padToSectorSize zero-fills from pos up to the next sector boundary
// measured from blocksBeginOffset. A position exactly on a boundary
// already (relative offset 0) needs no padding (spec §4.7).
func (rf *RegionFile) padToSectorSize(pos int64) error {
	sectorSize := int64(rf.header.Format.SectorSize)
	rel := pos - int64(rf.blocksBeginOffset)
	if rel < 0 {
		return fmt.Errorf("position %d precedes sector area start: %w", pos, ErrInvalidParameter)
	}
	if rel%sectorSize == 0 {
		return nil
	}
	pad := sectorSize - rel%sectorSize
	return rf.file.FillZeroes(pos, int(pad))
}

func (rf *RegionFile) sectorOffset(sectorIndex uint32) int64 {
	return int64(rf.blocksBeginOffset) + int64(sectorIndex)*int64(rf.header.Format.SectorSize)
}

func (rf *RegionFile) setBlockInfo(idx int, info format.BlockInfo) {
	rf.header.Blocks[idx] = info
	if info.IsPresent() {
		rf.presence.Set(idx)
	} else {
		rf.presence.Clear(idx)
	}
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
