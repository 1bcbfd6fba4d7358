package format

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dot5enko/voxelregion/bits"
)

const (
	Magic = "VXR_"

	// FormatVersion is the current on-disk version (§6.1).
	FormatVersion uint8 = 3

	// FormatVersionLegacyV2 carries only magic, version, and the
	// block-info table; geometry must be supplied by the caller.
	FormatVersionLegacyV2 uint8 = 2

	// FormatVersionLegacyV1 is recognized as an existing version but is
	// not migrated (spec design note (a)).
	FormatVersionLegacyV1 uint8 = 1

	MagicAndVersionSize = 4 + 1

	// fixedHeaderDataSize is block_size_po2(1) + region_size.xyz(3) +
	// sector_size(2) + palette marker(1), not counting per-channel
	// depths or the palette itself.
	fixedHeaderDataSize = 1 + 3 + 2 + 1

	paletteSizeBytes = PaletteSize * 4
)

// Header is the file's fixed-prefix metadata: version, format, and the
// per-cell block-info table.
type Header struct {
	Version uint8
	Format  Format
	Blocks  []BlockInfo
}

// SizeV3 returns the encoded size of a V3 header for the given format -
// the byte offset at which the sector area begins.
func SizeV3(f Format) uint32 {
	size := uint32(MagicAndVersionSize) + fixedHeaderDataSize + ChannelCount
	if f.HasPalette {
		size += paletteSizeBytes
	}
	size += uint32(f.RegionSize.Volume()) * 4
	return size
}

// EncodeV3 writes the full V3 header (magic through the block-info table)
// to w.
func EncodeV3(w io.Writer, h Header) error {
	buf := make([]byte, SizeV3(h.Format))
	bw := bits.NewEncodeBuffer(buf, binary.LittleEndian)

	if _, err := bw.Write([]byte(Magic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	bw.WriteByte(h.Version)
	bw.WriteByte(h.Format.BlockSizePo2)
	bw.WriteByte(byte(h.Format.RegionSize.X))
	bw.WriteByte(byte(h.Format.RegionSize.Y))
	bw.WriteByte(byte(h.Format.RegionSize.Z))

	for _, d := range h.Format.ChannelDepths {
		bw.WriteByte(uint8(d))
	}

	bw.PutUint16(h.Format.SectorSize)

	if h.Format.HasPalette {
		bw.WriteByte(0xff)
		for _, c := range h.Format.Palette {
			bw.WriteByte(c.R)
			bw.WriteByte(c.G)
			bw.WriteByte(c.B)
			bw.WriteByte(c.A)
		}
	} else {
		bw.WriteByte(0x00)
	}

	for _, b := range h.Blocks {
		bw.PutUint32(uint32(b))
	}

	if _, err := w.Write(bw.Bytes()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	return nil
}

// DecodeV3 reads the V3 format descriptor (block_size_po2 through the
// palette) from r. The caller must have already consumed magic+version,
// matching load_header's contract of resuming right after the version
// byte; the block-info table that follows is read with DecodeBlockTable.
func DecodeV3(r io.Reader) (Format, error) {
	reader := bits.NewReader(r, binary.LittleEndian)

	var f Format
	blockSizePo2, err := reader.ReadU8()
	if err != nil {
		return f, fmt.Errorf("read block_size_po2: %w: %w", err, ErrParseError)
	}
	f.BlockSizePo2 = blockSizePo2

	xb, err := reader.ReadU8()
	if err != nil {
		return f, fmt.Errorf("read region_size.x: %w: %w", err, ErrParseError)
	}
	yb, err := reader.ReadU8()
	if err != nil {
		return f, fmt.Errorf("read region_size.y: %w: %w", err, ErrParseError)
	}
	zb, err := reader.ReadU8()
	if err != nil {
		return f, fmt.Errorf("read region_size.z: %w: %w", err, ErrParseError)
	}
	f.RegionSize = BlockPos{X: int(xb), Y: int(yb), Z: int(zb)}

	for i := range f.ChannelDepths {
		d, err := reader.ReadU8()
		if err != nil {
			return f, fmt.Errorf("read channel depth %d: %w: %w", i, err, ErrParseError)
		}
		depth := ChannelDepth(d)
		if !depth.Valid() {
			return f, fmt.Errorf("channel %d has unknown depth %d: %w", i, d, ErrParseError)
		}
		f.ChannelDepths[i] = depth
	}

	sectorSize, err := reader.ReadU16()
	if err != nil {
		return f, fmt.Errorf("read sector_size: %w: %w", err, ErrParseError)
	}
	f.SectorSize = sectorSize

	marker, err := reader.ReadU8()
	if err != nil {
		return f, fmt.Errorf("read palette marker: %w: %w", err, ErrParseError)
	}
	switch marker {
	case 0xff:
		f.HasPalette = true
		for i := range f.Palette {
			var c PaletteColor
			var comps [4]uint8
			for k := range comps {
				v, err := reader.ReadU8()
				if err != nil {
					return f, fmt.Errorf("read palette entry %d: %w: %w", i, err, ErrParseError)
				}
				comps[k] = v
			}
			c.R, c.G, c.B, c.A = comps[0], comps[1], comps[2], comps[3]
			f.Palette[i] = c
		}
	case 0x00:
		f.HasPalette = false
	default:
		return f, fmt.Errorf("unexpected palette marker 0x%02x: %w", marker, ErrParseError)
	}

	return f, nil
}

// DecodeBlockTable reads a region_size.Volume()-entry block-info table.
func DecodeBlockTable(r io.Reader, count int) ([]BlockInfo, error) {
	reader := bits.NewReader(r, binary.LittleEndian)
	blocks := make([]BlockInfo, count)
	for i := range blocks {
		v, err := reader.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("read block info %d: %w: %w", i, err, ErrParseError)
		}
		blocks[i] = BlockInfo(v)
	}
	return blocks, nil
}
