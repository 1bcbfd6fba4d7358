package region

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dot5enko/voxelregion/bits"
	"github.com/dot5enko/voxelregion/diskio"
	"github.com/dot5enko/voxelregion/format"
	"github.com/dot5enko/voxelregion/serializer"
	"github.com/dot5enko/voxelregion/voxel"
)

// RegionFile is a single-owner, single-threaded handle on one .vxr
// container: header, block-info table, sector map, and the sector area.
// There is no internal locking (spec §5) - callers own exclusive access
// to both the on-disk file and this Go value for its lifetime.
// There is no finalizer: callers must Close an opened RegionFile
// (typically with defer) to persist a modified header and release the
// file handle.
type RegionFile struct {
	serializer serializer.BlockSerializer

	path    string
	file    *diskio.File
	session uuid.UUID

	header            format.Header
	blocksBeginOffset uint32
	headerModified    bool

	// sectorMap[s] names the grid position owning in-use sector s. Its
	// length always equals the number of sectors currently allocated
	// (invariant I2).
	sectorMap []format.BlockPos

	// presence mirrors which block-info slots are non-absent, kept in
	// sync with header.Blocks so ListPresentBlocks doesn't have to scan
	// the whole table.
	presence bits.BitSet

	opts OpenOptions
}

// New constructs an unopened RegionFile using ser to encode/decode
// blocks. A nil ser defaults to serializer.LZ4Serializer{}.
func New(ser serializer.BlockSerializer) *RegionFile {
	if ser == nil {
		ser = serializer.LZ4Serializer{}
	}

	f := format.DefaultFormat()
	return &RegionFile{
		serializer: ser,
		header: format.Header{
			Version: format.FormatVersion,
			Format:  f,
			Blocks:  make([]format.BlockInfo, f.RegionSize.Volume()),
		},
	}
}

func (rf *RegionFile) IsOpen() bool {
	return rf.file != nil
}

// SetFormat stages the format used to create path if it doesn't yet
// exist, or to interpret a legacy v2 file's geometry on migration. It may
// only be called while no file is open (spec §4.2).
func (rf *RegionFile) SetFormat(f format.Format) error {
	if rf.IsOpen() {
		return fmt.Errorf("can't set format while a file is open: %w", ErrInvalidParameter)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	rf.header.Format = f
	rf.header.Blocks = make([]format.BlockInfo, f.RegionSize.Volume())
	return nil
}

func (rf *RegionFile) GetFormat() format.Format {
	return rf.header.Format
}

// Open opens path, creating it with the currently staged format if
// missing and opts.CreateIfNotFound is set, or loading and validating its
// header otherwise. It rebuilds the in-memory sector map from the
// block-info table (the only place that happens - spec §4.1).
func (rf *RegionFile) Open(path string, opts OpenOptions) error {
	if rf.IsOpen() {
		if err := rf.Close(); err != nil {
			return err
		}
	}

	rf.path = path
	rf.opts = opts

	f, err := diskio.Open(path, false)
	if err != nil {
		if !os.IsNotExist(err) || !opts.CreateIfNotFound {
			return fmt.Errorf("open %s: %w: %w", path, err, ErrFileCantRead)
		}

		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return fmt.Errorf("create directory for %s: %w: %w", path, mkErr, ErrCantCreate)
		}

		f, err = diskio.Open(path, true)
		if err != nil {
			return fmt.Errorf("create %s: %w: %w", path, err, ErrCantCreate)
		}

		rf.file = f
		rf.header.Version = format.FormatVersion
		if err := rf.saveHeaderLocked(); err != nil {
			f.Close()
			rf.file = nil
			return fmt.Errorf("write initial header for %s: %w: %w", path, err, ErrFileCantWrite)
		}
	} else {
		rf.file = f
		if err := rf.loadHeaderLocked(); err != nil {
			f.Close()
			rf.file = nil
			return err
		}
	}

	rf.session = uuid.New()
	log.Printf("region file %s opened (session %s, version %d)", path, rf.session, rf.header.Version)

	rf.rebuildSectorMap()
	return nil
}

// Close persists the header if it was modified, then releases the file
// handle and the per-file in-memory state (block-info table, presence
// set, sector map). The staged format is kept.
func (rf *RegionFile) Close() error {
	if rf.file == nil {
		return nil
	}

	var saveErr error
	if rf.headerModified {
		if err := rf.saveHeaderLocked(); err != nil {
			saveErr = fmt.Errorf("save header on close: %w: %w", err, ErrFileCantWrite)
		}
	}

	closeErr := rf.file.Close()
	rf.file = nil
	rf.sectorMap = nil
	rf.presence = nil
	rf.header.Blocks = make([]format.BlockInfo, rf.header.Format.RegionSize.Volume())

	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

func (rf *RegionFile) GetHeaderBlockCount() uint {
	return uint(len(rf.header.Blocks))
}

func (rf *RegionFile) HasBlock(pos format.BlockPos) bool {
	if !rf.IsOpen() {
		return false
	}
	idx := format.LinearIndex(pos, rf.header.Format.RegionSize)
	if idx < 0 || idx >= len(rf.header.Blocks) {
		return false
	}
	return rf.header.Blocks[idx].IsPresent()
}

func (rf *RegionFile) HasBlockAtIndex(index uint) bool {
	if !rf.IsOpen() || int(index) >= len(rf.header.Blocks) {
		return false
	}
	return rf.header.Blocks[index].IsPresent()
}

// VerifyFormat checks a block's geometry against the file's staged
// format, the same pre-save check the original engine names
// verify_format.
func (rf *RegionFile) VerifyFormat(b *voxel.Block) error {
	if b.Edge != rf.header.Format.BlockEdge() {
		return fmt.Errorf("block edge %d does not match format edge %d: %w", b.Edge, rf.header.Format.BlockEdge(), ErrInvalidParameter)
	}
	if b.Depths != rf.header.Format.ChannelDepths {
		return fmt.Errorf("block channel depths do not match format: %w", ErrInvalidParameter)
	}
	return nil
}

// LoadBlock reads and decompresses the block stored at pos.
func (rf *RegionFile) LoadBlock(pos format.BlockPos) (*voxel.Block, error) {
	if !rf.IsOpen() {
		return nil, fmt.Errorf("region file not open: %w", ErrFileCantRead)
	}

	idx := format.LinearIndex(pos, rf.header.Format.RegionSize)
	if idx < 0 || idx >= len(rf.header.Blocks) {
		return nil, fmt.Errorf("position %v out of range: %w", pos, ErrInvalidParameter)
	}

	info := rf.header.Blocks[idx]
	if !info.IsPresent() {
		return nil, fmt.Errorf("block %v: %w", pos, ErrDoesNotExist)
	}

	sectorOffset := int64(rf.blocksBeginOffset) + int64(info.SectorIndex())*int64(rf.header.Format.SectorSize)

	lenBuf := make([]byte, 4)
	if err := rf.file.ReadAt(lenBuf, sectorOffset); err != nil {
		return nil, fmt.Errorf("read payload length for %v: %w: %w", pos, err, ErrFileCantRead)
	}
	payloadLen := leUint32(lenBuf)

	out := voxel.New(rf.header.Format.BlockEdge(), rf.header.Format.ChannelDepths)

	section := io.NewSectionReader(rf.file.Handle(), sectorOffset+4, int64(payloadLen))
	if err := rf.serializer.DecompressAndDeserialize(section, payloadLen, out); err != nil {
		return nil, fmt.Errorf("decode block %v: %w: %w", pos, err, ErrParseError)
	}

	return out, nil
}

// SaveHeaderNow forces a header write (and, if the on-disk version is
// behind current, a migration) even when nothing is pending. Tools like
// vxrtool's migrate subcommand use it to upgrade a file without having to
// save a block first.
func (rf *RegionFile) SaveHeaderNow() error {
	if !rf.IsOpen() {
		return fmt.Errorf("region file not open: %w", ErrFileCantWrite)
	}
	rf.headerModified = true
	return rf.saveHeaderLocked()
}

func (rf *RegionFile) saveHeaderLocked() error {
	if rf.header.Version != format.FormatVersion {
		if err := rf.migrateToLatestLocked(); err != nil {
			return fmt.Errorf("migrate before save: %w: %w", err, ErrUnavailable)
		}
	}

	var buf bytes.Buffer
	if err := format.EncodeV3(&buf, rf.header); err != nil {
		return err
	}
	if err := rf.file.WriteAt(buf.Bytes(), 0); err != nil {
		return err
	}

	rf.blocksBeginOffset = format.SizeV3(rf.header.Format)
	rf.headerModified = false
	return nil
}

func (rf *RegionFile) loadHeaderLocked() error {
	magicAndVersion := make([]byte, format.MagicAndVersionSize)
	if err := rf.file.ReadAt(magicAndVersion, 0); err != nil {
		return fmt.Errorf("read magic/version: %w: %w", err, ErrParseError)
	}
	if string(magicAndVersion[:4]) != format.Magic {
		return fmt.Errorf("unexpected magic %q: %w", magicAndVersion[:4], ErrParseError)
	}
	version := magicAndVersion[4]

	size, err := rf.file.Size()
	if err != nil {
		return fmt.Errorf("stat file: %w: %w", err, ErrFileCantRead)
	}
	body := io.NewSectionReader(rf.file.Handle(), int64(format.MagicAndVersionSize), size-int64(format.MagicAndVersionSize))

	switch version {
	case format.FormatVersion:
		f, err := format.DecodeV3(body)
		if err != nil {
			return err
		}
		rf.header.Format = f

	case format.FormatVersionLegacyV2, format.FormatVersionLegacyV1:
		if rf.header.Format.RegionSize.Volume() == 0 {
			return fmt.Errorf("legacy region file needs a staged format before open: %w", ErrUnavailable)
		}

	default:
		return fmt.Errorf("unrecognized format version %d: %w", version, ErrParseError)
	}

	count := rf.header.Format.RegionSize.Volume()
	blocks, err := format.DecodeBlockTable(body, count)
	if err != nil {
		return err
	}

	rf.header.Blocks = blocks
	rf.header.Version = version

	switch version {
	case format.FormatVersion:
		rf.blocksBeginOffset = format.SizeV3(rf.header.Format)
	default:
		rf.blocksBeginOffset = uint32(format.MagicAndVersionSize) + uint32(count)*4
	}

	return nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
