package region

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/dot5enko/voxelregion/diskio"
	"github.com/dot5enko/voxelregion/format"
)

// ErrLegacyV1Unsupported is returned when a write has to migrate a v1 file.
// Open accepts a v1 file like a v2 one; the original engine only ever
// shipped a migration path from v2, so the first migrating write on a v1
// file is rejected rather than guessed at (design note (a)).
var ErrLegacyV1Unsupported = errors.New("region: v1 format files are not migrated")

// migrateToLatestLocked brings the open file's on-disk header up to the
// current format version, in place. It is a no-op once the header is
// already current; saveHeaderLocked and SaveBlock call it only when the
// header version is behind.
func (rf *RegionFile) migrateToLatestLocked() error {
	switch rf.header.Version {
	case format.FormatVersion:
		return nil
	case format.FormatVersionLegacyV2:
		return rf.migrateFromV2ToV3Locked()
	case format.FormatVersionLegacyV1:
		return fmt.Errorf("%s: %w", rf.path, ErrLegacyV1Unsupported)
	default:
		return fmt.Errorf("no migration path from version %d: %w", rf.header.Version, ErrParseError)
	}
}

// migrateFromV2ToV3Locked rewrites a legacy header (magic, version, and a
// bare block-info table) into a v3 header that also carries the format
// descriptor, by inserting the size difference right after the version byte
// and filling it in when the full header is re-encoded. The in-memory
// version is set to current before the header is written back. The byte
// insert and the header rewrite are two separate writes: a crash between
// them leaves a file whose version byte still reads v2 but whose block
// table has already been shifted forward.
func (rf *RegionFile) migrateFromV2ToV3Locked() error {
	if rf.opts.BackupBeforeMigration {
		if err := rf.backupBeforeMigration(); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
	}

	oldHeaderSize := int64(rf.blocksBeginOffset)
	newHeaderSize := int64(format.SizeV3(rf.header.Format))
	delta := newHeaderSize - oldHeaderSize

	if delta > 0 {
		if err := diskio.InsertBytes(rf.file, int64(format.MagicAndVersionSize), int(delta)); err != nil {
			return fmt.Errorf("insert %d header bytes: %w: %w", delta, err, ErrFileCantWrite)
		}
	}

	rf.header.Version = format.FormatVersion
	rf.blocksBeginOffset = uint32(newHeaderSize)

	var buf bytes.Buffer
	if err := format.EncodeV3(&buf, rf.header); err != nil {
		return err
	}
	if err := rf.file.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("write migrated header: %w: %w", err, ErrFileCantWrite)
	}

	rf.headerModified = false
	log.Printf("region file %s migrated v%d -> v%d", rf.path, format.FormatVersionLegacyV2, format.FormatVersion)
	return nil
}

func (rf *RegionFile) backupBeforeMigration() error {
	src, err := os.Open(rf.path)
	if err != nil {
		return err
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.bak-%s", rf.path, uuid.New())
	dst, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	log.Printf("region file %s backed up to %s before migration", rf.path, backupPath)
	return nil
}
