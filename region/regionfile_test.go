package region

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dot5enko/voxelregion/format"
	"github.com/dot5enko/voxelregion/voxel"
)

func corruptMagic(t *testing.T, path string) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte("XXXX"), 0); err != nil {
		t.Fatalf("corrupt magic: %v", err)
	}
}

func smallFormat() format.Format {
	f := format.DefaultFormat()
	f.RegionSize = format.BlockPos{X: 2, Y: 2, Z: 2}
	f.BlockSizePo2 = 2 // edge 4
	f.SectorSize = 64
	return f
}

func fillBlock(b *voxel.Block, seed uint64) {
	for c := range b.Channels {
		for i := range b.Channels[c] {
			b.Channels[c][i] = (seed + uint64(c)*7 + uint64(i)) % 251
		}
	}
}

func openFresh(t *testing.T, f format.Format) (*RegionFile, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.vxr")
	rf := New(nil)
	if err := rf.SetFormat(f); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := rf.Open(path, OpenOptions{CreateIfNotFound: true}); err != nil {
		t.Fatalf("open: %v", err)
	}
	return rf, path
}

// Scenario: create, write a block, read it back (spec §8, P1).
func TestSaveAndLoadBlockRoundTrip(t *testing.T) {

	f := smallFormat()
	rf, _ := openFresh(t, f)
	defer rf.Close()

	pos := format.BlockPos{X: 1, Y: 0, Z: 1}
	b := voxel.New(f.BlockEdge(), f.ChannelDepths)
	fillBlock(b, 11)

	if err := rf.SaveBlock(pos, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !rf.HasBlock(pos) {
		t.Fatal("expected HasBlock to report true after save")
	}

	back, err := rf.LoadBlock(pos)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !b.Equal(back) {
		t.Fatal("loaded block does not match saved block")
	}
}

// Scenario: absent block (spec §8).
func TestLoadAbsentBlockFails(t *testing.T) {

	f := smallFormat()
	rf, _ := openFresh(t, f)
	defer rf.Close()

	pos := format.BlockPos{X: 0, Y: 0, Z: 0}
	if rf.HasBlock(pos) {
		t.Fatal("expected a freshly created region to have no blocks")
	}

	if _, err := rf.LoadBlock(pos); !errors.Is(err, ErrDoesNotExist) {
		t.Fatalf("expected ErrDoesNotExist, got %v", err)
	}
}

// Scenario: re-save a block with a smaller payload triggers compaction,
// and later blocks slide left with their contents intact (Case B shrink).
func TestSaveBlockShrinkCompactsAndPreservesOthers(t *testing.T) {

	f := smallFormat()
	rf, _ := openFresh(t, f)
	defer rf.Close()

	posA := format.BlockPos{X: 0, Y: 0, Z: 0}
	posB := format.BlockPos{X: 1, Y: 0, Z: 0}

	big := voxel.New(f.BlockEdge(), f.ChannelDepths)
	fillBlock(big, 3)
	// Vary every sample so lz4 cannot compress it down to nothing - the
	// point is to force more sectors than the shrunk version needs.
	for c := range big.Channels {
		for i := range big.Channels[c] {
			big.Channels[c][i] = uint64((i*37 + c*101) % 256)
		}
	}

	if err := rf.SaveBlock(posA, big); err != nil {
		t.Fatalf("save posA: %v", err)
	}

	bB := voxel.New(f.BlockEdge(), f.ChannelDepths)
	fillBlock(bB, 99)
	if err := rf.SaveBlock(posB, bB); err != nil {
		t.Fatalf("save posB: %v", err)
	}

	small := voxel.New(f.BlockEdge(), f.ChannelDepths)
	// All zero - lz4 compresses this far smaller than the varied payload.
	if err := rf.SaveBlock(posA, small); err != nil {
		t.Fatalf("re-save posA smaller: %v", err)
	}

	backA, err := rf.LoadBlock(posA)
	if err != nil {
		t.Fatalf("load posA: %v", err)
	}
	if !small.Equal(backA) {
		t.Fatal("posA did not round trip after shrink")
	}

	backB, err := rf.LoadBlock(posB)
	if err != nil {
		t.Fatalf("load posB: %v", err)
	}
	if !bB.Equal(backB) {
		t.Fatal("posB was corrupted by posA's shrink/compaction")
	}
}

// Scenario: re-save a block with a larger payload (Case C grow) discards
// its old sectors and appends fresh ones, without disturbing other blocks.
func TestSaveBlockGrowAppendsAtEnd(t *testing.T) {

	f := smallFormat()
	rf, _ := openFresh(t, f)
	defer rf.Close()

	posA := format.BlockPos{X: 0, Y: 0, Z: 0}
	posB := format.BlockPos{X: 1, Y: 1, Z: 1}

	small := voxel.New(f.BlockEdge(), f.ChannelDepths)
	if err := rf.SaveBlock(posA, small); err != nil {
		t.Fatalf("save posA small: %v", err)
	}

	bB := voxel.New(f.BlockEdge(), f.ChannelDepths)
	fillBlock(bB, 5)
	if err := rf.SaveBlock(posB, bB); err != nil {
		t.Fatalf("save posB: %v", err)
	}

	big := voxel.New(f.BlockEdge(), f.ChannelDepths)
	for c := range big.Channels {
		for i := range big.Channels[c] {
			big.Channels[c][i] = uint64((i*53 + c*17) % 256)
		}
	}
	if err := rf.SaveBlock(posA, big); err != nil {
		t.Fatalf("re-save posA bigger: %v", err)
	}

	infoA := rf.header.Blocks[format.LinearIndex(posA, f.RegionSize)]
	infoB := rf.header.Blocks[format.LinearIndex(posB, f.RegionSize)]
	if infoA.SectorIndex() != infoB.SectorIndex()+infoB.SectorCount() {
		t.Fatalf("grown posA starts at sector %d, want %d (right after posB)", infoA.SectorIndex(), infoB.SectorIndex()+infoB.SectorCount())
	}

	backA, err := rf.LoadBlock(posA)
	if err != nil {
		t.Fatalf("load posA: %v", err)
	}
	if !big.Equal(backA) {
		t.Fatal("posA did not round trip after grow")
	}

	backB, err := rf.LoadBlock(posB)
	if err != nil {
		t.Fatalf("load posB: %v", err)
	}
	if !bB.Equal(backB) {
		t.Fatal("posB was corrupted by posA's grow")
	}
}

// Scenario: reopening a file rebuilds the sector map from the block-info
// table alone (spec §4.1, P2).
func TestReopenRebuildsSectorMap(t *testing.T) {

	f := smallFormat()
	path := filepath.Join(t.TempDir(), "reopen.vxr")

	rf := New(nil)
	if err := rf.SetFormat(f); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := rf.Open(path, OpenOptions{CreateIfNotFound: true}); err != nil {
		t.Fatalf("open: %v", err)
	}

	pos := format.BlockPos{X: 1, Y: 1, Z: 0}
	b := voxel.New(f.BlockEdge(), f.ChannelDepths)
	fillBlock(b, 13)
	if err := rf.SaveBlock(pos, b); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rf2 := New(nil)
	if err := rf2.SetFormat(f); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := rf2.Open(path, OpenOptions{}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rf2.Close()

	if !rf2.HasBlock(pos) {
		t.Fatal("expected reopened file to still have the saved block")
	}
	back, err := rf2.LoadBlock(pos)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if !b.Equal(back) {
		t.Fatal("block contents changed across reopen")
	}
}

// Scenario: bad magic is rejected (spec §8).
func TestOpenRejectsBadMagic(t *testing.T) {

	f := smallFormat()
	path := filepath.Join(t.TempDir(), "bad-magic.vxr")

	rf := New(nil)
	if err := rf.SetFormat(f); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := rf.Open(path, OpenOptions{CreateIfNotFound: true}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	corruptMagic(t, path)

	rf2 := New(nil)
	if err := rf2.SetFormat(f); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := rf2.Open(path, OpenOptions{}); err == nil {
		t.Fatal("expected an error opening a file with corrupted magic")
	}
}

func TestVerifyFormatRejectsWrongEdge(t *testing.T) {

	f := smallFormat()
	rf, _ := openFresh(t, f)
	defer rf.Close()

	wrongEdge := voxel.New(f.BlockEdge()+1, f.ChannelDepths)
	if err := rf.VerifyFormat(wrongEdge); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}
