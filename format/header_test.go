package format

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeV3RoundTrip(t *testing.T) {

	f := DefaultFormat()
	f.RegionSize = BlockPos{X: 2, Y: 3, Z: 4}

	blocks := make([]BlockInfo, f.RegionSize.Volume())
	info, err := WithSectors(5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blocks[1] = info

	h := Header{Version: FormatVersion, Format: f, Blocks: blocks}

	var buf bytes.Buffer
	if err := EncodeV3(&buf, h); err != nil {
		t.Fatalf("encode: %v", err)
	}

	if uint32(buf.Len()) != SizeV3(f) {
		t.Fatalf("encoded size %d, want %d", buf.Len(), SizeV3(f))
	}

	// DecodeV3's contract resumes right after the version byte.
	body := buf.Bytes()[MagicAndVersionSize:]

	decodedFormat, err := DecodeV3(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode format: %v", err)
	}
	if decodedFormat != f {
		t.Fatalf("decoded format %+v, want %+v", decodedFormat, f)
	}

	tableStart := len(body) - f.RegionSize.Volume()*4
	decodedBlocks, err := DecodeBlockTable(bytes.NewReader(body[tableStart:]), f.RegionSize.Volume())
	if err != nil {
		t.Fatalf("decode block table: %v", err)
	}

	for i, b := range decodedBlocks {
		if b != blocks[i] {
			t.Fatalf("block %d = %v, want %v", i, b, blocks[i])
		}
	}
}

func TestEncodeDecodeV3WithPalette(t *testing.T) {

	f := DefaultFormat()
	f.HasPalette = true
	f.Palette[3] = PaletteColor{R: 1, G: 2, B: 3, A: 4}

	h := Header{Version: FormatVersion, Format: f, Blocks: make([]BlockInfo, f.RegionSize.Volume())}

	var buf bytes.Buffer
	if err := EncodeV3(&buf, h); err != nil {
		t.Fatalf("encode: %v", err)
	}

	body := buf.Bytes()[MagicAndVersionSize:]
	decoded, err := DecodeV3(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !decoded.HasPalette {
		t.Fatal("expected HasPalette to round trip true")
	}
	if decoded.Palette[3] != f.Palette[3] {
		t.Errorf("palette[3] = %+v, want %+v", decoded.Palette[3], f.Palette[3])
	}
}
