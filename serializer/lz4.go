package serializer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/dot5enko/voxelregion/bits"
	"github.com/dot5enko/voxelregion/format"
	"github.com/dot5enko/voxelregion/voxel"
)

// LZ4Serializer is the default BlockSerializer: it packs each channel's
// raw samples at their declared bit depth, then compresses the whole
// uncompressed payload with lz4. Grounded on compression/lz4.go from the
// teacher, extended with the decompress half it did not have.
type LZ4Serializer struct{}

func (LZ4Serializer) SerializeAndCompress(b *voxel.Block) ([]byte, error) {
	raw := encodeRaw(b)

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("lz4 write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}

	return compressed.Bytes(), nil
}

func (LZ4Serializer) DecompressAndDeserialize(r io.Reader, length uint32, out *voxel.Block) error {
	limited := io.LimitReader(r, int64(length))

	zr := lz4.NewReader(limited)

	rawSize := rawPayloadSize(out)
	raw := make([]byte, rawSize)
	if _, err := io.ReadFull(zr, raw); err != nil {
		return fmt.Errorf("lz4 read: %w", err)
	}

	return decodeRaw(raw, out)
}

func encodeRaw(b *voxel.Block) []byte {
	size := rawPayloadSize(b)
	buf := make([]byte, size)
	bw := bits.NewEncodeBuffer(buf, binary.LittleEndian)

	for c := 0; c < format.ChannelCount; c++ {
		putChannel(&bw, b.Channels[c], b.Depths[c])
	}

	return bw.Bytes()
}

func decodeRaw(raw []byte, out *voxel.Block) error {
	volume := out.Edge * out.Edge * out.Edge
	reader := bits.NewReader(bytes.NewReader(raw), binary.LittleEndian)

	for c := 0; c < format.ChannelCount; c++ {
		if len(out.Channels[c]) != volume {
			out.Channels[c] = make([]uint64, volume)
		}
		if err := readChannel(reader, out.Channels[c], out.Depths[c]); err != nil {
			return fmt.Errorf("decode channel %d: %w", c, err)
		}
	}

	return nil
}

func putChannel(bw *bits.BitWriter, samples []uint64, depth format.ChannelDepth) {
	switch depth {
	case format.Depth8Bit:
		for _, v := range samples {
			bw.WriteByte(uint8(v))
		}
	case format.Depth16Bit:
		for _, v := range samples {
			bw.PutUint16(uint16(v))
		}
	case format.Depth32Bit:
		for _, v := range samples {
			bw.PutUint32(uint32(v))
		}
	case format.Depth64Bit:
		for _, v := range samples {
			bw.PutUint64(v)
		}
	default:
		panic("unknown channel depth")
	}
}

func readChannel(r *bits.BitsReader, samples []uint64, depth format.ChannelDepth) error {
	for i := range samples {
		switch depth {
		case format.Depth8Bit:
			v, err := r.ReadU8()
			if err != nil {
				return err
			}
			samples[i] = uint64(v)
		case format.Depth16Bit:
			v, err := r.ReadU16()
			if err != nil {
				return err
			}
			samples[i] = uint64(v)
		case format.Depth32Bit:
			v, err := r.ReadU32()
			if err != nil {
				return err
			}
			samples[i] = uint64(v)
		case format.Depth64Bit:
			v, err := r.ReadU64()
			if err != nil {
				return err
			}
			samples[i] = v
		default:
			return fmt.Errorf("unknown channel depth %d", depth)
		}
	}
	return nil
}

func rawPayloadSize(b *voxel.Block) int {
	volume := b.Edge * b.Edge * b.Edge
	total := 0
	for c := 0; c < format.ChannelCount; c++ {
		total += volume * b.Depths[c].Bits() / 8
	}
	return total
}
