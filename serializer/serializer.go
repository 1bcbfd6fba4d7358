package serializer

import (
	"io"

	"github.com/dot5enko/voxelregion/voxel"
)

// BlockSerializer is the out-of-scope codec contract the region file
// depends on: it turns a block into an opaque compressed payload and back.
// The region file never inspects the payload's contents, only its length.
type BlockSerializer interface {
	// SerializeAndCompress produces the opaque payload P for a block.
	SerializeAndCompress(b *voxel.Block) ([]byte, error)

	// DecompressAndDeserialize reads exactly length bytes of payload from
	// r and fills out, which already carries the edge length and channel
	// depths the caller expects.
	DecompressAndDeserialize(r io.Reader, length uint32, out *voxel.Block) error
}
