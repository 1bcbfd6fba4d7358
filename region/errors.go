package region

import (
	"errors"

	"github.com/dot5enko/voxelregion/format"
)

// Sentinel errors matching the taxonomy in spec §7/§6.2. Library code
// wraps these with fmt.Errorf("...: %w", ...); callers compare with
// errors.Is.
var (
	ErrDoesNotExist   = errors.New("block does not exist")
	ErrCantCreate     = errors.New("can't create region file")
	ErrFileCantRead   = errors.New("file can't read")
	ErrFileCantWrite  = errors.New("file can't write")
	ErrUnavailable    = errors.New("operation unavailable")

	// Re-exported so callers never need to import format directly just
	// to check an error.
	ErrInvalidParameter = format.ErrInvalidParameter
	ErrParseError       = format.ErrParseError
)
