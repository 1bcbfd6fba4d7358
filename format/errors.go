package format

import "errors"

// Sentinel errors surfaced by header/format decoding. Callers should use
// errors.Is against these, not string matching.
var (
	ErrParseError      = errors.New("parse error")
	ErrInvalidParameter = errors.New("invalid parameter")
)
