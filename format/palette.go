package format

// PaletteSize is the fixed number of entries in an optional region palette.
const PaletteSize = 256

// PaletteColor is one RGBA8 palette entry.
type PaletteColor struct {
	R, G, B, A uint8
}

type Palette [PaletteSize]PaletteColor
