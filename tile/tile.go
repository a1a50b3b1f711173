/*
Package tile implements conversion of images into 4 color palettes and 8 by
8 tiles of 2-bit palette indices.

Each tile is stored as two 8 byte bitplanes; bit x of row y in the first
plane is the low bit of the index of pixel (x, y) and the same bit in the
second plane is the high bit. Index 0 is always transparent and the
remaining three palette slots hold at most three distinct opaque colors.
*/
package tile

import (
	"errors"
	"image/color"
)

const (
	tileWidth        = 8
	tileHeight       = tileWidth
	colorsPerPalette = 4
	maxColors        = colorsPerPalette - 1

	// Pixels with an alpha below this are treated as fully transparent
	alphaThreshold = 128
)

var (
	// ErrTooManyColors is returned when an image contains more than three
	// distinct opaque colors
	ErrTooManyColors = errors.New("tile: image has more than 3 unique colors")
	// ErrUnknownColor is returned when an opaque pixel matches none of
	// the palette slots
	ErrUnknownColor = errors.New("tile: found opaque pixel not in 3 color palette")
	// ErrBadSize is returned when the dimensions are not a multiple of 8
	// or do not match the number of pixels
	ErrBadSize = errors.New("tile: image is wrong size")
)

// Palette is a fixed set of four colors. Slot 0 is always transparent.
type Palette [colorsPerPalette]color.NRGBA

// Palette returns p as a color.Palette suitable for an image.Paletted.
func (p Palette) Palette() color.Palette {
	cp := make(color.Palette, len(p))
	for i := range p {
		cp[i] = p[i]
	}
	cp[0] = color.NRGBA{}
	return cp
}

// Tile is an 8 by 8 block of 2-bit palette indices stored as two bitplanes.
type Tile struct {
	Bit0 [tileHeight]uint8
	Bit1 [tileHeight]uint8
}

// Index returns the palette index of pixel (x, y) within the tile.
func (t *Tile) Index(x, y int) uint8 {
	return t.Bit0[y]>>uint(x)&1 | (t.Bit1[y]>>uint(x)&1)<<1
}

// SetIndex sets the palette index of pixel (x, y) within the tile. Only the
// lower two bits of i are used.
func (t *Tile) SetIndex(x, y int, i uint8) {
	mask := uint8(1) << uint(x)
	t.Bit0[y] &^= mask
	t.Bit1[y] &^= mask
	t.Bit0[y] |= (i & 1) << uint(x)
	t.Bit1[y] |= (i >> 1 & 1) << uint(x)
}
