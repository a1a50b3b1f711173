package tile

import (
	"image/color"
)

type builder struct {
	width, height int
	pix           []color.NRGBA

	palette Palette
}

func opaque(c color.NRGBA) color.NRGBA {
	return color.NRGBA{c.R, c.G, c.B, 0xff}
}

// Collect the distinct opaque colors in order of first appearance
func (b *builder) buildPalette() error {
	var n int
	for _, px := range b.pix {
		if px.A < alphaThreshold {
			continue
		}

		c := opaque(px)

		seen := false
		for _, u := range b.palette[1 : 1+n] {
			if u == c {
				seen = true
				break
			}
		}
		if seen {
			continue
		}

		if n == maxColors {
			return ErrTooManyColors
		}
		b.palette[1+n] = c
		n++
	}
	return nil
}

func (b *builder) indexOf(px color.NRGBA) (uint8, error) {
	if px.A < alphaThreshold {
		return 0, nil
	}
	c := opaque(px)
	for i := 1; i < colorsPerPalette; i++ {
		if b.palette[i] == c {
			return uint8(i), nil
		}
	}
	return 0, ErrUnknownColor
}

func (b *builder) buildTiles() ([]Tile, error) {
	tilesX := b.width / tileWidth
	tilesY := b.height / tileHeight

	tiles := make([]Tile, tilesX*tilesY)

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			var t Tile
			for y := 0; y < tileHeight; y++ {
				var b0, b1 uint8
				dy := ty*tileHeight + y
				for x := 0; x < tileWidth; x++ {
					dx := tx*tileWidth + x

					idx, err := b.indexOf(b.pix[dy*b.width+dx])
					if err != nil {
						return nil, err
					}

					b0 |= (idx & 1) << uint(x)
					b1 |= (idx >> 1 & 1) << uint(x)
				}
				t.Bit0[y] = b0
				t.Bit1[y] = b1
			}
			tiles[ty*tilesX+tx] = t
		}
	}

	return tiles, nil
}

// Build converts a width by height image, given as row-major pixels, into a
// palette and a row-major sequence of tiles. Pixels with an alpha below 128
// become transparent, all others are treated as fully opaque. Opaque colors
// are assigned to palette slots 1 to 3 in the order they are first seen and
// unused slots are left transparent.
//
// ErrTooManyColors is returned if there are more than three distinct opaque
// colors; no attempt is made to approximate.
func Build(width, height int, pix []color.NRGBA) (Palette, []Tile, error) {
	if width < 0 || height < 0 || width%tileWidth != 0 || height%tileHeight != 0 || len(pix) != width*height {
		return Palette{}, nil, ErrBadSize
	}

	b := builder{
		width:  width,
		height: height,
		pix:    pix,
	}

	if err := b.buildPalette(); err != nil {
		return Palette{}, nil, err
	}

	tiles, err := b.buildTiles()
	if err != nil {
		return Palette{}, nil, err
	}

	return b.palette, tiles, nil
}
