package tile

import (
	"image"
	"image/color"
)

// Image decodes tiles back into a paletted image using palette p. Tiles are
// laid out row-major with tilesX tiles per row; if the final row is short
// the remainder is left transparent. A tilesX of zero or less lays every
// tile out in a single row.
func Image(p Palette, tiles []Tile, tilesX int) *image.Paletted {
	if tilesX <= 0 {
		tilesX = len(tiles)
	}
	tilesY := 0
	if tilesX > 0 {
		tilesY = (len(tiles) + tilesX - 1) / tilesX
	}

	m := image.NewPaletted(image.Rect(0, 0, tilesX*tileWidth, tilesY*tileHeight), p.Palette())

	for i := range tiles {
		tx, ty := i%tilesX, i/tilesX
		for y := 0; y < tileHeight; y++ {
			for x := 0; x < tileWidth; x++ {
				m.SetColorIndex(tx*tileWidth+x, ty*tileHeight+y, tiles[i].Index(x, y))
			}
		}
	}

	return m
}

// Pixels returns the dimensions and row-major, non-premultiplied pixels of
// m. The top-left corner of m is treated as (0, 0).
func Pixels(m image.Image) (int, int, []color.NRGBA) {
	b := m.Bounds()

	pix := make([]color.NRGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pix = append(pix, color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA))
		}
	}

	return b.Dx(), b.Dy(), pix
}
