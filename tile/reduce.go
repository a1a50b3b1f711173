package tile

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Reduce returns a copy of m with its opaque pixels reduced to at most three
// distinct colors using a median cut quantizer. Pixels with an alpha below
// 128 become fully transparent and every other pixel becomes fully opaque,
// so the result can always be passed to Build.
func Reduce(m image.Image) *image.NRGBA {
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, maxColors), m)
	if len(p) > maxColors {
		p = p[:maxColors]
	}

	dup := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if c.A < alphaThreshold {
				continue
			}

			// The quantizer may hand back partially transparent
			// entries, only the color is kept
			n := opaque(c)
			if len(p) > 0 {
				n = opaque(color.NRGBAModel.Convert(p.Convert(n)).(color.NRGBA))
			}
			dup.SetNRGBA(x-b.Min.X, y-b.Min.Y, n)
		}
	}

	return dup
}
