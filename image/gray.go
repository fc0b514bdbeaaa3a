package image

import (
	"image"
	"image/color"
)

// Visit pixels in row-major order on a width by height canvas, stopping at
// whichever runs out first
func (m *Image) each(f func(x, y int, p Pixel)) {
	w, h := int(m.Header.Width), int(m.Header.Height)
	for i, p := range m.Pixels {
		if w == 0 || i >= w*h {
			return
		}
		f(i%w, i/w, p)
	}
}

// Gray returns the intensities of m as a gray image of the declared width and
// height. Pixels missing from the stream are black and surplus pixels are
// dropped. The sign bit is not represented; see SignMask.
func (m *Image) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, int(m.Header.Width), int(m.Header.Height)))
	m.each(func(x, y int, p Pixel) {
		g.SetGray(x, y, color.Gray{Y: (p.Byte() & intensityMask) << 1})
	})
	return g
}

// SignMask returns the sign bits of m as an opaque/transparent mask laid out
// like Gray.
func (m *Image) SignMask() *image.Alpha {
	a := image.NewAlpha(image.Rect(0, 0, int(m.Header.Width), int(m.Header.Height)))
	m.each(func(x, y int, p Pixel) {
		if p.Sign {
			a.SetAlpha(x, y, color.Alpha{A: 0xff})
		}
	})
	return a
}
