package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"time"

	"github.com/ericpauley/go-quantize/quantize"
)

const maxLevels = intensityMask + 1

// ErrTooLarge is returned by Encode for images that do not fit in the 8-bit
// width and height fields.
var ErrTooLarge = errors.New("maif: image is too large")

// Byte returns the encoded form of the pixel. The intensity is rounded to the
// nearest 1/128 step and clamped to the representable range.
func (p Pixel) Byte() byte {
	v := math.Round(p.Intensity * intensityStep)
	switch {
	case v < 0 || math.IsNaN(v):
		v = 0
	case v > intensityMask:
		v = intensityMask
	}
	b := byte(v)
	if p.Sign {
		b |= signMask
	}
	return b
}

func (h Header) bytes() []byte {
	b := make([]byte, HeaderSize)
	b[0] = h.Width
	b[1] = h.Height

	ts := b[2:]
	for i := range ts {
		ts[i] = ' '
	}
	i := 0
	for _, r := range h.Timestamp {
		if i == TimestampSize {
			break
		}
		if r > 0xff {
			r = '?'
		}
		ts[i] = byte(r)
		i++
	}
	return b
}

// WriteTo writes the image to w in MAIF format. The timestamp is padded with
// spaces or cut to TimestampSize characters; characters that cannot be held
// in a single byte are written as '?'.
func (m *Image) WriteTo(w io.Writer) (int64, error) {
	b := m.Header.bytes()
	for _, p := range m.Pixels {
		b = append(b, p.Byte())
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Options are the encoding parameters.
type Options struct {
	// Levels is the number of distinct intensities to reduce the image to,
	// from 1 to 128. Zero means 128.
	Levels int
	// Threshold sets the sign bit of every pixel whose 8-bit luminance is
	// at or above it. Zero leaves every sign bit clear.
	Threshold uint8
	// Time is written to the header. The zero value writes the Unix epoch.
	Time time.Time
}

func (o *Options) levels() int {
	if o == nil || o.Levels <= 0 || o.Levels > maxLevels {
		return maxLevels
	}
	return o.Levels
}

// Encode writes the Image m to w in MAIF format. Color images are converted
// to gray first.
func Encode(w io.Writer, m image.Image, o *Options) error {
	b := m.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return ErrTooLarge
	}

	gray := image.NewGray(b)
	draw.Draw(gray, b, m, b.Min, draw.Src)

	// Reduce the number of gray levels if asked to
	var levels image.Image = gray
	if n := o.levels(); n < maxLevels && !b.Empty() {
		q := quantize.MedianCutQuantizer{}
		pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), gray))
		draw.Draw(pm, b, gray, b.Min, draw.Src)
		levels = pm
	}

	var (
		threshold uint8
		t         = time.Unix(0, 0)
	)
	if o != nil {
		threshold = o.Threshold
		if !o.Time.IsZero() {
			t = o.Time
		}
	}

	pixels := make([]Pixel, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(levels.At(x, y)).(color.Gray)
			pixels = append(pixels, Pixel{
				Sign:      threshold > 0 && gray.GrayAt(x, y).Y >= threshold,
				Intensity: float64(c.Y>>1) / intensityStep,
			})
		}
	}

	out := New(Header{
		Width:     uint8(b.Dx()),
		Height:    uint8(b.Dy()),
		Timestamp: t.UTC().Format(TimestampLayout),
	}, pixels)

	_, err := out.WriteTo(w)
	return err
}
