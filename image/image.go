/*
Package image implements a MAIF image decoder and encoder.

A MAIF stream has no magic number and no length fields. The first byte is the
width, the second the height, and the following 24 bytes hold a timestamp,
one character per byte. Every byte after that is a pixel: the most
significant bit is the sign and the remaining 7 bits are the intensity
numerator over 128. The number of pixels is given by the length of the
stream alone; width and height are not used to bound it.
*/
package image

import (
	"errors"
	"fmt"
)

const (
	// TimestampSize is the number of bytes holding the header timestamp
	TimestampSize = 24
	// HeaderSize is the number of bytes before the first pixel
	HeaderSize = 2 + TimestampSize

	// TimestampLayout is the time.Format layout used when stamping an
	// encoded image. It is exactly TimestampSize characters long.
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	signMask      = 0x80
	intensityMask = 0x7f
	intensityStep = 128.0
	maxDimension  = 0xff
)

var (
	// ErrTruncated is returned by Validate when the stream ended before the
	// header was complete.
	ErrTruncated = errors.New("maif: truncated header")
	// ErrPixelCount is returned by Validate when the number of pixels does
	// not match width times height.
	ErrPixelCount = errors.New("maif: pixel count mismatch")
)

// Header is the fixed-size prefix of a MAIF image
type Header struct {
	Width     uint8
	Height    uint8
	Timestamp string
}

// Pixel is a single decoded pixel record
type Pixel struct {
	Sign      bool
	Intensity float64
}

// Image is a decoded MAIF image. Pixels are in stream order.
type Image struct {
	Header Header
	Pixels []Pixel

	// Number of header bytes actually read, at most HeaderSize
	headerBytes int
}

// Truncated reports whether the stream ended before the header was complete.
func (m *Image) Truncated() bool {
	return m.headerBytes < HeaderSize
}

// New returns an image with a complete header and the given pixels.
func New(h Header, pixels []Pixel) *Image {
	return &Image{
		Header:      h,
		Pixels:      pixels,
		headerBytes: HeaderSize,
	}
}

// Validate checks the header was read in full and that the number of pixels
// matches the declared dimensions. Decode never calls it.
func (m *Image) Validate() error {
	if m.Truncated() {
		return ErrTruncated
	}
	if want := int(m.Header.Width) * int(m.Header.Height); len(m.Pixels) != want {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrPixelCount, len(m.Pixels), m.Header.Width, m.Header.Height)
	}
	return nil
}
