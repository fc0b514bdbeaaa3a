package image

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// phase is the part of the stream the decoder expects next
type phase int

const (
	phaseWidth phase = iota
	phaseHeight
	phaseTimestamp
	phasePixels
)

func asByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// latin1 maps each byte to the character with the same code point
func latin1(b []byte) string {
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

func decodePixel(b byte) Pixel {
	return Pixel{
		Sign:      b&signMask != 0,
		Intensity: float64(b&intensityMask) / intensityStep,
	}
}

type decoder struct {
	r io.ByteReader

	phase phase
	pos   int // 1-based position of the last byte consumed

	image Image

	// Timestamp accumulator, finalized once full
	tmp [TimestampSize]byte
	n   int
}

func (d *decoder) step(b byte) {
	switch d.phase {
	case phaseWidth:
		d.image.Header.Width = b
		d.phase = phaseHeight
	case phaseHeight:
		d.image.Header.Height = b
		d.phase = phaseTimestamp
	case phaseTimestamp:
		d.tmp[d.n] = b
		d.n++
		if d.n == TimestampSize {
			d.image.Header.Timestamp = latin1(d.tmp[:])
			d.n = 0
			d.phase = phasePixels
		}
	case phasePixels:
		d.image.Pixels = append(d.image.Pixels, decodePixel(b))
		return
	}
	d.image.headerBytes++
}

func (d *decoder) decode(r io.Reader, headerOnly bool) error {
	d.r = asByteReader(r)
	d.image.Pixels = []Pixel{}

	for {
		if headerOnly && d.phase == phasePixels {
			return nil
		}

		b, err := d.r.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("maif: reading byte %d: %w", d.pos+1, err)
		}
		d.pos++

		d.step(b)
	}
}

// Decode reads a MAIF image from r. A stream that ends before the header is
// complete is not an error; the missing fields are left at their zero value
// and Truncated reports true. Only errors from r itself are returned.
func Decode(r io.Reader) (*Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return &d.image, nil
}

// DecodeHeader reads only the header of a MAIF image from r. If r implements
// io.ByteReader no bytes past the header are consumed.
func DecodeHeader(r io.Reader) (Header, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return Header{}, err
	}
	return d.image.Header, nil
}

// DecodeFile opens the named file and decodes it.
func DecodeFile(name string) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}
