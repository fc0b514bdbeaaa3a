package image

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimestamp = "2024-01-01T00:00:00.000Z"

func testStream(width, height byte, pixels ...byte) []byte {
	b := append([]byte{width, height}, testTimestamp...)
	return append(b, pixels...)
}

func TestDecode(t *testing.T) {
	m, err := Decode(bytes.NewReader(testStream(2, 3, 0x80, 0x40)))
	require.NoError(t, err)

	assert.Equal(t, Header{Width: 2, Height: 3, Timestamp: testTimestamp}, m.Header)
	assert.Equal(t, []Pixel{
		{Sign: true, Intensity: 0},
		{Sign: false, Intensity: 0.5},
	}, m.Pixels)
	assert.False(t, m.Truncated())
}

func TestDecodeEmpty(t *testing.T) {
	m, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)

	assert.Equal(t, Header{}, m.Header)
	assert.NotNil(t, m.Pixels)
	assert.Len(t, m.Pixels, 0)
	assert.True(t, m.Truncated())
}

func TestDecodeHeaderOnlyStream(t *testing.T) {
	m, err := Decode(bytes.NewReader(testStream(0xff, 0x01)))
	require.NoError(t, err)

	assert.Equal(t, Header{Width: 0xff, Height: 0x01, Timestamp: testTimestamp}, m.Header)
	assert.Len(t, m.Pixels, 0)
	assert.False(t, m.Truncated())
}

func TestDecodeTruncated(t *testing.T) {
	full := testStream(7, 9)

	tables := []struct {
		name   string
		length int
		header Header
	}{
		{"width only", 1, Header{Width: 7}},
		{"width and height", 2, Header{Width: 7, Height: 9}},
		{"partial timestamp", 10, Header{Width: 7, Height: 9}},
		{"one byte short", HeaderSize - 1, Header{Width: 7, Height: 9}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			m, err := Decode(bytes.NewReader(full[:table.length]))
			require.NoError(t, err)
			assert.Equal(t, table.header, m.Header)
			assert.Len(t, m.Pixels, 0)
			assert.True(t, m.Truncated())
			assert.Equal(t, ErrTruncated, m.Validate())
		})
	}
}

func TestDecodeEveryByte(t *testing.T) {
	var pixels []byte
	for i := 0; i < 256; i++ {
		pixels = append(pixels, byte(i))
	}

	m, err := Decode(bytes.NewReader(testStream(16, 16, pixels...)))
	require.NoError(t, err)
	require.Len(t, m.Pixels, len(pixels))

	for i, b := range pixels {
		assert.Equal(t, b&0x80 != 0, m.Pixels[i].Sign, "byte %#02x", b)
		assert.Equal(t, float64(b&0x7f)/128.0, m.Pixels[i].Intensity, "byte %#02x", b)
		assert.Equal(t, b, m.Pixels[i].Byte())
	}
	assert.NoError(t, m.Validate())
}

func TestDecodeIgnoresDimensions(t *testing.T) {
	m, err := Decode(bytes.NewReader(testStream(1, 1, 1, 2, 3, 4, 5)))
	require.NoError(t, err)
	assert.Len(t, m.Pixels, 5)

	err = m.Validate()
	assert.True(t, errors.Is(err, ErrPixelCount))
	assert.Contains(t, err.Error(), "5 pixels for 1x1")
}

func TestDecodeLatin1Timestamp(t *testing.T) {
	b := []byte{1, 1}
	b = append(b, bytes.Repeat([]byte{0xe9}, TimestampSize)...)

	m, err := Decode(bytes.NewReader(b))
	require.NoError(t, err)

	assert.Equal(t, TimestampSize, len([]rune(m.Header.Timestamp)))
	for _, r := range m.Header.Timestamp {
		assert.Equal(t, 'é', r)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	b := testStream(3, 1, 0x00, 0x7f, 0xff)

	m1, err := Decode(bytes.NewReader(b))
	require.NoError(t, err)
	m2, err := Decode(bytes.NewReader(b))
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
}

func TestDecodeReaderError(t *testing.T) {
	errBoom := errors.New("boom")
	r := io.MultiReader(bytes.NewReader(testStream(2, 2, 0x01)), iotest.ErrReader(errBoom))

	m, err := Decode(r)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, errBoom))
	assert.Contains(t, err.Error(), "byte 28")
}

func TestDecodeOneByteReader(t *testing.T) {
	b := testStream(2, 1, 0x12, 0x92)

	m, err := Decode(iotest.OneByteReader(bytes.NewReader(b)))
	require.NoError(t, err)
	assert.Equal(t, uint8(2), m.Header.Width)
	assert.Len(t, m.Pixels, 2)
}

func TestDecodeHeader(t *testing.T) {
	r := bytes.NewReader(testStream(4, 5, 1, 2, 3))

	h, err := DecodeHeader(r)
	require.NoError(t, err)
	assert.Equal(t, Header{Width: 4, Height: 5, Timestamp: testTimestamp}, h)
	assert.Equal(t, 3, r.Len())

	h, err = DecodeHeader(bytes.NewReader([]byte{4}))
	require.NoError(t, err)
	assert.Equal(t, Header{Width: 4}, h)
}

func TestDecodeFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.maif")
	require.NoError(t, os.WriteFile(file, testStream(1, 2, 0x81, 0x02), 0o644))

	m, err := DecodeFile(file)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), m.Header.Width)
	assert.Equal(t, uint8(2), m.Header.Height)
	assert.NoError(t, m.Validate())

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.maif"))
	assert.True(t, os.IsNotExist(err))
}
