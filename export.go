package maif

import (
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
	"github.com/ljp-projects/maif/image"
	"gopkg.in/yaml.v3"
)

// Format is an export document format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
	FormatCBOR
)

var formatNames = map[Format]string{
	FormatText: "text",
	FormatJSON: "json",
	FormatYAML: "yaml",
	FormatCBOR: "cbor",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format with the given name
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("maif: unknown format %q", s)
}

type pixelDocument struct {
	Sign      bool    `json:"sign" yaml:"sign" cbor:"sign"`
	Intensity float64 `json:"intensity" yaml:"intensity" cbor:"intensity"`
}

type document struct {
	Width     uint8           `json:"width" yaml:"width" cbor:"width"`
	Height    uint8           `json:"height" yaml:"height" cbor:"height"`
	Timestamp string          `json:"timestamp" yaml:"timestamp" cbor:"timestamp"`
	Truncated bool            `json:"truncated" yaml:"truncated" cbor:"truncated"`
	Pixels    []pixelDocument `json:"pixels" yaml:"pixels" cbor:"pixels"`
}

func newDocument(m *image.Image) document {
	d := document{
		Width:     m.Header.Width,
		Height:    m.Header.Height,
		Timestamp: m.Header.Timestamp,
		Truncated: m.Truncated(),
		Pixels:    make([]pixelDocument, len(m.Pixels)),
	}
	for i, p := range m.Pixels {
		d.Pixels[i] = pixelDocument(p)
	}
	return d
}

// Export writes m to w in the given format. The text format is a short
// summary without the pixels.
func Export(w io.Writer, m *image.Image, f Format) error {
	switch f {
	case FormatText:
		_, err := fmt.Fprintf(w, "width: %d\nheight: %d\ntimestamp: %q\npixels: %d\ntruncated: %t\n",
			m.Header.Width, m.Header.Height, m.Header.Timestamp, len(m.Pixels), m.Truncated())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(m))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(m)); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(newDocument(m))
	default:
		return fmt.Errorf("maif: unsupported format %s", f)
	}
}
