package renderer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is the encoded raster type of a card.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
)

// FormatNames lists accepted format names.
func FormatNames() []string { return []string{"png", "jpeg"} }

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	default:
		return "png"
	}
}

// Ext returns file extension without dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// ParseFormat converts name (png, jpeg, jpg) to Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return FormatPNG, fmt.Errorf("unsupported image format %q (supported: %s)", name, strings.Join(FormatNames(), ", "))
	}
}

// EncodeOptions controls image encoding.
type EncodeOptions struct {
	Format      Format
	JPEGQuality int // 0 selects 90
	DPI         int // pixel density written into JPEG JFIF header, 0 selects 72
}

// Encode encodes img in requested format.
func Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch opts.Format {
	case FormatJPEG:
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 90
		}
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("unable to encode JPEG: %w", err)
		}
		dpi := opts.DPI
		if dpi <= 0 {
			dpi = 72
		}
		out, _, err := addDensity(buf.Bytes(), dpi)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
			return nil, fmt.Errorf("unable to encode PNG: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// densityPerInch is JFIF density unit for dots per inch.
const densityPerInch = 1

// addDensity inserts JFIF APP0 segment carrying dpi unless the stream already
// starts with one. Some share targets read print size only from there.
// Reports whether the segment was added.
func addDensity(jpegData []byte, dpi int) ([]byte, bool, error) {
	if len(jpegData) < 4 {
		return nil, false, errors.New("jpeg too small")
	}
	if jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, false, errors.New("not a jpeg")
	}
	if jpegData[2] == 0xFF && jpegData[3] == 0xE0 {
		return jpegData, false, nil
	}
	density := uint16(min(max(dpi, 1), 0xFFFF))

	buf := bytes.NewBuffer(make([]byte, 0, len(jpegData)+18))
	buf.Write(jpegData[:2])
	buf.Write([]byte{0xFF, 0xE0})
	_ = binary.Write(buf, binary.BigEndian, uint16(16))
	buf.Write([]byte{'J', 'F', 'I', 'F', 0x00, 0x01, 0x02, densityPerInch})
	_ = binary.Write(buf, binary.BigEndian, density)
	_ = binary.Write(buf, binary.BigEndian, density)
	buf.Write([]byte{0, 0}) // no thumbnail
	buf.Write(jpegData[2:])
	return buf.Bytes(), true, nil
}
