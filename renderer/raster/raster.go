// Package raster draws cards directly into an image using golang.org/x/image/font
// faces. It needs no vector pipeline and is the backend used when the canvas
// rasterizer is too heavy.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/OneeMe/obsidian-social-share/fonts"
	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
)

// FaceFunc resolves a font description into a face at the requested pixel size.
type FaceFunc func(spec layout.FontSpec) (font.Face, error)

// Options configures the raster backend.
type Options struct {
	Faces FaceFunc // nil selects OpenType faces loaded from embedded fonts or files
}

// Backend produces image-backed surfaces.
type Backend struct {
	faces FaceFunc

	mu     sync.Mutex
	parsed map[string]*opentype.Font
	cache  map[faceKey]font.Face
}

type faceKey struct {
	src  string
	size float64
}

var _ renderer.Backend = (*Backend)(nil)

// NewBackend creates a backend.
func NewBackend(opts Options) *Backend {
	b := &Backend{
		parsed: map[string]*opentype.Font{},
		cache:  map[faceKey]font.Face{},
	}
	b.faces = opts.Faces
	if b.faces == nil {
		b.faces = b.openTypeFace
	}
	return b
}

func (b *Backend) Name() string { return "raster" }

func (b *Backend) NewSurface(width, height int) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	img := imaging.New(width, height, color.NRGBA{})
	if img == nil {
		return nil, fmt.Errorf("unable to allocate %dx%d image", width, height)
	}
	return &surface{backend: b, img: img}, nil
}

// face returns cached face, faces are not safe for concurrent use so every
// access happens under the backend lock.
func (b *Backend) face(spec layout.FontSpec) (font.Face, error) {
	key := faceKey{src: spec.Src, size: spec.Size}
	if f, ok := b.cache[key]; ok {
		return f, nil
	}
	f, err := b.faces(spec)
	if err != nil {
		return nil, err
	}
	b.cache[key] = f
	return f, nil
}

func (b *Backend) openTypeFace(spec layout.FontSpec) (font.Face, error) {
	otf, ok := b.parsed[spec.Src]
	if !ok {
		var (
			data []byte
			err  error
		)
		if fonts.IsEmbedded(spec.Src) {
			data, err = fonts.Load(spec.Src)
		} else {
			data, err = os.ReadFile(spec.Src)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read font %s: %w", spec.Src, err)
		}
		if otf, err = opentype.Parse(data); err != nil {
			return nil, fmt.Errorf("unable to parse font %s: %w", spec.Src, err)
		}
		b.parsed[spec.Src] = otf
	}
	// at 72 DPI one point equals one pixel
	return opentype.NewFace(otf, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingNone})
}

type surface struct {
	backend *Backend
	img     *image.NRGBA
}

type faceMetrics struct {
	backend *Backend
	face    font.Face
}

func (m faceMetrics) TextWidth(text string) float64 {
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	return fromFixed(font.MeasureString(m.face, text))
}

func (s *surface) Face(spec layout.FontSpec) (layout.Metrics, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	f, err := s.backend.face(spec)
	if err != nil {
		return nil, err
	}
	return faceMetrics{backend: s.backend, face: f}, nil
}

func (s *surface) FillBackground(c layout.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(toNRGBA(c)), image.Point{}, draw.Src)
}

func (s *surface) DrawText(x, y float64, text string, spec layout.FontSpec, align layout.Align) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	f, err := s.backend.face(spec)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(toNRGBA(spec.Color)),
		Face: f,
	}
	switch align {
	case layout.AlignRight:
		x -= fromFixed(d.MeasureString(text))
	case layout.AlignCenter:
		x -= fromFixed(d.MeasureString(text)) / 2
	}
	d.Dot = fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
	d.DrawString(text)
	return nil
}

func (s *surface) Image() (image.Image, error) { return s.img, nil }

func toNRGBA(c layout.Color) color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }
