package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/OneeMe/obsidian-social-share/layout"
)

// recordingSurface 记录所有绘制调用，仅用于测试。
type recordingSurface struct {
	w, h     int
	calls    []string
	failDraw bool
}

func (s *recordingSurface) Face(layout.FontSpec) (layout.Metrics, error) {
	return layout.MetricsFunc(func(text string) float64 {
		return float64(utf8.RuneCountInString(text)) * 20
	}), nil
}

func (s *recordingSurface) FillBackground(c layout.Color) {
	s.calls = append(s.calls, "fill "+c.Hex())
}

func (s *recordingSurface) DrawText(x, y float64, text string, font layout.FontSpec, align layout.Align) error {
	if s.failDraw {
		return errors.New("draw failed")
	}
	s.calls = append(s.calls, fmt.Sprintf("text %s %g %g %q", align, x, y, text))
	return nil
}

func (s *recordingSurface) Image() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, s.w, s.h)), nil
}

type stubBackend struct {
	surfaces []*recordingSurface
	err      error
	failDraw bool
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) NewSurface(w, h int) (Surface, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := &recordingSurface{w: w, h: h, failDraw: b.failDraw}
	b.surfaces = append(b.surfaces, s)
	return s, nil
}

func smallConfig() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.Width, cfg.Height = 108, 144
	cfg.Margin = 6
	cfg.Title.Size, cfg.Body.Size, cfg.Footer.Size = 10, 8, 6
	cfg.LineHeight = 10
	cfg.ParagraphSpacing = 2
	cfg.TitleGap = 6
	cfg.BottomOffset = 10
	return cfg
}

func TestRenderDrawOrder(t *testing.T) {
	backend := &stubBackend{}
	r := NewRasterizer(backend, smallConfig(), Options{})
	page := layout.Page{Title: "T", Lines: []string{"T", "ab"}, PageNumber: 1, TotalPages: 2}

	img, err := r.Render(page)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if img.Width != 108 || img.Height != 144 || img.Format != FormatPNG {
		t.Fatalf("unexpected image %dx%d %s", img.Width, img.Height, img.Format)
	}
	if len(backend.surfaces) != 1 {
		t.Fatalf("expected one fresh surface, got %d", len(backend.surfaces))
	}
	calls := backend.surfaces[0].calls
	want := []string{
		"fill #FFFFFF",
		`text left 6 16 "T"`,
		`text left 6 22 "ab "`,
		`text right 102 138 "1/2"`,
	}
	if strings.Join(calls, "\n") != strings.Join(want, "\n") {
		t.Fatalf("draw calls:\n%s\nwant:\n%s", strings.Join(calls, "\n"), strings.Join(want, "\n"))
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
}

func TestRenderSurfaceUnavailable(t *testing.T) {
	backend := &stubBackend{err: errors.New("out of memory")}
	r := NewRasterizer(backend, smallConfig(), Options{})
	img, err := r.Render(layout.Page{Title: "T", Lines: []string{"x"}, PageNumber: 3, TotalPages: 3})
	if img != nil {
		t.Fatal("expected no image")
	}
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("backend cause lost: %v", err)
	}
}

func TestRenderDrawFailure(t *testing.T) {
	r := NewRasterizer(&stubBackend{failDraw: true}, smallConfig(), Options{})
	if _, err := r.Render(layout.Page{Title: "T", Lines: []string{"x"}, PageNumber: 1, TotalPages: 1}); err == nil {
		t.Fatal("expected draw error")
	}
}

func TestRenderJPEG(t *testing.T) {
	r := NewRasterizer(&stubBackend{}, smallConfig(), Options{Encode: EncodeOptions{Format: FormatJPEG, JPEGQuality: 80, DPI: 144}})
	img, err := r.Render(layout.Page{Title: "T", Lines: []string{"x"}, PageNumber: 1, TotalPages: 1})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !bytes.Equal(img.Data[2:4], []byte{0xFF, 0xE0}) {
		t.Fatal("expected JFIF APP0 marker")
	}
	decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 108 {
		t.Fatalf("decoded width %d", decoded.Bounds().Dx())
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatal("expected error for gif")
	}
	if FormatJPEG.Ext() != "jpg" || FormatPNG.Ext() != "png" {
		t.Fatal("unexpected extensions")
	}
}

func TestAddDensity(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04}
	out, added, err := addDensity(data, 300)
	if err != nil || !added {
		t.Fatalf("expected marker to be added, err=%v", err)
	}
	if !bytes.Equal(out[2:4], []byte{0xFF, 0xE0}) || len(out) != len(data)+18 {
		t.Fatalf("unexpected output % X", out)
	}
	// unit byte and both densities follow "JFIF\0" and version
	if out[13] != densityPerInch || !bytes.Equal(out[14:18], []byte{0x01, 0x2C, 0x01, 0x2C}) {
		t.Fatalf("unexpected density fields % X", out[11:20])
	}
	again, added, err := addDensity(out, 300)
	if err != nil || added || !bytes.Equal(again, out) {
		t.Fatal("marker must not be inserted twice")
	}
	if _, _, err := addDensity([]byte{0x00, 0x01, 0x02, 0x03}, 1); err == nil {
		t.Fatal("expected error for non-jpeg")
	}
	big, _, err := addDensity(data, 70000)
	if err != nil || !bytes.Equal(big[14:18], []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Fatalf("density must be clamped, got % X (%v)", big[14:18], err)
	}
}

func TestEncodeJPEGDensity(t *testing.T) {
	data, err := Encode(image.NewNRGBA(image.Rect(0, 0, 8, 8)), EncodeOptions{Format: FormatJPEG, DPI: 144})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) || string(data[6:10]) != "JFIF" {
		t.Fatalf("JFIF segment missing: % X", data[:20])
	}
	if data[13] != densityPerInch || !bytes.Equal(data[14:18], []byte{0x00, 0x90, 0x00, 0x90}) {
		t.Fatalf("unexpected density fields % X", data[11:20])
	}
}
