package canvasrenderer

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
)

func bodyFont() layout.FontSpec {
	return layout.FontSpec{Src: "embed:go-regular", Size: 36}
}

func TestSurfaceMeasuresInPixels(t *testing.T) {
	s, err := NewBackend().NewSurface(1080, 1440)
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	face, err := s.Face(bodyFont())
	if err != nil {
		t.Fatalf("Face error: %v", err)
	}
	short := face.TextWidth("hello")
	long := face.TextWidth("hello hello")
	if short <= 0 || long <= short {
		t.Fatalf("unexpected widths short=%g long=%g", short, long)
	}
	// 36px 字号下单个字母的宽度应在几十像素量级
	if w := face.TextWidth("M"); w < 10 || w > 60 {
		t.Fatalf("width of M at 36px = %g, expected pixel scale", w)
	}
}

// TestWrapWidthLimit 验证每个片段宽度不超过限制（像素）。
func TestWrapWidthLimit(t *testing.T) {
	s, err := NewBackend().NewSurface(1080, 1440)
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	face, err := s.Face(bodyFont())
	if err != nil {
		t.Fatalf("Face error: %v", err)
	}
	limit := 400.0
	content := strings.Repeat("lorem ipsum dolor sit amet ", 12)
	fragments := layout.Wrap(content, limit, face)
	if len(fragments) < 2 {
		t.Fatalf("expected wrapping, got %d fragments", len(fragments))
	}
	for i, f := range fragments {
		if w := face.TextWidth(f); w-limit > 1e-6 {
			t.Fatalf("fragment %d width exceeds limit: width=%g limit=%g", i, w, limit)
		}
	}
}

func TestFontFallback(t *testing.T) {
	s, err := NewBackend().NewSurface(100, 100)
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	face, err := s.Face(layout.FontSpec{Src: "/does/not/exist.ttf", Size: 20})
	if err != nil {
		t.Fatalf("expected fallback font, got error %v", err)
	}
	if face.TextWidth("abc") <= 0 {
		t.Fatal("fallback face measures zero")
	}
}

func TestFontFallbackIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s, err := NewBackendWithOptions(Options{Log: zap.New(core)}).NewSurface(100, 100)
	if err != nil {
		t.Fatalf("NewSurface error: %v", err)
	}
	spec := layout.FontSpec{Src: "/does/not/exist.ttf", Size: 20}
	for range 2 {
		if _, err := s.Face(spec); err != nil {
			t.Fatalf("expected fallback font, got error %v", err)
		}
	}
	entries := logs.FilterField(zap.String("src", "/does/not/exist.ttf")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one fallback warning, got %d", logs.Len())
	}
	if entries[0].ContextMap()["error"] == nil {
		t.Fatal("fallback warning must carry load error")
	}
	if _, err := s.Face(bodyFont()); err != nil || logs.Len() != 1 {
		t.Fatalf("embedded font must load without warning: %v", err)
	}
}

func TestInvalidSurface(t *testing.T) {
	if _, err := NewBackend().NewSurface(0, 10); err == nil {
		t.Fatal("expected error for empty canvas")
	}
}

func TestRenderCard(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.Background = layout.Color{R: 255, G: 255, B: 255}
	r := renderer.NewRasterizer(NewBackend(), cfg, renderer.Options{})
	page := layout.Page{
		Title:      "Title Line",
		Lines:      []string{"Title Line", "Body line one with a few words", "Body line two"},
		PageNumber: 1,
		TotalPages: 2,
	}
	img, err := r.Render(page)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 1080 || b.Dy() != 1440 {
		t.Fatalf("unexpected size %v", b)
	}
	if r, g, b, _ := decoded.At(2, 2).RGBA(); r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Fatalf("background not filled: %d %d %d", r>>8, g>>8, b>>8)
	}
	footer := img.Card.Items[len(img.Card.Items)-1]
	if footer.Role != layout.RoleFooter || footer.Text != "1/2" {
		t.Fatalf("unexpected footer %+v", footer)
	}
}

func TestParseFontStyle(t *testing.T) {
	cases := map[string]canvas.FontStyle{
		"":            canvas.FontRegular,
		"bold":        canvas.FontBold,
		"Bold Italic": canvas.FontBold | canvas.FontItalic,
		"semibold":    canvas.FontSemiBold,
		"light":       canvas.FontLight,
	}
	for in, want := range cases {
		if got := parseFontStyle(in); got != want {
			t.Errorf("parseFontStyle(%q) = %v, want %v", in, got, want)
		}
	}
}
