package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/fonts"
	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
)

// Backend draws cards via github.com/tdewolff/canvas and rasterizes them at 1px per canvas unit.
type Backend struct {
	// injected resources
	fontBlobs map[string][]byte // by src
	log       *zap.Logger

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var _ renderer.Backend = (*Backend)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas backend.
type Options struct {
	Fonts map[string][]byte // font bytes keyed by FontSpec.Src, checked before embed/path lookup
	Log   *zap.Logger       // receives font fallback warnings, may be nil
}

// NewBackend creates a canvas backend with default options.
func NewBackend() *Backend { return NewBackendWithOptions(Options{}) }

// NewBackendWithOptions creates a backend with injected font resources.
func NewBackendWithOptions(opts Options) *Backend {
	b := &Backend{
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
		log:          opts.Log,
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	for src, data := range opts.Fonts {
		if src == "" || len(data) == 0 {
			continue
		}
		b.fontBlobs[src] = data
	}
	return b
}

func (b *Backend) Name() string { return "canvas" }

// NewSurface 创建新的画布，坐标系为左上角原点（CartesianIV），1 单位 = 1 像素。
func (b *Backend) NewSurface(width, height int) (renderer.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", width, height)
	}
	c := canvas.New(float64(width), float64(height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	return &surface{backend: b, canvas: c, ctx: ctx, width: float64(width), height: float64(height)}, nil
}

type surface struct {
	backend       *Backend
	canvas        *canvas.Canvas
	ctx           *canvas.Context
	width, height float64
}

// Face 返回字体面；*canvas.FontFace 的 TextWidth 以画布单位（像素）计宽。
func (s *surface) Face(font layout.FontSpec) (layout.Metrics, error) {
	face, err := s.backend.fontFace(font)
	if err != nil {
		return nil, err
	}
	return face, nil
}

func (s *surface) FillBackground(c layout.Color) {
	s.ctx.Push()
	s.ctx.SetFillColor(colorFromLayout(c))
	s.ctx.SetStrokeColor(canvas.Transparent)
	s.ctx.DrawPath(0, 0, canvas.Rectangle(s.width, s.height))
	s.ctx.Pop()
}

func (s *surface) DrawText(x, y float64, text string, font layout.FontSpec, align layout.Align) error {
	face, err := s.backend.fontFace(font)
	if err != nil {
		return err
	}
	var textAlign canvas.TextAlign
	switch align {
	case layout.AlignCenter:
		textAlign = canvas.Center
	case layout.AlignRight:
		textAlign = canvas.Right
	default:
		textAlign = canvas.Left
	}
	// y 为基线位置
	s.ctx.DrawText(x, y, canvas.NewTextLine(face, text, textAlign))
	return nil
}

func (s *surface) Image() (image.Image, error) {
	img := rasterizer.Draw(s.canvas, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	if img == nil {
		return nil, fmt.Errorf("栅格化结果为空")
	}
	return img, nil
}

// fontFace 按像素字号创建字体面。canvas 以 pt 为字号单位，1 单位 = 1mm，
// 因此像素字号需要做一次 mm→pt 换算。
func (b *Backend) fontFace(font layout.FontSpec) (*canvas.FontFace, error) {
	family, style, err := b.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(font.Size), colorFromLayout(font.Color), style, canvas.FontNormal), nil
}

func (b *Backend) ensureFontFamily(font layout.FontSpec) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	b.fontMu.Lock()
	defer b.fontMu.Unlock()

	if entry, ok := b.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	family := canvas.NewFontFamily(key)
	if err := b.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := b.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		// 每个字体只提示一次，之后直接命中缓存
		b.log.Warn("Unable to load font, using embedded go-regular", zap.String("src", font.Src), zap.Error(err))
		b.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	b.fontFamilies[key] = entry
	return family, style, nil
}

func (b *Backend) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontSpec, style canvas.FontStyle) error {
	data, err := b.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (b *Backend) loadFontBytes(font layout.FontSpec) ([]byte, error) {
	if blob, ok := b.fontBlobs[font.Src]; ok {
		return blob, nil
	}
	if fonts.IsEmbedded(font.Src) {
		return fonts.Load(font.Src)
	}
	data, err := os.ReadFile(font.Src)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", font.Src, err)
	}
	return data, nil
}

func (b *Backend) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if b.fallbackFamily != nil {
		return b.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("share-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	b.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontSpec) string {
	return fmt.Sprintf("%s|%s", font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将像素（即画布毫米单位）转换为点(pt)。
func toPt(px float64) float64 { return px * layout.MmToPt }
