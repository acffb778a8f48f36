package renderer

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/layout"
)

// ErrSurfaceUnavailable 表示后端无法提供绘制表面，该页没有图片输出。
var ErrSurfaceUnavailable = errors.New("绘制表面不可用")

// Surface 是一次渲染独占的绘制表面，只暴露填充背景、测量文本与绘制文本三种能力。
// 坐标单位为像素，原点在左上角，y 为文本基线。
type Surface interface {
	layout.Measurer
	FillBackground(c layout.Color)
	DrawText(x, y float64, text string, font layout.FontSpec, align layout.Align) error
	Image() (image.Image, error)
}

// Backend 为每页创建新的 Surface。
type Backend interface {
	Name() string
	NewSurface(width, height int) (Surface, error)
}

// Image 是一页卡片的编码结果。
type Image struct {
	Data   []byte
	Format Format
	Width  int
	Height int
	Card   layout.Card
}

// Options configures the rasterizer.
type Options struct {
	Encode EncodeOptions
	Log    *zap.Logger
}

// Rasterizer 把 layout.Page 画成固定尺寸的图片。
type Rasterizer struct {
	backend Backend
	cfg     layout.Config
	encode  EncodeOptions
	log     *zap.Logger
}

// NewRasterizer creates a rasterizer drawing through backend with the given card layout.
func NewRasterizer(backend Backend, cfg layout.Config, opts Options) *Rasterizer {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Rasterizer{backend: backend, cfg: cfg, encode: opts.Encode, log: log}
}

// Render 获取新的绘制表面，完成布局、绘制与编码。
// 表面获取失败时返回包装了 ErrSurfaceUnavailable 的错误，由调用方决定跳过或中止。
func (r *Rasterizer) Render(page layout.Page) (*Image, error) {
	width, height := int(r.cfg.Width), int(r.cfg.Height)
	surface, err := r.backend.NewSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("第 %d 页: %w: %w", page.PageNumber, ErrSurfaceUnavailable, err)
	}
	if surface == nil {
		return nil, fmt.Errorf("第 %d 页: %w", page.PageNumber, ErrSurfaceUnavailable)
	}

	surface.FillBackground(r.cfg.Background)
	card, err := layout.Plan(page, r.cfg, surface)
	if err != nil {
		return nil, fmt.Errorf("第 %d 页布局失败: %w", page.PageNumber, err)
	}
	if err := Draw(surface, card); err != nil {
		return nil, fmt.Errorf("第 %d 页绘制失败: %w", page.PageNumber, err)
	}
	if card.Truncated {
		r.log.Debug("Card content truncated at bottom boundary", zap.Int("page", page.PageNumber), zap.Float64("bottom", card.Bottom))
	}

	img, err := surface.Image()
	if err != nil {
		return nil, fmt.Errorf("第 %d 页栅格化失败: %w", page.PageNumber, err)
	}
	data, err := Encode(img, r.encode)
	if err != nil {
		return nil, fmt.Errorf("第 %d 页编码失败: %w", page.PageNumber, err)
	}
	r.log.Debug("Card rendered",
		zap.String("backend", r.backend.Name()),
		zap.Int("page", page.PageNumber),
		zap.Int("total", page.TotalPages),
		zap.Int("items", len(card.Items)),
		zap.Int("bytes", len(data)))

	return &Image{
		Data:   data,
		Format: r.encode.Format,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Card:   card,
	}, nil
}

// Draw 按顺序把卡片中的文本项画到 surface 上。
func Draw(surface Surface, card layout.Card) error {
	for _, item := range card.Items {
		if err := surface.DrawText(item.X, item.Y, item.Text, item.Font, item.Align); err != nil {
			return fmt.Errorf("绘制 %s 文本失败: %w", item.Role, err)
		}
	}
	return nil
}
