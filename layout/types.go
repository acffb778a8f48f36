package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// 该文件定义分页结果、卡片版式配置与布局结果，供分页、布局、渲染与调试 JSON 共用。

// Page 是分页后的一页卡片内容，构造后不再修改。
type Page struct {
	Title      string   `json:"title"`
	Lines      []string `json:"lines"`
	PageNumber int      `json:"pageNumber"`
	TotalPages int      `json:"totalPages"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ParseColor 解析 #RGB / #RRGGBB 形式的颜色。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) == 8 {
		// alpha 通道忽略
		v = v[:6]
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("无效颜色 %q", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("无效颜色 %q: %w", value, err)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

// Hex 返回 #RRGGBB 表示。
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// FontSpec 描述一种字体用法：来源、像素字号、颜色与字重样式。
// Src 可以是 "embed:go-bold" 形式的内置字体或字体文件路径。
type FontSpec struct {
	Src   string  `json:"src"`
	Size  float64 `json:"size"`
	Color Color   `json:"color"`
	Style string  `json:"style,omitempty"`
}

// Align 是文本水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Config 是卡片版式常量，所有长度单位为像素。
type Config struct {
	Width            float64  `json:"width"`
	Height           float64  `json:"height"`
	Margin           float64  `json:"margin"`
	Background       Color    `json:"background"`
	Title            FontSpec `json:"title"`
	Body             FontSpec `json:"body"`
	Footer           FontSpec `json:"footer"`
	LineHeight       float64  `json:"lineHeight"`
	ParagraphSpacing float64  `json:"paragraphSpacing"`
	TitleGap         float64  `json:"titleGap"`     // 标题基线与正文首行基线的距离
	BottomOffset     float64  `json:"bottomOffset"` // 正文底部边界距画布底边的距离
	FooterFormat     string   `json:"footerFormat"` // 支持 ${page} 与 ${total}
}

// DefaultConfig 返回 1080×1440 的默认卡片版式。
func DefaultConfig() Config {
	return Config{
		Width:            1080,
		Height:           1440,
		Margin:           60,
		Background:       Color{R: 255, G: 255, B: 255},
		Title:            FontSpec{Src: "embed:go-bold", Size: 56, Color: Color{R: 34, G: 34, B: 34}, Style: "bold"},
		Body:             FontSpec{Src: "embed:go-regular", Size: 36, Color: Color{R: 51, G: 51, B: 51}},
		Footer:           FontSpec{Src: "embed:go-regular", Size: 28, Color: Color{R: 136, G: 136, B: 136}},
		LineHeight:       50,
		ParagraphSpacing: 20,
		TitleGap:         60,
		BottomOffset:     100,
		FooterFormat:     "${page}/${total}",
	}
}

// Bottom 返回正文底部边界（像素）。
func (c Config) Bottom() float64 { return c.Height - c.BottomOffset }

// MaxWidth 返回正文可用宽度。
func (c Config) MaxWidth() float64 { return c.Width - 2*c.Margin }

// Validate 检查版式常量是否可用于绘制。
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("画布尺寸无效: %gx%g", c.Width, c.Height)
	case c.MaxWidth() <= 0:
		return fmt.Errorf("边距 %g 超出画布宽度 %g", c.Margin, c.Width)
	case c.LineHeight <= 0:
		return fmt.Errorf("行高必须为正数: %g", c.LineHeight)
	case c.Title.Size <= 0 || c.Body.Size <= 0 || c.Footer.Size <= 0:
		return fmt.Errorf("字号必须为正数")
	}
	return nil
}

// Card 是一页卡片的布局结果：按绘制顺序排列的文本项。
type Card struct {
	Page       int        `json:"page"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Background Color      `json:"background"`
	Bottom     float64    `json:"bottom"`
	Items      []TextItem `json:"items"`
	Truncated  bool       `json:"truncated"`
}

// Role 标记文本项在卡片中的位置。
type Role string

const (
	RoleTitle  Role = "title"
	RoleBody   Role = "body"
	RoleFooter Role = "footer"
)

// TextItem 是一个已经定位的单行文本，Y 为基线坐标。
type TextItem struct {
	Role  Role     `json:"role"`
	Text  string   `json:"text"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Font  FontSpec `json:"font"`
	Align Align    `json:"align"`
}
