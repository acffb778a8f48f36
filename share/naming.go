package share

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"

	"github.com/OneeMe/obsidian-social-share/binding"
	"github.com/OneeMe/obsidian-social-share/config"
	"github.com/OneeMe/obsidian-social-share/document"
	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
)

const (
	DefaultLabel        = "share"
	DefaultNameTemplate = "${name}_${label}_${page}"
)

// FileName returns "{name}_{label}_{page}.{ext}", page is 1-based.
func FileName(name, label string, page int, ext string) string {
	return fmt.Sprintf("%s_%s_%d.%s", name, label, page, ext)
}

// Namer expands output name template for rendered cards.
type Namer struct {
	Template      string
	Transliterate bool
}

// Name returns file name with extension for rendered page. Extension is taken
// from actual image content and falls back to requested format.
func (n Namer) Name(doc *document.Document, label string, page layout.Page, img *renderer.Image) string {
	tmpl := n.Template
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultNameTemplate
	}
	data := map[string]any{
		"name":  doc.Name,
		"label": label,
		"page":  strconv.Itoa(page.PageNumber),
		"total": strconv.Itoa(page.TotalPages),
	}
	if doc.Meta != nil {
		data["meta"] = doc.Meta
	}
	base := binding.Interpolate(tmpl, data)
	if n.Transliterate {
		base = makeSlug(base)
	}
	return config.CleanFileName(base) + "." + imageExt(img)
}

// slug 的大小写开关是包级变量，这里临时关闭并恢复调用方原来的设置
var slugMu sync.Mutex

func makeSlug(s string) string {
	slugMu.Lock()
	defer slugMu.Unlock()

	prev := slug.Lowercase
	slug.Lowercase = false
	defer func() { slug.Lowercase = prev }()
	return slug.Make(s)
}

func imageExt(img *renderer.Image) string {
	if img == nil {
		return renderer.FormatPNG.Ext()
	}
	if kind, err := filetype.Match(img.Data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	return img.Format.Ext()
}
