package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OneeMe/obsidian-social-share/dsl"
	"github.com/OneeMe/obsidian-social-share/fonts"
)

// LoadConfigFile 读取 .card 版式文件并叠加到默认版式上。
// 相对路径的字体按版式文件所在目录解析。
func LoadConfigFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("无法打开版式文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return Config{}, fmt.Errorf("解析版式文件 %s 失败: %w", path, err)
	}
	return BuildConfig(doc, DefaultConfig(), filepath.Dir(path))
}

// BuildConfig 把解析后的版式文件应用到 base 上，未出现的字段保持 base 的值。
func BuildConfig(doc *dsl.Document, base Config, baseDir string) (Config, error) {
	if doc == nil {
		return base, nil
	}
	cfg := base
	var lineHeight *LineHeightSpec

	for _, section := range doc.Sections {
		var err error
		switch section.Kind {
		case "canvas":
			err = applyCanvas(&cfg, section)
		case "font":
			err = applyFont(&cfg, section, baseDir)
		case "spacing":
			lineHeight, err = applySpacing(&cfg, section)
		case "footer":
			err = applyFooter(&cfg, section)
		default:
			err = fmt.Errorf("第 %d 行: 未知的段落 %q", section.Pos.Line, section.Kind)
		}
		if err != nil {
			return Config{}, err
		}
	}

	// 倍数行高依赖最终的正文字号，因此最后解析
	if lineHeight != nil {
		cfg.LineHeight = lineHeight.Resolve(cfg.Body.Size)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("版式无效: %w", err)
	}
	return cfg, nil
}

func applyCanvas(cfg *Config, section *dsl.Section) error {
	for _, a := range section.Block.Assignments {
		var err error
		switch a.Key {
		case "width":
			cfg.Width, err = parsePx(a)
		case "height":
			cfg.Height, err = parsePx(a)
		case "margin":
			cfg.Margin, err = parsePx(a)
		case "background":
			cfg.Background, err = parseColorValue(a)
		default:
			err = unknownKey(section, a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyFont(cfg *Config, section *dsl.Section, baseDir string) error {
	var target *FontSpec
	switch section.Label {
	case "title":
		target = &cfg.Title
	case "body":
		target = &cfg.Body
	case "footer":
		target = &cfg.Footer
	default:
		return fmt.Errorf("第 %d 行: 字体只能是 title/body/footer，实际为 %q", section.Pos.Line, section.Label)
	}
	for _, a := range section.Block.Assignments {
		var err error
		switch a.Key {
		case "src":
			target.Src = resolveFontSrc(a.Value.Raw(), baseDir)
		case "size":
			target.Size, err = parsePx(a)
		case "color":
			target.Color, err = parseColorValue(a)
		case "style":
			target.Style = a.Value.Raw()
		default:
			err = unknownKey(section, a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applySpacing(cfg *Config, section *dsl.Section) (*LineHeightSpec, error) {
	var lineHeight *LineHeightSpec
	for _, a := range section.Block.Assignments {
		var err error
		switch a.Key {
		case "line-height":
			spec, ok := ParseLineHeight(a.Value.Raw())
			if !ok {
				err = fmt.Errorf("第 %d 行: 无效行高 %q", a.Pos.Line, a.Value.Raw())
			}
			lineHeight = &spec
		case "paragraph":
			cfg.ParagraphSpacing, err = parsePx(a)
		case "title-gap":
			cfg.TitleGap, err = parsePx(a)
		case "bottom":
			cfg.BottomOffset, err = parsePx(a)
		default:
			err = unknownKey(section, a)
		}
		if err != nil {
			return nil, err
		}
	}
	return lineHeight, nil
}

func applyFooter(cfg *Config, section *dsl.Section) error {
	for _, a := range section.Block.Assignments {
		switch a.Key {
		case "format":
			cfg.FooterFormat = a.Value.Raw()
		default:
			return unknownKey(section, a)
		}
	}
	return nil
}

func resolveFontSrc(src, baseDir string) string {
	if fonts.IsEmbedded(src) || filepath.IsAbs(src) || baseDir == "" {
		return src
	}
	return filepath.Join(baseDir, src)
}

func parsePx(a *dsl.Assignment) (float64, error) {
	l, ok := ParseLength(a.Value.Raw())
	if !ok {
		return 0, fmt.Errorf("第 %d 行: %s 需要长度值，实际为 %q", a.Pos.Line, a.Key, a.Value.Raw())
	}
	return l.Px(), nil
}

func parseColorValue(a *dsl.Assignment) (Color, error) {
	c, err := ParseColor(a.Value.Raw())
	if err != nil {
		return Color{}, fmt.Errorf("第 %d 行: %w", a.Pos.Line, err)
	}
	return c, nil
}

func unknownKey(section *dsl.Section, a *dsl.Assignment) error {
	name := section.Kind
	if section.Label != "" {
		name = strings.Join([]string{section.Kind, section.Label}, " ")
	}
	return fmt.Errorf("第 %d 行: %s 不支持属性 %q", a.Pos.Line, name, a.Key)
}
