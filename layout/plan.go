package layout

import (
	"fmt"

	"github.com/OneeMe/obsidian-social-share/binding"
)

// Plan 计算一页卡片的全部文本位置：标题、折行后的正文与页脚。
// 正文逐行向下排，游标越过底部边界后停止，本段剩余片段和后续所有行直接丢弃（Truncated=true）；
// 页脚始终输出。第 1 页中与标题完全相同的行不会重复绘制。
func Plan(page Page, cfg Config, m Measurer) (Card, error) {
	if err := cfg.Validate(); err != nil {
		return Card{}, err
	}
	card := Card{
		Page:       page.PageNumber,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Background: cfg.Background,
		Bottom:     cfg.Bottom(),
	}

	card.Items = append(card.Items, TextItem{
		Role:  RoleTitle,
		Text:  page.Title,
		X:     cfg.Margin,
		Y:     cfg.Margin + cfg.Title.Size,
		Font:  cfg.Title,
		Align: AlignLeft,
	})

	face, err := m.Face(cfg.Body)
	if err != nil {
		return Card{}, fmt.Errorf("加载正文字体失败: %w", err)
	}

	y := cfg.Margin + cfg.Title.Size + cfg.TitleGap
	maxWidth := cfg.MaxWidth()
body:
	for _, line := range page.Lines {
		if page.PageNumber == 1 && line == page.Title {
			continue
		}
		for _, fragment := range Wrap(line, maxWidth, face) {
			if y > card.Bottom {
				card.Truncated = true
				break body
			}
			card.Items = append(card.Items, TextItem{
				Role:  RoleBody,
				Text:  fragment,
				X:     cfg.Margin,
				Y:     y,
				Font:  cfg.Body,
				Align: AlignLeft,
			})
			y += cfg.LineHeight
		}
		y += cfg.ParagraphSpacing
	}

	card.Items = append(card.Items, TextItem{
		Role:  RoleFooter,
		Text:  FooterText(cfg.FooterFormat, page),
		X:     cfg.Width - cfg.Margin,
		Y:     cfg.Height - cfg.Margin,
		Font:  cfg.Footer,
		Align: AlignRight,
	})
	return card, nil
}

// FooterText 展开页脚模板，空模板时使用 "{页码}/{总页数}"。
func FooterText(format string, page Page) string {
	if format == "" {
		return fmt.Sprintf("%d/%d", page.PageNumber, page.TotalPages)
	}
	return binding.Interpolate(format, map[string]any{
		"page":  page.PageNumber,
		"total": page.TotalPages,
		"title": page.Title,
	})
}
