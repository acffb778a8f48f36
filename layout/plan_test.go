package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// stubMeasurer 是最小的度量实现，仅用于测试，避免引入渲染后端。
type stubMeasurer struct {
	err   error
	fonts []FontSpec
}

func (s *stubMeasurer) Face(font FontSpec) (Metrics, error) {
	s.fonts = append(s.fonts, font)
	if s.err != nil {
		return nil, s.err
	}
	return runeMetrics, nil
}

func itemsOf(card Card, role Role) []TextItem {
	var out []TextItem
	for _, it := range card.Items {
		if it.Role == role {
			out = append(out, it)
		}
	}
	return out
}

func TestPlanSkipsTitleOnFirstPage(t *testing.T) {
	page := Page{
		Title:      "Hello",
		Lines:      []string{"Hello", "world", "Hello"},
		PageNumber: 1,
		TotalPages: 1,
	}
	card, err := Plan(page, DefaultConfig(), &stubMeasurer{})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	body := itemsOf(card, RoleBody)
	if len(body) != 1 || body[0].Text != "world " {
		t.Fatalf("expected only 'world' in body, got %+v", body)
	}
	title := itemsOf(card, RoleTitle)
	if len(title) != 1 || title[0].Text != "Hello" {
		t.Fatalf("unexpected title items %+v", title)
	}
}

func TestPlanKeepsTitleTextOnLaterPages(t *testing.T) {
	page := Page{Title: "continued", Lines: []string{"continued", "x"}, PageNumber: 2, TotalPages: 2}
	card, err := Plan(page, DefaultConfig(), &stubMeasurer{})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if body := itemsOf(card, RoleBody); len(body) != 2 {
		t.Fatalf("expected 2 body items on page 2, got %d", len(body))
	}
}

func TestPlanTruncatesAtBottom(t *testing.T) {
	cfg := DefaultConfig()
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	page := Page{Title: "continued", Lines: lines, PageNumber: 2, TotalPages: 3}
	card, err := Plan(page, cfg, &stubMeasurer{})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if !card.Truncated {
		t.Fatal("expected truncated card")
	}
	body := itemsOf(card, RoleBody)
	// 首行基线 176，每行 50+20，底部边界 1340
	if len(body) != 17 {
		t.Fatalf("expected 17 body lines, got %d", len(body))
	}
	for _, it := range body {
		if it.Y > card.Bottom {
			t.Fatalf("body item %q drawn below boundary at %g", it.Text, it.Y)
		}
	}
	last := card.Items[len(card.Items)-1]
	if last.Role != RoleFooter || last.Text != "2/3" || last.Align != AlignRight {
		t.Fatalf("footer missing or wrong: %+v", last)
	}
	if last.X != cfg.Width-cfg.Margin || last.Y != cfg.Height-cfg.Margin {
		t.Fatalf("footer position = (%g,%g)", last.X, last.Y)
	}
}

func TestPlanTruncatesMidParagraph(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Height = 400 // 底部边界 300，正文从 176 开始
	long := strings.Repeat("word ", 200)
	page := Page{Title: "T", Lines: []string{long, "never drawn"}, PageNumber: 2, TotalPages: 2}
	card, err := Plan(page, cfg, &stubMeasurer{})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	body := itemsOf(card, RoleBody)
	// 176, 226, 276 可绘制，326 超界
	if len(body) != 3 || !card.Truncated {
		t.Fatalf("expected 3 fragments and truncation, got %d truncated=%v", len(body), card.Truncated)
	}
	for _, it := range body {
		if strings.Contains(it.Text, "never") {
			t.Fatal("content after truncation was drawn")
		}
	}
	if len(itemsOf(card, RoleFooter)) != 1 {
		t.Fatal("footer must be drawn even when truncated")
	}
}

func TestPlanParagraphSpacing(t *testing.T) {
	cfg := DefaultConfig()
	page := Page{Title: "T", Lines: []string{"a", "b"}, PageNumber: 2, TotalPages: 2}
	card, err := Plan(page, cfg, &stubMeasurer{})
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	body := itemsOf(card, RoleBody)
	if len(body) != 2 {
		t.Fatalf("expected 2 body items, got %d", len(body))
	}
	if gap := body[1].Y - body[0].Y; gap != cfg.LineHeight+cfg.ParagraphSpacing {
		t.Fatalf("gap between paragraphs = %g", gap)
	}
}

func TestPlanMeasurerError(t *testing.T) {
	boom := errors.New("no font")
	_, err := Plan(Page{Title: "T", Lines: []string{"a"}, PageNumber: 1, TotalPages: 1}, DefaultConfig(), &stubMeasurer{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped measurer error, got %v", err)
	}
}

func TestPlanInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Margin = 600
	if _, err := Plan(Page{Title: "T", Lines: []string{"a"}, PageNumber: 1, TotalPages: 1}, cfg, &stubMeasurer{}); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestFooterText(t *testing.T) {
	page := Page{PageNumber: 3, TotalPages: 7, Title: "x"}
	if got := FooterText("", page); got != "3/7" {
		t.Fatalf("default footer = %q", got)
	}
	if got := FooterText("第 ${page} 页 / 共 ${total} 页", page); got != "第 3 页 / 共 7 页" {
		t.Fatalf("templated footer = %q", got)
	}
}
