package layout

import "strings"

const (
	// DefaultLinesPerPage 是每页默认容纳的非空行数。
	DefaultLinesPerPage = 12
	// DefaultContinuationTitle 是第 2 页起使用的标题。
	DefaultContinuationTitle = "continued"
)

// Paginator 把文本按非空行切分为固定容量的页面。
type Paginator struct {
	LinesPerPage      int
	ContinuationTitle string
}

// Paginate 使用默认续页标题分页。
func Paginate(text string, linesPerPage int) []Page {
	return Paginator{LinesPerPage: linesPerPage}.Paginate(text)
}

// Paginate 按行拆分 text，丢弃空白行后每 LinesPerPage 行成一页。
// 第 1 页标题为首个非空行（该行仍保留在 Lines 中），其余页使用续页标题。
// 没有非空行时返回 nil。
func (p Paginator) Paginate(text string) []Page {
	perPage := p.LinesPerPage
	if perPage <= 0 {
		perPage = DefaultLinesPerPage
	}
	continuation := p.ContinuationTitle
	if continuation == "" {
		continuation = DefaultContinuationTitle
	}

	lines := NonBlankLines(text)
	if len(lines) == 0 {
		return nil
	}
	total := (len(lines) + perPage - 1) / perPage

	pages := make([]Page, 0, total)
	var current []string
	for i, line := range lines {
		current = append(current, line)
		if len(current) < perPage && i != len(lines)-1 {
			continue
		}
		title := continuation
		if len(pages) == 0 {
			title = lines[0]
		}
		pages = append(pages, Page{
			Title:      title,
			Lines:      current,
			PageNumber: len(pages) + 1,
			TotalPages: total,
		})
		current = nil
	}
	return pages
}

// NonBlankLines 按换行拆分文本并去掉空行与纯空白行，保留其余行原样（仅去掉行尾 \r）。
func NonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
