package layout

import "strings"

// Wrap 使用贪心算法把 text 折成不超过 maxWidth 的片段。
// 仅按单个空格切词；每个词连同其后的空格追加到当前片段，
// 超宽且当前片段非空时另起一段。单个超宽的词独占一段，不做拆分。
// 片段保留末尾空格。
func Wrap(text string, maxWidth float64, m Metrics) []string {
	var (
		fragments []string
		current   string
	)
	for _, word := range strings.Split(text, " ") {
		candidate := current + word + " "
		if m.TextWidth(candidate) > maxWidth && current != "" {
			fragments = append(fragments, current)
			current = word + " "
			continue
		}
		current = candidate
	}
	return append(fragments, current)
}
