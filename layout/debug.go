package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

type debugDump struct {
	Cards     []Card `json:"cards"`
	Truncated []int  `json:"truncated,omitempty"`
}

// WriteDebugJSON 把每页的排版结果（文本项坐标与截断标记）写成 JSON，
// 用于核对折行位置和底部截断。
func WriteDebugJSON(cards []Card, path string) error {
	if len(cards) == 0 {
		return nil
	}
	dump := debugDump{Cards: cards}
	for _, c := range cards {
		if c.Truncated {
			dump.Truncated = append(dump.Truncated, c.Page)
		}
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化布局失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入布局调试文件失败: %w", err)
	}
	return nil
}
