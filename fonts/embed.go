package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Default 是未指定字体来源时使用的内置字体。
const Default = "go-regular"

var builtin = map[string][]byte{
	"go-regular": goregular.TTF,
	"go-bold":    gobold.TTF,
	"go-medium":  gomedium.TTF,
	"go-italic":  goitalic.TTF,
	"go-mono":    gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-bold" 或直接 "go-bold"。
func Load(name string) ([]byte, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	if clean == "" {
		clean = Default
	}
	data, ok := builtin[clean]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在（可用：%s）", clean, strings.Join(Names(), ", "))
	}
	return data, nil
}

// IsEmbedded 判断 src 是否指向内置字体。
func IsEmbedded(src string) bool {
	return src == "" || strings.HasPrefix(src, "embed:")
}

// Names 列出全部内置字体名。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
