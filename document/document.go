// Package document turns a note file into text ready for pagination: front
// matter is removed and parsed, text is normalized and the display name used
// for output files is derived.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/unicode/norm"
	yaml "gopkg.in/yaml.v3"
)

// frontMatter matches only the first block and only at the very start of text.
var frontMatter = regexp.MustCompile(`\A---\r?\n([\s\S]*?)\r?\n---\r?\n`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a note prepared for sharing.
type Document struct {
	Name string         // display name, used only for output file naming
	Text string         // body without front matter, NFC normalized
	Meta map[string]any // parsed front matter, nil when absent or malformed
}

// StripFrontMatter removes leading metadata block delimited by "---" lines.
// It returns remaining text and the content of removed block (without
// delimiters). Text without front matter is returned unchanged.
func StripFrontMatter(text string) (body, block string) {
	loc := frontMatter.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[loc[1]:], text[loc[2]:loc[3]]
}

// Prepare strips front matter from raw text and decodes it. Metadata which is
// not a YAML mapping is reported and ignored, stripping happens regardless.
func Prepare(name, raw string, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	body, block := StripFrontMatter(raw)
	doc := &Document{
		Name: norm.NFC.String(strings.TrimSpace(name)),
		Text: norm.NFC.String(body),
	}
	if len(block) == 0 {
		return doc
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		log.Warn("Unable to parse front matter, ignoring", zap.String("name", doc.Name), zap.Error(err))
		return doc
	}
	doc.Meta = meta
	return doc
}

// Load reads note from file. Name is derived from file name without extension.
// When cp is not nil file content which is not valid UTF-8 is decoded from that
// code page.
func Load(path string, cp encoding.Encoding, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if cp != nil && !utf8.Valid(data) {
		if data, err = cp.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("unable to decode document '%s': %w", path, err)
		}
		log.Debug("Document decoded from code page", zap.String("file", path))
	}
	return Prepare(Name(path), string(data), log), nil
}

// Name returns display name of the document stored at path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
