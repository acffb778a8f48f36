package share

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/config"
)

// ManifestEntry describes a single written card.
type ManifestEntry struct {
	Page      int    `json:"page"`
	File      string `json:"file"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Manifest is written next to the cards and lists them in page order.
type Manifest struct {
	BatchID    string          `json:"batch_id"`
	Document   string          `json:"document"`
	Label      string          `json:"label"`
	TotalPages int             `json:"total_pages"`
	Created    time.Time       `json:"created"`
	Cards      []ManifestEntry `json:"cards"`
	Skipped    []int           `json:"skipped,omitempty"`
}

// Manifest builds manifest for the result.
func (r *Result) Manifest() Manifest {
	m := Manifest{
		BatchID:    r.BatchID.String(),
		Document:   r.Document,
		Label:      r.Label,
		TotalPages: r.TotalPages,
		Created:    r.Created,
		Skipped:    r.Skipped,
	}
	for _, c := range r.Cards {
		m.Cards = append(m.Cards, ManifestEntry{
			Page:      c.Page.PageNumber,
			File:      c.FileName,
			Format:    c.Image.Format.String(),
			Width:     c.Image.Width,
			Height:    c.Image.Height,
			Truncated: c.Image.Card.Truncated,
		})
	}
	return m
}

// ManifestName returns file name of the manifest for the result.
func (r *Result) ManifestName() string {
	return config.CleanFileName(r.Document+"_"+r.Label) + ".json"
}

// Write stores every card in dir, one file per page, and optionally the
// manifest. It returns paths of written files in page order.
func Write(res *Result, dir string, withManifest bool, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create destination directory: %w", err)
	}

	written := make([]string, 0, len(res.Cards)+1)
	for _, c := range res.Cards {
		path := filepath.Join(dir, c.FileName)
		if err := os.WriteFile(path, c.Image.Data, 0o644); err != nil {
			return written, fmt.Errorf("unable to write card %d: %w", c.Page.PageNumber, err)
		}
		log.Debug("Card written", zap.Int("page", c.Page.PageNumber), zap.String("file", path))
		written = append(written, path)
	}

	if withManifest {
		data, err := json.MarshalIndent(res.Manifest(), "", "  ")
		if err != nil {
			return written, fmt.Errorf("unable to marshal manifest: %w", err)
		}
		path := filepath.Join(dir, res.ManifestName())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("unable to write manifest: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}
