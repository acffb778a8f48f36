// Package share drives card generation for a single document: pagination,
// sequential rendering with failure policy, naming and persistence.
package share

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/document"
	"github.com/OneeMe/obsidian-social-share/layout"
	"github.com/OneeMe/obsidian-social-share/renderer"
)

var (
	// ErrNoContent is returned when document has no non-blank lines.
	ErrNoContent = errors.New("nothing to share")
	// ErrUnnamed is returned when document name is empty, output files cannot be labeled.
	ErrUnnamed = errors.New("document has no name")
)

// FailurePolicy decides what happens when a page could not be rendered.
type FailurePolicy int

const (
	// PolicySkip leaves a gap for failed page and continues with the next one.
	PolicySkip FailurePolicy = iota
	// PolicyAbort stops on first failure.
	PolicyAbort
)

func (p FailurePolicy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

// ParseFailurePolicy converts name (skip, abort) to FailurePolicy.
func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicySkip, fmt.Errorf("unknown failure policy %q", name)
	}
}

// Renderer draws a single page.
type Renderer interface {
	Render(page layout.Page) (*renderer.Image, error)
}

// Options controls a share run.
type Options struct {
	Label             string // middle part of file names, "share" when empty
	LinesPerPage      int
	ContinuationTitle string
	NameTemplate      string // DefaultNameTemplate when empty
	Transliterate     bool
	Policy            FailurePolicy
	Log               *zap.Logger
}

// Card is a rendered page with its output file name.
type Card struct {
	Page     layout.Page
	Image    *renderer.Image
	FileName string
}

// Result is outcome of a share run. Cards are ordered by page number, pages
// which failed under PolicySkip are listed in Skipped and their errors are
// combined in Failed.
type Result struct {
	BatchID    uuid.UUID
	Document   string
	Label      string
	TotalPages int
	Cards      []Card
	Skipped    []int
	Failed     error
	Created    time.Time
}

// Run paginates document and renders pages one after another in ascending
// order. Cancellation is checked between pages only, so a canceled run never
// leaves a half drawn page behind.
func Run(ctx context.Context, doc *document.Document, r Renderer, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if doc == nil || strings.TrimSpace(doc.Name) == "" {
		return nil, ErrUnnamed
	}
	label := opts.Label
	if label == "" {
		label = DefaultLabel
	}

	pages := layout.Paginator{LinesPerPage: opts.LinesPerPage, ContinuationTitle: opts.ContinuationTitle}.Paginate(doc.Text)
	if len(pages) == 0 {
		return nil, ErrNoContent
	}

	batch, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate batch id: %w", err)
	}
	log = log.With(zap.Stringer("batch", batch))
	namer := Namer{Template: opts.NameTemplate, Transliterate: opts.Transliterate}

	res := &Result{
		BatchID:    batch,
		Document:   doc.Name,
		Label:      label,
		TotalPages: pages[0].TotalPages,
		Created:    time.Now(),
	}
	log.Debug("Sharing document", zap.String("name", doc.Name), zap.Int("pages", res.TotalPages), zap.Stringer("policy", opts.Policy))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := r.Render(page)
		if err != nil {
			if opts.Policy == PolicyAbort {
				return nil, err
			}
			log.Warn("Card skipped", zap.Int("page", page.PageNumber), zap.Error(err))
			res.Skipped = append(res.Skipped, page.PageNumber)
			res.Failed = multierr.Append(res.Failed, err)
			continue
		}
		res.Cards = append(res.Cards, Card{
			Page:     page,
			Image:    img,
			FileName: namer.Name(doc, label, page, img),
		})
	}
	log.Debug("Sharing done", zap.Int("rendered", len(res.Cards)), zap.Ints("skipped", res.Skipped))
	return res, nil
}

// Layouts returns planned layout of every rendered card.
func (r *Result) Layouts() []layout.Card {
	out := make([]layout.Card, 0, len(r.Cards))
	for _, c := range r.Cards {
		out = append(out, c.Image.Card)
	}
	return out
}
