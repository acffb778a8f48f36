package share

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"github.com/OneeMe/obsidian-social-share/layout"
)

// SheetOptions controls contact sheet geometry.
type SheetOptions struct {
	Columns    int // 3 when not positive
	ThumbWidth int // 270 when not positive
	Gap        int
	Background layout.Color
}

func (o SheetOptions) normalize() SheetOptions {
	if o.Columns <= 0 {
		o.Columns = 3
	}
	if o.ThumbWidth <= 0 {
		o.ThumbWidth = 270
	}
	if o.Gap < 0 {
		o.Gap = 0
	}
	return o
}

// Sheet places thumbnails of cards into a grid, left to right and top to
// bottom. Row height is the tallest thumbnail in that row.
func Sheet(cards []image.Image, opts SheetOptions) (*image.NRGBA, error) {
	if len(cards) == 0 {
		return nil, errors.New("no cards for contact sheet")
	}
	opts = opts.normalize()

	thumbs := make([]*image.NRGBA, len(cards))
	for i, c := range cards {
		thumbs[i] = imaging.Resize(c, opts.ThumbWidth, 0, imaging.Lanczos)
	}

	cols := min(opts.Columns, len(thumbs))
	rows := (len(thumbs) + cols - 1) / cols
	rowHeights := make([]int, rows)
	for i, t := range thumbs {
		rowHeights[i/cols] = max(rowHeights[i/cols], t.Bounds().Dy())
	}

	width := opts.Gap + cols*(opts.ThumbWidth+opts.Gap)
	height := opts.Gap
	for _, h := range rowHeights {
		height += h + opts.Gap
	}

	bg := color.NRGBA{R: uint8(opts.Background.R), G: uint8(opts.Background.G), B: uint8(opts.Background.B), A: 0xff}
	sheet := imaging.New(width, height, bg)
	y := opts.Gap
	for row := 0; row < rows; row++ {
		x := opts.Gap
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if i >= len(thumbs) {
				break
			}
			sheet = imaging.Paste(sheet, thumbs[i], image.Pt(x, y))
			x += opts.ThumbWidth + opts.Gap
		}
		y += rowHeights[row] + opts.Gap
	}
	return sheet, nil
}

// CollectImages returns image files in dir in natural order, so "note_share_10"
// comes after "note_share_9". Non-image files are ignored.
func CollectImages(dir string, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		head, err := readHead(path, 262)
		if err != nil {
			log.Warn("Unable to read file, skipping", zap.String("file", path), zap.Error(err))
			continue
		}
		if !filetype.IsImage(head) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(natural.StringSlice(names))

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// SheetFromFiles loads images from files and builds contact sheet.
func SheetFromFiles(paths []string, opts SheetOptions) (*image.NRGBA, error) {
	imgs := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("unable to load card '%s': %w", p, err)
		}
		imgs = append(imgs, img)
	}
	return Sheet(imgs, opts)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && read == 0 {
		return nil, err
	}
	return buf[:read], nil
}
