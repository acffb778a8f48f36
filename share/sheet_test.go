package share

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/OneeMe/obsidian-social-share/layout"
)

func solid(w, h int, c color.NRGBA) image.Image {
	return imaging.New(w, h, c)
}

func TestSheetGeometry(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	cards := []image.Image{solid(100, 200, red), solid(100, 200, red), solid(100, 200, red), solid(100, 200, red)}
	sheet, err := Sheet(cards, SheetOptions{Columns: 3, ThumbWidth: 50, Gap: 10, Background: layout.Color{R: 0, G: 0, B: 255}})
	if err != nil {
		t.Fatalf("Sheet error: %v", err)
	}
	// 3 columns of 50px with 4 gaps, 2 rows of 100px with 3 gaps
	if b := sheet.Bounds(); b.Dx() != 190 || b.Dy() != 230 {
		t.Fatalf("sheet size = %v", b)
	}
	if c := sheet.NRGBAAt(15, 15); c.R < 250 || c.B > 5 {
		t.Fatalf("first thumbnail not pasted: %v", c)
	}
	if c := sheet.NRGBAAt(5, 5); c.B != 255 || c.R != 0 {
		t.Fatalf("gap must keep background: %v", c)
	}
	// second row has only one thumbnail, rest stays background
	if c := sheet.NRGBAAt(80, 150); c.B != 255 {
		t.Fatalf("empty cell must keep background: %v", c)
	}
	if c := sheet.NRGBAAt(20, 150); c.R < 250 {
		t.Fatalf("fourth thumbnail not pasted: %v", c)
	}
}

func TestSheetSingleCardAndErrors(t *testing.T) {
	sheet, err := Sheet([]image.Image{solid(40, 40, color.NRGBA{A: 255})}, SheetOptions{ThumbWidth: 20})
	if err != nil {
		t.Fatalf("Sheet error: %v", err)
	}
	if b := sheet.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("columns must not exceed number of cards, size = %v", b)
	}
	if _, err := Sheet(nil, SheetOptions{}); err == nil {
		t.Fatal("expected error for no cards")
	}
}

func TestCollectImagesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"note_share_10.png", "note_share_2.png", "note_share_1.png"} {
		if err := imaging.Save(solid(8, 8, color.NRGBA{G: 255, A: 255}), filepath.Join(dir, n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "note_share.json"), []byte(`{"cards":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := CollectImages(dir, nil)
	if err != nil {
		t.Fatalf("CollectImages error: %v", err)
	}
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	want := []string{"note_share_1.png", "note_share_2.png", "note_share_10.png"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	sheet, err := SheetFromFiles(paths, SheetOptions{Columns: 3, ThumbWidth: 8})
	if err != nil {
		t.Fatalf("SheetFromFiles error: %v", err)
	}
	if sheet.Bounds().Dx() != 24 {
		t.Fatalf("sheet width = %d", sheet.Bounds().Dx())
	}

	if _, err := CollectImages(filepath.Join(dir, "missing"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
