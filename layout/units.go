package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths used by card layout files.
// Card geometry is always expressed in pixels.

// Unit represents the original unit of a length value as specified in a layout file.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors, treated as px for absolute lengths
	UnitPX               // pixels
	UnitPT               // points (CSS: 1pt = 4/3 px)
	UnitMM               // millimeters at 96 DPI
	UnitIN               // inches at 96 DPI
)

// Conversion constants between pt and mm. Canvas backends that work in millimeters
// rasterize at 1px per mm, so these also translate pixel font sizes into points.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

const (
	pxPerInch = 96.0
	pxPerPt   = pxPerInch / 72.0
	pxPerMM   = pxPerInch / 25.4
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Px converts the length to pixels.
func (l Length) Px() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value * pxPerPt
	case UnitMM:
		return l.Value * pxPerMM
	case UnitIN:
		return l.Value * pxPerInch
	default:
		return l.Value
	}
}

// ParseLength parses a length string such as "60", "60px", "12pt" or "1in".
// ok is false when the numeric part cannot be parsed.
func ParseLength(value string) (Length, bool) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"in", UnitIN}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// LineHeightKind distinguishes factor-based vs absolute line-height specification.
type LineHeightKind int

const (
	LineHeightAbsolute LineHeightKind = iota
	LineHeightFactor
)

// LineHeightSpec is either a factor of the body font size (e.g. 1.4x) or an absolute length (e.g. 50px).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight accepts "1.4x" or any length understood by ParseLength.
// Lengths are tried first since "px" also ends with "x".
func ParseLineHeight(value string) (LineHeightSpec, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if l, ok := ParseLength(v); ok {
		return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, true
	}
	f, ok := strings.CutSuffix(v, "x")
	if !ok {
		return LineHeightSpec{}, false
	}
	factor, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
	if err != nil || factor <= 0 {
		return LineHeightSpec{}, false
	}
	return LineHeightSpec{Kind: LineHeightFactor, Factor: factor}, true
}

// Resolve computes the absolute line height in pixels for the given font size in pixels.
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	switch s.Kind {
	case LineHeightFactor:
		return fontSize * s.Factor
	default:
		return s.Len.Px()
	}
}
