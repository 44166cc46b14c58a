package layout

import "fmt"

// BoundingBox is a rectangle in page pixel coordinates. (X1, Y1) is the top
// left corner and (X2, Y2) the bottom right; the top left of the page is 0,0.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// Width returns X2-X1. It is negative for inverted boxes.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1. It is negative for inverted boxes.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Inverted reports whether X1 > X2 or Y1 > Y2. Zero-width boxes (such as the
// box of a trailing space) are degenerate but not inverted.
func (b BoundingBox) Inverted() bool { return b.X1 > b.X2 || b.Y1 > b.Y2 }

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// OverlapsVertically reports whether the vertical extents of b and o intersect.
func (b BoundingBox) OverlapsVertically(o BoundingBox) bool {
	return b.Y1 < o.Y2 && b.Y2 > o.Y1
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("x1=%d, y1=%d, x2=%d, y2=%d", b.X1, b.Y1, b.X2, b.Y2)
}

// CharacterRange is a half-open interval [Start, End) of global character
// indices.
type CharacterRange struct {
	Start int
	End   int
}

// Len returns the number of characters in the range.
func (r CharacterRange) Len() int { return r.End - r.Start }

// Contains reports whether Start <= i < End.
func (r CharacterRange) Contains(i int) bool { return i >= r.Start && i < r.End }

func (r CharacterRange) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// Character is a single recognized glyph.
type Character struct {
	// Codepoint is the character as a Unicode value. E.g. © is 169.
	Codepoint uint32
	// Uncertainty is between 0 and 100 where 0 means full confidence.
	Uncertainty int
	Box         BoundingBox
}

// Page is one physical page of the source document.
type Page struct {
	Range  CharacterRange
	Width  int // pixels
	Height int // pixels
	DPIX   int
	DPIY   int
}

// Inches returns the physical page size. A zero DPI yields zero for that axis.
func (p Page) Inches() (width, height float64) {
	if p.DPIX > 0 {
		width = float64(p.Width) / float64(p.DPIX)
	}
	if p.DPIY > 0 {
		height = float64(p.Height) / float64(p.DPIY)
	}
	return width, height
}

// Table marks a table on a page. PageNumber starts from 0.
type Table struct {
	ID         int
	PageNumber int
}

// Color is an RGB triple.
type Color struct {
	R, G, B int
}

// TableCell is one cell of a Table.
type TableCell struct {
	TableID           int
	Box               BoundingBox
	Background        Color
	LeftBorderWidth   int
	RightBorderWidth  int
	TopBorderWidth    int
	BottomBorderWidth int
}

// Font names the typeface used by a character range.
type Font struct {
	Range     CharacterRange
	Name      string
	Serif     bool
	Monospace bool
}

// FontSize is the point size used by a character range.
type FontSize struct {
	Range CharacterRange
	Size  int
}

// Style is a text style.
type Style int

const (
	StyleBold Style = iota
	StyleItalic
)

func (s Style) String() string {
	switch s {
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// FontStyle applies a Style to a character range.
type FontStyle struct {
	Range CharacterRange
	Style Style
}

// Document is a decoded layout. Characters are in reading order as produced
// by the OCR engine; Pages are ordered by page number, page 1 first.
type Document struct {
	Version    int
	Characters []Character
	Pages      []Page
	Tables     []Table
	TableCells []TableCell
	Fonts      []Font
	FontSizes  []FontSize
	FontStyles []FontStyle
	Headers    []CharacterRange
	Footers    []CharacterRange
	MD5        []byte
}
