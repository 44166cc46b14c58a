// Package render draws the character geometry of a layout page.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/itsmostafa/docai/internal/layout"
)

var (
	charColor      = color.RGBA{R: 0x1f, G: 0x6f, B: 0xeb, A: 0xff}
	tokenColor     = color.RGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff}
	highlightColor = color.RGBA{R: 0xff, G: 0xd6, B: 0x00, A: 0x60}
	labelColor     = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
)

// Options control what is drawn.
type Options struct {
	// Width scales the output to this many pixels wide. Zero keeps the page
	// size.
	Width int
	// Background is drawn under the boxes, stretched to the page size.
	Background image.Image
	// Tokens outlines viewer tokens in addition to characters.
	Tokens bool
	// Highlight fills the boxes of characters in this range.
	Highlight *layout.CharacterRange
	// Label writes the page number in the top left corner.
	Label bool
}

// Page draws page n (1-based) of x.
func Page(x *layout.Index, n int, opts Options) (*image.RGBA, error) {
	p, err := x.Page(n)
	if err != nil {
		return nil, err
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("page %d has no size (%dx%d)", n, p.Width, p.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	if opts.Background != nil {
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), opts.Background, opts.Background.Bounds(), draw.Over, nil)
	}

	chars := x.Document().Characters
	if h := opts.Highlight; h != nil {
		start, end := max(h.Start, p.Range.Start), min(h.End, p.Range.End)
		for i := start; i < end; i++ {
			r := rect(chars[i].Box).Intersect(canvas.Bounds())
			draw.Draw(canvas, r, image.NewUniform(highlightColor), image.Point{}, draw.Over)
		}
	}

	for i := p.Range.Start; i < p.Range.End; i++ {
		outline(canvas, rect(chars[i].Box), charColor)
	}

	if opts.Tokens {
		for _, tok := range layout.Tokenize(chars, p.Range) {
			outline(canvas, rect(tok.Box).Inset(-2), tokenColor)
		}
	}

	if opts.Label {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(labelColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(8, 20),
		}
		d.DrawString(fmt.Sprintf("page %d of %d", n, x.PageCount()))
	}

	if opts.Width <= 0 || opts.Width == p.Width {
		return canvas, nil
	}
	return Scale(canvas, opts.Width), nil
}

// Scale resizes img to width pixels keeping its aspect ratio.
func Scale(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := max(1, (b.Dy()*width+b.Dx()/2)/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// DecodeImage decodes a PNG page image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	return img, nil
}

// rect converts a bounding box to a canonical rectangle. Zero-width boxes
// become one pixel wide so they stay visible.
func rect(b layout.BoundingBox) image.Rectangle {
	r := image.Rect(b.X1, b.Y1, b.X2, b.Y2)
	if r.Dx() == 0 {
		r.Max.X++
	}
	if r.Dy() == 0 {
		r.Max.Y++
	}
	return r
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
