package layout

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Index answers page and text queries over a Document whose page ranges
// tile its character sequence.
type Index struct {
	doc      *Document
	starts   []int // starts[k] is the first character index of page k+1
	warnings []Warning
}

// Warning is a data-quality problem that does not prevent queries.
type Warning struct {
	Index   int // character index
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("character %d: %s", w.Index, w.Message) }

// Annotation places one character on its page.
type Annotation struct {
	Index int
	Char  rune
	Page  int // 1-based
	Box   BoundingBox
}

// NewIndex validates that the page ranges of doc are sorted, zero-based,
// contiguous and cover exactly [0, len(doc.Characters)), and returns an
// Index over a copy of it. Later changes to doc do not affect the Index.
func NewIndex(doc *Document) (*Index, error) {
	if doc == nil {
		return nil, &MalformedLayoutError{Reason: "nil document"}
	}

	n := len(doc.Characters)
	if len(doc.Pages) == 0 && n > 0 {
		return nil, &MalformedLayoutError{Reason: fmt.Sprintf("no pages cover %d characters", n)}
	}

	starts := make([]int, len(doc.Pages))
	next := 0
	for i, p := range doc.Pages {
		r := p.Range
		if r.Start != next {
			if i == 0 {
				return nil, &MalformedLayoutError{Page: 1, Reason: fmt.Sprintf("range starts at %d, want 0", r.Start)}
			}
			if r.Start > next {
				return nil, &MalformedLayoutError{Page: i + 1, Reason: fmt.Sprintf("gap: range starts at %d, previous page ends at %d", r.Start, next)}
			}
			return nil, &MalformedLayoutError{Page: i + 1, Reason: fmt.Sprintf("overlap: range starts at %d, previous page ends at %d", r.Start, next)}
		}
		if r.End < r.Start {
			return nil, &MalformedLayoutError{Page: i + 1, Reason: fmt.Sprintf("range %s ends before it starts", r)}
		}
		starts[i] = r.Start
		next = r.End
	}
	if next != n {
		return nil, &MalformedLayoutError{Reason: fmt.Sprintf("pages cover [0, %d), document has %d characters", next, n)}
	}

	var warnings []Warning
	for i, c := range doc.Characters {
		if c.Box.Inverted() {
			warnings = append(warnings, Warning{Index: i, Message: fmt.Sprintf("inverted bounding box (%s)", c.Box)})
		}
	}

	own := *doc
	own.Characters = slices.Clone(doc.Characters)
	own.Pages = slices.Clone(doc.Pages)
	return &Index{doc: &own, starts: starts, warnings: warnings}, nil
}

// Document returns the indexed document. Its slices are shared with the
// Index and must be treated as read-only; reassigning them on the returned
// value does not change the Index.
func (x *Index) Document() *Document {
	d := *x.doc
	return &d
}

// Len returns the number of characters.
func (x *Index) Len() int { return len(x.doc.Characters) }

// PageCount returns the number of pages.
func (x *Index) PageCount() int { return len(x.doc.Pages) }

// Warnings returns the data-quality problems found at construction.
func (x *Index) Warnings() []Warning { return x.warnings }

// Page returns page n (1-based).
func (x *Index) Page(n int) (Page, error) {
	if n < 1 || n > len(x.doc.Pages) {
		return Page{}, fmt.Errorf("page %d out of range [1, %d]: %w", n, len(x.doc.Pages), ErrIndexOutOfRange)
	}
	return x.doc.Pages[n-1], nil
}

// PageForIndex returns the 1-based page number whose range contains
// character i. A boundary index belongs to the page it starts, never to the
// page before it.
func (x *Index) PageForIndex(i int) (int, error) {
	if i < 0 || i >= len(x.doc.Characters) {
		return 0, &IndexOutOfRangeError{Index: i, Len: len(x.doc.Characters)}
	}
	// Number of pages starting at or before i. Empty pages share their start
	// with the following page, so the last of them is the non-empty one.
	return sort.Search(len(x.starts), func(k int) bool { return x.starts[k] > i }), nil
}

// TextForRange renders characters [start, end) as a string, one rune per
// character, without any normalization.
func (x *Index) TextForRange(start, end int) (string, error) {
	if err := x.checkRange(start, end); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(end - start)
	for i := start; i < end; i++ {
		r, err := x.rune(i)
		if err != nil {
			return "", err
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// PageText renders all characters of page n.
func (x *Index) PageText(n int) (string, error) {
	p, err := x.Page(n)
	if err != nil {
		return "", err
	}
	return x.TextForRange(p.Range.Start, p.Range.End)
}

// AnnotateRange materializes Annotations for [start, end).
func (x *Index) AnnotateRange(start, end int) ([]Annotation, error) {
	if err := x.checkRange(start, end); err != nil {
		return nil, err
	}
	out := make([]Annotation, 0, end-start)
	for a, err := range x.Annotations(start, end) {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Annotations lazily yields one Annotation per character in [start, end).
// A bad range or code point is yielded as an error, after which iteration
// stops.
func (x *Index) Annotations(start, end int) iter.Seq2[Annotation, error] {
	return func(yield func(Annotation, error) bool) {
		if err := x.checkRange(start, end); err != nil {
			yield(Annotation{}, err)
			return
		}
		for i := start; i < end; i++ {
			a, err := x.annotate(i)
			if !yield(a, err) || err != nil {
				return
			}
		}
	}
}

func (x *Index) annotate(i int) (Annotation, error) {
	r, err := x.rune(i)
	if err != nil {
		return Annotation{}, err
	}
	page, err := x.PageForIndex(i)
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{Index: i, Char: r, Page: page, Box: x.doc.Characters[i].Box}, nil
}

func (x *Index) rune(i int) (rune, error) {
	cp := x.doc.Characters[i].Codepoint
	if cp > utf8.MaxRune || !utf8.ValidRune(rune(cp)) {
		return 0, &InvalidCodepointError{Index: i, Codepoint: cp}
	}
	return rune(cp), nil
}

func (x *Index) checkRange(start, end int) error {
	if start < 0 || start > end || end > len(x.doc.Characters) {
		return &IndexOutOfRangeError{Range: &CharacterRange{Start: start, End: end}, Len: len(x.doc.Characters)}
	}
	return nil
}
