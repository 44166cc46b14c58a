package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLayout means the page ranges do not tile the character
	// sequence. The upstream payload is corrupt.
	ErrMalformedLayout = errors.New("malformed layout")

	// ErrIndexOutOfRange means a query index or range falls outside the
	// document.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidCodepoint means a stored character is not a Unicode scalar
	// value.
	ErrInvalidCodepoint = errors.New("invalid codepoint")

	// ErrDecode means the wire payload could not be parsed.
	ErrDecode = errors.New("decode layout")
)

// MalformedLayoutError describes where the page tiling breaks.
type MalformedLayoutError struct {
	// Page is the 1-based page at fault, or 0 when the problem concerns the
	// document as a whole.
	Page   int
	Reason string
}

func (e *MalformedLayoutError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("malformed layout: %s", e.Reason)
	}
	return fmt.Sprintf("malformed layout: page %d: %s", e.Page, e.Reason)
}

func (e *MalformedLayoutError) Unwrap() error { return ErrMalformedLayout }

// IndexOutOfRangeError reports a bad index or range supplied by the caller.
type IndexOutOfRangeError struct {
	Index int
	// Range is set for range queries, in which case Index is unused.
	Range *CharacterRange
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Range != nil {
		return fmt.Sprintf("character range %s out of range [0, %d]", e.Range, e.Len)
	}
	return fmt.Sprintf("character index %d out of range [0, %d)", e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

// InvalidCodepointError reports a character whose code point cannot be
// rendered. Callers may substitute utf8.RuneError themselves.
type InvalidCodepointError struct {
	Index     int
	Codepoint uint32
}

func (e *InvalidCodepointError) Error() string {
	return fmt.Sprintf("character %d: invalid codepoint %#x", e.Index, e.Codepoint)
}

func (e *InvalidCodepointError) Unwrap() error { return ErrInvalidCodepoint }
