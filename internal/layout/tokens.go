package layout

import "unicode"

// Token is a run of non-space characters on one page, the unit a document
// viewer highlights.
type Token struct {
	Range CharacterRange
	Box   BoundingBox
	// Line is 0-based. A token starts a new line when its box does not
	// vertically overlap the previous token's box.
	Line int
}

// PageTokens splits page n into tokens.
func (x *Index) PageTokens(n int) ([]Token, error) {
	p, err := x.Page(n)
	if err != nil {
		return nil, err
	}
	return Tokenize(x.doc.Characters, p.Range), nil
}

// Tokenize groups chars[r.Start:r.End] into whitespace-separated tokens.
// Whitespace boxes never contribute to a token's box.
func Tokenize(chars []Character, r CharacterRange) []Token {
	var tokens []Token
	var cur *Token

	flush := func() {
		if cur == nil {
			return
		}
		if len(tokens) > 0 {
			prev := tokens[len(tokens)-1]
			cur.Line = prev.Line
			if !cur.Box.OverlapsVertically(prev.Box) {
				cur.Line++
			}
		}
		tokens = append(tokens, *cur)
		cur = nil
	}

	for i := r.Start; i < r.End; i++ {
		c := chars[i]
		if unicode.IsSpace(rune(c.Codepoint)) {
			flush()
			continue
		}
		if cur == nil {
			cur = &Token{Range: CharacterRange{Start: i, End: i + 1}, Box: c.Box}
			continue
		}
		cur.Range.End = i + 1
		cur.Box = cur.Box.Union(c.Box)
	}
	flush()

	return tokens
}
