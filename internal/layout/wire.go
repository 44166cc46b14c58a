package layout

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from recognition_results.proto.
const (
	docVersion    protowire.Number = 1
	docCharacters protowire.Number = 2
	docPages      protowire.Number = 3
	docTables     protowire.Number = 4
	docTableCells protowire.Number = 5
	docFonts      protowire.Number = 6
	docFontSizes  protowire.Number = 7
	docFontStyles protowire.Number = 8
	docHeaders    protowire.Number = 9
	docFooters    protowire.Number = 10
	docMD5        protowire.Number = 18
)

// field is one decoded tag/value pair. Only varint and length-delimited
// values are surfaced; other wire types are skipped.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	u     uint64
	bytes []byte
}

func (f field) is(num protowire.Number, typ protowire.Type) bool {
	return f.num == num && f.typ == typ
}

func (f field) int() int { return int(uint32(f.u)) }

func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a binary layout payload.
func Decode(b []byte) (*Document, error) {
	doc := &Document{}
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(docVersion, protowire.VarintType):
			doc.Version = int(int32(f.u))
		case f.is(docCharacters, protowire.BytesType):
			var c Character
			c, err = decodeCharacter(f.bytes)
			doc.Characters = append(doc.Characters, c)
		case f.is(docPages, protowire.BytesType):
			var p Page
			p, err = decodePage(f.bytes)
			doc.Pages = append(doc.Pages, p)
		case f.is(docTables, protowire.BytesType):
			var t Table
			t, err = decodeTable(f.bytes)
			doc.Tables = append(doc.Tables, t)
		case f.is(docTableCells, protowire.BytesType):
			var c TableCell
			c, err = decodeTableCell(f.bytes)
			doc.TableCells = append(doc.TableCells, c)
		case f.is(docFonts, protowire.BytesType):
			var ft Font
			ft, err = decodeFont(f.bytes)
			doc.Fonts = append(doc.Fonts, ft)
		case f.is(docFontSizes, protowire.BytesType):
			var fs FontSize
			fs, err = decodeFontSize(f.bytes)
			doc.FontSizes = append(doc.FontSizes, fs)
		case f.is(docFontStyles, protowire.BytesType):
			var fs FontStyle
			fs, err = decodeFontStyle(f.bytes)
			doc.FontStyles = append(doc.FontStyles, fs)
		case f.is(docHeaders, protowire.BytesType):
			var r CharacterRange
			r, err = decodeRangeHolder(f.bytes)
			doc.Headers = append(doc.Headers, r)
		case f.is(docFooters, protowire.BytesType):
			var r CharacterRange
			r, err = decodeRangeHolder(f.bytes)
			doc.Footers = append(doc.Footers, r)
		case f.is(docMD5, protowire.BytesType):
			doc.MD5 = append([]byte(nil), f.bytes...)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return doc, nil
}

func decodeCharacter(b []byte) (Character, error) {
	var c Character
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.VarintType):
			c.Codepoint = uint32(f.u)
		case f.is(2, protowire.VarintType):
			c.Uncertainty = f.int()
		case f.is(3, protowire.BytesType):
			c.Box, err = decodeBox(f.bytes)
		}
		return err
	})
	if err != nil {
		return c, fmt.Errorf("character: %w", err)
	}
	return c, nil
}

func decodePage(b []byte) (Page, error) {
	var p Page
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.BytesType):
			p.Range, err = decodeRange(f.bytes)
		case f.is(2, protowire.VarintType):
			p.Width = f.int()
		case f.is(3, protowire.VarintType):
			p.Height = f.int()
		case f.is(4, protowire.VarintType):
			p.DPIX = f.int()
		case f.is(5, protowire.VarintType):
			p.DPIY = f.int()
		}
		return err
	})
	if err != nil {
		return p, fmt.Errorf("page: %w", err)
	}
	return p, nil
}

func decodeBox(b []byte) (BoundingBox, error) {
	var box BoundingBox
	err := walk(b, func(f field) error {
		if f.typ != protowire.VarintType {
			return nil
		}
		switch f.num {
		case 1:
			box.X1 = f.int()
		case 2:
			box.Y1 = f.int()
		case 3:
			box.X2 = f.int()
		case 4:
			box.Y2 = f.int()
		}
		return nil
	})
	return box, err
}

func decodeRange(b []byte) (CharacterRange, error) {
	var r CharacterRange
	err := walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.VarintType):
			r.Start = f.int()
		case f.is(2, protowire.VarintType):
			r.End = f.int()
		}
		return nil
	})
	return r, err
}

// decodeRangeHolder decodes messages whose only field is a range at 1
// (Header, Footer).
func decodeRangeHolder(b []byte) (CharacterRange, error) {
	var r CharacterRange
	err := walk(b, func(f field) error {
		if f.is(1, protowire.BytesType) {
			var err error
			r, err = decodeRange(f.bytes)
			return err
		}
		return nil
	})
	return r, err
}

func decodeTable(b []byte) (Table, error) {
	var t Table
	err := walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.VarintType):
			t.ID = f.int()
		case f.is(2, protowire.VarintType):
			t.PageNumber = f.int()
		}
		return nil
	})
	return t, err
}

func decodeTableCell(b []byte) (TableCell, error) {
	var c TableCell
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.VarintType):
			c.TableID = f.int()
		case f.is(2, protowire.BytesType):
			c.Box, err = decodeBox(f.bytes)
		case f.is(3, protowire.BytesType):
			c.Background, err = decodeColor(f.bytes)
		case f.is(4, protowire.VarintType):
			c.LeftBorderWidth = f.int()
		case f.is(5, protowire.VarintType):
			c.RightBorderWidth = f.int()
		case f.is(6, protowire.VarintType):
			c.TopBorderWidth = f.int()
		case f.is(7, protowire.VarintType):
			c.BottomBorderWidth = f.int()
		}
		return err
	})
	return c, err
}

func decodeColor(b []byte) (Color, error) {
	var c Color
	err := walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.VarintType):
			c.R = f.int()
		case f.is(2, protowire.VarintType):
			c.G = f.int()
		case f.is(3, protowire.VarintType):
			c.B = f.int()
		}
		return nil
	})
	return c, err
}

func decodeFont(b []byte) (Font, error) {
	var ft Font
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.BytesType):
			ft.Range, err = decodeRange(f.bytes)
		case f.is(2, protowire.BytesType):
			ft.Name = string(f.bytes)
		case f.is(3, protowire.VarintType):
			ft.Serif = f.u != 0
		case f.is(4, protowire.VarintType):
			ft.Monospace = f.u != 0
		}
		return err
	})
	return ft, err
}

func decodeFontSize(b []byte) (FontSize, error) {
	var fs FontSize
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.BytesType):
			fs.Range, err = decodeRange(f.bytes)
		case f.is(2, protowire.VarintType):
			fs.Size = f.int()
		}
		return err
	})
	return fs, err
}

func decodeFontStyle(b []byte) (FontStyle, error) {
	var fs FontStyle
	err := walk(b, func(f field) error {
		var err error
		switch {
		case f.is(1, protowire.BytesType):
			fs.Range, err = decodeRange(f.bytes)
		case f.is(2, protowire.VarintType):
			fs.Style = Style(int32(f.u))
		}
		return err
	})
	return fs, err
}

// Encode serializes doc in the same wire format Decode reads. Zero scalar
// fields are omitted, as proto3 encoders do.
func Encode(doc *Document) []byte {
	var b []byte
	if doc.Version != 0 {
		b = protowire.AppendTag(b, docVersion, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(doc.Version)))
	}
	for _, c := range doc.Characters {
		b = appendMessage(b, docCharacters, encodeCharacter(c))
	}
	for _, p := range doc.Pages {
		b = appendMessage(b, docPages, encodePage(p))
	}
	for _, t := range doc.Tables {
		m := appendUint(nil, 1, t.ID)
		m = appendUint(m, 2, t.PageNumber)
		b = appendMessage(b, docTables, m)
	}
	for _, c := range doc.TableCells {
		b = appendMessage(b, docTableCells, encodeTableCell(c))
	}
	for _, ft := range doc.Fonts {
		m := appendMessage(nil, 1, encodeRange(ft.Range))
		if ft.Name != "" {
			m = protowire.AppendTag(m, 2, protowire.BytesType)
			m = protowire.AppendString(m, ft.Name)
		}
		m = appendBool(m, 3, ft.Serif)
		m = appendBool(m, 4, ft.Monospace)
		b = appendMessage(b, docFonts, m)
	}
	for _, fs := range doc.FontSizes {
		m := appendMessage(nil, 1, encodeRange(fs.Range))
		m = appendUint(m, 2, fs.Size)
		b = appendMessage(b, docFontSizes, m)
	}
	for _, fs := range doc.FontStyles {
		m := appendMessage(nil, 1, encodeRange(fs.Range))
		if fs.Style != 0 {
			m = protowire.AppendTag(m, 2, protowire.VarintType)
			m = protowire.AppendVarint(m, uint64(int64(fs.Style)))
		}
		b = appendMessage(b, docFontStyles, m)
	}
	for _, r := range doc.Headers {
		b = appendMessage(b, docHeaders, appendMessage(nil, 1, encodeRange(r)))
	}
	for _, r := range doc.Footers {
		b = appendMessage(b, docFooters, appendMessage(nil, 1, encodeRange(r)))
	}
	if len(doc.MD5) > 0 {
		b = protowire.AppendTag(b, docMD5, protowire.BytesType)
		b = protowire.AppendBytes(b, doc.MD5)
	}
	return b
}

func encodeCharacter(c Character) []byte {
	var m []byte
	if c.Codepoint != 0 {
		m = protowire.AppendTag(m, 1, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(c.Codepoint))
	}
	m = appendUint(m, 2, c.Uncertainty)
	return appendMessage(m, 3, encodeBox(c.Box))
}

func encodePage(p Page) []byte {
	m := appendMessage(nil, 1, encodeRange(p.Range))
	m = appendUint(m, 2, p.Width)
	m = appendUint(m, 3, p.Height)
	m = appendUint(m, 4, p.DPIX)
	return appendUint(m, 5, p.DPIY)
}

func encodeTableCell(c TableCell) []byte {
	m := appendUint(nil, 1, c.TableID)
	m = appendMessage(m, 2, encodeBox(c.Box))
	color := appendUint(nil, 1, c.Background.R)
	color = appendUint(color, 2, c.Background.G)
	color = appendUint(color, 3, c.Background.B)
	m = appendMessage(m, 3, color)
	m = appendUint(m, 4, c.LeftBorderWidth)
	m = appendUint(m, 5, c.RightBorderWidth)
	m = appendUint(m, 6, c.TopBorderWidth)
	return appendUint(m, 7, c.BottomBorderWidth)
}

func encodeBox(box BoundingBox) []byte {
	m := appendUint(nil, 1, box.X1)
	m = appendUint(m, 2, box.Y1)
	m = appendUint(m, 3, box.X2)
	return appendUint(m, 4, box.Y2)
}

func encodeRange(r CharacterRange) []byte {
	m := appendUint(nil, 1, r.Start)
	return appendUint(m, 2, r.End)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

// appendUint writes v as a uint32 varint, skipping zero.
func appendUint(b []byte, num protowire.Number, v int) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(uint32(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}
