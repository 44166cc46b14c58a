package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/fuzzy"
	"github.com/itsmostafa/docai/internal/layout"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{5518, "5,518"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatNumber(tt.n); got != tt.want {
				t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("a  b\n c", 10); got != "a b c" {
		t.Errorf("truncate collapsed spaces = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
}

func TestFormatCharacter(t *testing.T) {
	var buf bytes.Buffer
	FormatCharacter(&buf, layout.Annotation{
		Char: 'E',
		Page: 1,
		Box:  layout.BoundingBox{X1: 2183, Y1: 161, X2: 2200, Y2: 191},
	})
	want := `"E": Page 1: x1=2183, y1=161, x2=2200, y2=191`
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestFormatDocumentHeader(t *testing.T) {
	doc := &layout.Document{
		Version:    3,
		Characters: make([]layout.Character, 4),
		Pages: []layout.Page{
			{Range: layout.CharacterRange{Start: 0, End: 3}, Width: 2550, Height: 3300, DPIX: 300, DPIY: 300},
			{Range: layout.CharacterRange{Start: 3, End: 4}, Width: 2550, Height: 3300, DPIX: 300, DPIY: 300},
		},
	}
	x, err := layout.NewIndex(doc)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	FormatDocumentHeader(&buf, "contract.layout", x)
	out := buf.String()
	for _, want := range []string{"contract.layout", "Pages:", "Page 2:", "[3, 4)", "(8.50x11.00 in)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRequest(t *testing.T) {
	tests := []struct {
		name string
		req  docai.Request
		want []string
	}{
		{
			name: "complete",
			req:  docai.Request{Kind: docai.KindOCR, ID: "r1", FileID: "f1", Status: docai.StatusComplete},
			want: []string{"✓", "ocr", "r1", "complete", "file f1"},
		},
		{
			name: "failed",
			req:  docai.Request{Kind: docai.KindExtraction, ID: "r2", Status: docai.StatusFailed, Error: "bad file"},
			want: []string{"✗", "extraction", "bad file"},
		},
		{
			name: "queued",
			req:  docai.Request{Kind: docai.KindLanguage, ID: "r3", Status: docai.StatusQueued},
			want: []string{"●", "queued"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatRequest(&buf, &tt.req)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output %q missing %q", buf.String(), w)
				}
			}
		})
	}
}

func TestFormatTrainingOutput(t *testing.T) {
	var buf bytes.Buffer
	FormatMatch(&buf, "a.pdf", "governed by the laws", fuzzy.Match{Start: 10, End: 30, Dist: 1})
	FormatNoMatch(&buf, "b.pdf", "missing")
	FormatAccuracy(&buf, "Tutorial field", &docai.Accuracy{Precision: 1, Recall: 0.5, FScore: 0.667, ExampleCount: 4})
	FormatValidation(&buf, []docai.ValidationDetail{{Type: "tp"}, {Type: "tp"}, {Type: "fn"}})

	out := buf.String()
	for _, want := range []string{"[10, 30)", "dist 1", "no match for", "Tutorial field", "0.667", "tp=2 fp=0 fn=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatExtractions(t *testing.T) {
	var buf bytes.Buffer
	FormatExtractions(&buf, &docai.FileResult{Name: "empty.pdf"})
	if !strings.Contains(buf.String(), "no extractions") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	FormatExtractions(&buf, &docai.FileResult{
		Name: "a.pdf",
		Extractions: []docai.ExtractedSpan{{
			FieldName: "Title",
			Text:      "Master Services Agreement",
			Span:      docai.Span{Pages: docai.PageRange{Start: 1, End: 1}},
		}},
	})
	if out := buf.String(); !strings.Contains(out, "Title") || !strings.Contains(out, "p.1") {
		t.Errorf("output = %q", out)
	}
}
