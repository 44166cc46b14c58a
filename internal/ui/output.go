// Package ui renders workflow progress and results for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/fuzzy"
	"github.com/itsmostafa/docai/internal/layout"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// boxStyle for result summaries
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	// headerBoxStyle for document headers
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	charStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

// FormatDocumentHeader renders the layout summary and one line per page.
func FormatDocumentHeader(w io.Writer, source string, x *layout.Index) {
	doc := x.Document()
	content := fmt.Sprintf("%s %s\n%s %d  %s %s  %s %d",
		dimStyle.Render("Layout:"), titleStyle.Render(source),
		dimStyle.Render("Version:"), doc.Version,
		dimStyle.Render("Characters:"), formatNumber(x.Len()),
		dimStyle.Render("Pages:"), x.PageCount(),
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))

	for n := 1; n <= x.PageCount(); n++ {
		p, _ := x.Page(n)
		wi, hi := p.Inches()
		fmt.Fprintf(w, "%s characters %s, %dx%d px at %dx%d dpi %s\n",
			titleStyle.Render(fmt.Sprintf("Page %d:", n)),
			p.Range, p.Width, p.Height, p.DPIX, p.DPIY,
			dimStyle.Render(fmt.Sprintf("(%.2fx%.2f in)", wi, hi)),
		)
	}
}

// FormatCharacter writes one annotated character with its page and box.
func FormatCharacter(w io.Writer, a layout.Annotation) {
	b := a.Box
	fmt.Fprintf(w, "%s: Page %d: x1=%d, y1=%d, x2=%d, y2=%d\n",
		charStyle.Render(fmt.Sprintf("%q", string(a.Char))), a.Page, b.X1, b.Y1, b.X2, b.Y2)
}

// FormatTokens writes tokens grouped by line.
func FormatTokens(w io.Writer, x *layout.Index, page int, tokens []layout.Token) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Page %d: %d tokens", page, len(tokens))))
	line := -1
	for _, tok := range tokens {
		if tok.Line != line {
			line = tok.Line
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("line %d", line)))
		}
		text, err := x.TextForRange(tok.Range.Start, tok.Range.End)
		if err != nil {
			text = errorStyle.Render(err.Error())
		}
		fmt.Fprintf(w, "  %-24s %s %s\n", text, dimStyle.Render(tok.Range.String()), tok.Box)
	}
}

// FormatWarnings writes data-quality warnings, if any.
func FormatWarnings(w io.Writer, warnings []layout.Warning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "%s %s\n", pendingStyle.Render("!"), dimStyle.Render(wn.String()))
	}
}

// FormatUploaded writes the id assigned to an uploaded file.
func FormatUploaded(w io.Writer, f *docai.File) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		successStyle.Render("↑"), f.Name, dimStyle.Render("->"), f.ID)
}

// FormatRequest writes the status of a request.
func FormatRequest(w io.Writer, r *docai.Request) {
	var indicator string
	switch {
	case r.Successful():
		indicator = successStyle.Render("✓")
	case r.Status == docai.StatusFailed:
		indicator = errorStyle.Render("✗")
	default:
		indicator = pendingStyle.Render("●")
	}
	line := fmt.Sprintf("%s %s %s %s", indicator, r.Kind, dimStyle.Render(r.ID), r.Status)
	if r.FileID != "" {
		line += dimStyle.Render(" file " + r.FileID)
	}
	if r.Error != "" {
		line += " " + errorStyle.Render(r.Error)
	}
	fmt.Fprintln(w, line)
}

// FormatMatch writes where an annotation was found in a file.
func FormatMatch(w io.Writer, file, annotation string, m fuzzy.Match) {
	fmt.Fprintf(w, "%s %s %s [%d, %d) %s %q\n",
		successStyle.Render("✓"), file, dimStyle.Render("at"), m.Start, m.End,
		dimStyle.Render(fmt.Sprintf("dist %d", m.Dist)), truncate(annotation, 60))
}

// FormatNoMatch reports an annotation that could not be located.
func FormatNoMatch(w io.Writer, file, annotation string) {
	fmt.Fprintf(w, "%s %s %s %q\n",
		errorStyle.Render("✗"), file, dimStyle.Render("no match for"), truncate(annotation, 60))
}

// FormatAccuracy renders the accuracy box of a trained field.
func FormatAccuracy(w io.Writer, field string, a *docai.Accuracy) {
	line := fmt.Sprintf("%s %.3f  %s %.3f  %s %.3f  %s %d",
		dimStyle.Render("Precision:"), a.Precision,
		dimStyle.Render("Recall:"), a.Recall,
		dimStyle.Render("F-score:"), a.FScore,
		dimStyle.Render("Examples:"), a.ExampleCount,
	)
	content := titleStyle.Render(field) + "\n" + line
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatValidation counts validation outcomes by type.
func FormatValidation(w io.Writer, details []docai.ValidationDetail) {
	counts := map[string]int{}
	for _, d := range details {
		counts[d.Type]++
	}
	fmt.Fprintf(w, "%s tp=%d fp=%d fn=%d\n",
		dimStyle.Render("Validation:"), counts["tp"], counts["fp"], counts["fn"])
}

// FormatExtractions writes the spans extracted from one file.
func FormatExtractions(w io.Writer, f *docai.FileResult) {
	fmt.Fprintln(w, titleStyle.Render(f.Name))
	if len(f.Extractions) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no extractions"))
		return
	}
	for _, e := range f.Extractions {
		fmt.Fprintf(w, "  %s %s %s\n",
			charStyle.Render(e.FieldName), dimStyle.Render("p."+e.Span.Pages.String()), truncate(e.Text, 80))
	}
}

// FormatSummary renders a titled box of lines.
func FormatSummary(w io.Writer, title string, lines ...string) {
	content := titleStyle.Render(title)
	if len(lines) > 0 {
		content += "\n" + strings.Join(lines, "\n")
	}
	fmt.Fprintln(w, boxStyle.Render(content))
}

// Label renders a dim "key:" prefix for summary lines.
func Label(s string) string { return dimStyle.Render(s) }

// formatNumber adds commas to large numbers for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
