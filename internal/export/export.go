// Package export turns aggregated results into spreadsheet rows.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/itsmostafa/docai/internal/docai"
)

// Header names the spreadsheet columns.
var Header = []string{
	"Filename",
	"Language",
	"Document Type",
	"Contract?",
	"Field Name",
	"Page",
	"Text",
}

// Row is one extraction of one file. Files without extractions get a single
// row with empty field columns.
type Row struct {
	Filename     string
	Language     string
	DocumentType string
	Contract     string
	FieldName    string
	Page         string
	Text         string
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{r.Filename, r.Language, r.DocumentType, r.Contract, r.FieldName, r.Page, r.Text}
}

// Rows flattens files into rows, keeping file order and ordering each file's
// extractions by field name.
func Rows(files []*docai.FileResult) []Row {
	var rows []Row
	for _, f := range files {
		base := Row{
			Filename:     f.Name,
			Language:     f.Language,
			DocumentType: f.DocumentType,
			Contract:     f.ContractLabel(),
		}
		if base.Filename == "" {
			base.Filename = f.FileID
		}

		if len(f.Extractions) == 0 {
			rows = append(rows, base)
			continue
		}

		exts := append([]docai.ExtractedSpan(nil), f.Extractions...)
		sort.SliceStable(exts, func(i, j int) bool { return exts[i].FieldName < exts[j].FieldName })
		for _, ex := range exts {
			r := base
			r.FieldName = ex.FieldName
			r.Page = ex.Span.Pages.String()
			r.Text = ex.Text
			rows = append(rows, r)
		}
	}
	return rows
}

// WriteCSV writes the header and rows as CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the header and rows to a new workbook at path with one
// sheet. The header is bold and frozen.
func WriteXLSX(path, sheet string, rows []Row) error {
	f, err := workbook(sheet, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// EncodeXLSX writes the workbook WriteXLSX would save to w.
func EncodeXLSX(w io.Writer, sheet string, rows []Row) error {
	f, err := workbook(sheet, rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	return nil
}

func workbook(sheet string, rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillSheet(f, sheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fillSheet(f *excelize.File, sheet string, rows []Row) error {
	if sheet == "" {
		sheet = "Results"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, Header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r.Values()); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "F", 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "G", "G", 80); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
