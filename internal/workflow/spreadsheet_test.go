package workflow

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/itsmostafa/docai/internal/export"
)

type captureSink struct {
	rows []export.Row
	id   uuid.UUID
}

func (s *captureSink) Save(_ context.Context, rows []export.Row) (uuid.UUID, error) {
	s.rows = rows
	s.id = uuid.New()
	return s.id, nil
}

func TestSpreadsheet(t *testing.T) {
	api := newFakeAPI()
	api.fail["classification:b.pdf"] = true
	w, out := newWorkflow(t, api)

	dir := t.TempDir()
	writeFiles(t, dir, "b.pdf", "a.pdf", ".DS_Store")
	os.Mkdir(filepath.Join(dir, "nested"), 0o755)
	xlsx := filepath.Join(t.TempDir(), "report", "output.xlsx")
	sink := &captureSink{}

	results, err := w.Spreadsheet(context.Background(), SpreadsheetOptions{
		Dir:    dir,
		Fields: []string{"Title", "Parties", "Nonexistent"},
		Out:    xlsx,
		CSV:    true,
		Sink:   sink,
	})
	if err != nil {
		t.Fatalf("Spreadsheet: %v", err)
	}

	if got := strings.Join(api.uploads, ","); got != "a.pdf,b.pdf" {
		t.Errorf("uploads = %s, want hidden files and directories skipped", got)
	}
	if results.Len() != 2 {
		t.Fatalf("results.Len() = %d", results.Len())
	}

	files := results.Files()
	a, b := files[0], files[1]
	if a.Name != "a.pdf" || a.Language != "English" || a.DocumentType != "Lease Agreement" || a.ContractLabel() != "Yes" {
		t.Errorf("a.pdf = %+v", a)
	}
	if len(a.Extractions) != 2 {
		t.Errorf("a.pdf extractions = %+v", a.Extractions)
	}
	if b.ContractLabel() != "" || len(b.Failed) != 1 || b.Failed[0] != "classification" {
		t.Errorf("b.pdf = %+v", b)
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d spreadsheet rows, want header and 4", len(rows))
	}
	if rows[1][0] != "a.pdf" || rows[1][4] != "Parties" || rows[1][6] != "f-parties of a.pdf" {
		t.Errorf("first row = %v", rows[1])
	}

	fh, err := os.Open(strings.TrimSuffix(xlsx, ".xlsx") + ".csv")
	if err != nil {
		t.Fatalf("csv copy: %v", err)
	}
	defer fh.Close()
	records, err := csv.NewReader(fh).ReadAll()
	if err != nil || len(records) != 5 {
		t.Errorf("csv records = %d, %v", len(records), err)
	}

	if len(sink.rows) != 4 {
		t.Errorf("sink got %d rows", len(sink.rows))
	}
	if !strings.Contains(out.String(), sink.id.String()) {
		t.Errorf("summary does not mention run id:\n%s", out.String())
	}
}

func TestSpreadsheetCSVOutput(t *testing.T) {
	api := newFakeAPI()
	w, _ := newWorkflow(t, api)
	dir := t.TempDir()
	writeFiles(t, dir, "only.pdf")
	path := filepath.Join(t.TempDir(), "out.csv")

	if _, err := w.Spreadsheet(context.Background(), SpreadsheetOptions{Dir: dir, Fields: []string{"Title"}, Out: path}); err != nil {
		t.Fatalf("Spreadsheet: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Filename,Language") || !strings.Contains(string(data), "f-title of only.pdf") {
		t.Errorf("csv = %q", data)
	}
}

func TestSpreadsheetResume(t *testing.T) {
	api := newFakeAPI()
	w, _ := newWorkflow(t, api)
	dir := t.TempDir()
	writeFiles(t, dir, "a.pdf", "b.pdf")
	out := t.TempDir()

	first, err := w.Spreadsheet(context.Background(), SpreadsheetOptions{
		Dir: dir, Fields: []string{"Title"}, Out: filepath.Join(out, "first.csv"),
	})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	uploads := len(api.uploads)

	second, err := w.Spreadsheet(context.Background(), SpreadsheetOptions{
		Resume: "latest", Fields: []string{"Title"}, Out: filepath.Join(out, "second.csv"),
	})
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if len(api.uploads) != uploads {
		t.Errorf("resume uploaded %d more files", len(api.uploads)-uploads)
	}

	a, _ := os.ReadFile(filepath.Join(out, "first.csv"))
	b, _ := os.ReadFile(filepath.Join(out, "second.csv"))
	if string(a) != string(b) {
		t.Errorf("resumed output differs:\n%s\nvs\n%s", a, b)
	}
	if first.Len() != second.Len() {
		t.Errorf("file counts differ: %d vs %d", first.Len(), second.Len())
	}
}

func TestSpreadsheetErrors(t *testing.T) {
	tests := []struct {
		name string
		opts SpreadsheetOptions
		want string
	}{
		{"unknown fields", SpreadsheetOptions{Dir: t.TempDir(), Fields: []string{"Nope"}}, "none of the fields"},
		{"empty dir", SpreadsheetOptions{Dir: t.TempDir(), Fields: []string{"Title"}}, "no files to upload"},
		{"unknown run", SpreadsheetOptions{Resume: "missing-run", Fields: []string{"Title"}}, "missing-run"},
		{"no runs", SpreadsheetOptions{Resume: "latest", Fields: []string{"Title"}}, "no spreadsheet runs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newWorkflow(t, newFakeAPI())
			_, err := w.Spreadsheet(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
