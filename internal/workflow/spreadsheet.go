package workflow

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/export"
	"github.com/itsmostafa/docai/internal/ui"
)

// DefaultFields are extracted when no field names are given.
var DefaultFields = []string{
	"Title",
	"Parties",
	"Date",
	"Governing Law",
	"Indemnity",
	"Termination for Cause or Breach",
	"Termination for Insolvency",
	"Termination for Convenience",
	"“Confidential Information” Definition",
}

// DefaultOutput is the spreadsheet written when no output is given.
const DefaultOutput = "output.xlsx"

// RowSaver stores exported rows under a new run id. *store.ResultSink
// implements it.
type RowSaver interface {
	Save(ctx context.Context, rows []export.Row) (uuid.UUID, error)
}

// SpreadsheetOptions configure the spreadsheet flow.
type SpreadsheetOptions struct {
	// Dir holds the documents to upload.
	Dir string
	// Fields are field names to extract. DefaultFields when empty.
	Fields []string
	// Out is the workbook path or s3:// URI. A .csv extension writes CSV
	// instead of XLSX.
	Out string
	// CSV also writes a CSV copy next to an XLSX Out.
	CSV bool
	// Sink receives the rows when set.
	Sink RowSaver
	// Resume continues a recorded run instead of uploading again. "latest"
	// picks the most recent spreadsheet run.
	Resume string
}

// Spreadsheet uploads every file in Dir, requests language detection,
// classification and field extraction for each, waits for all of them and
// writes one row per extracted span.
func (w *Workflow) Spreadsheet(ctx context.Context, opts SpreadsheetOptions) (*docai.Results, error) {
	names := opts.Fields
	if len(names) == 0 {
		names = DefaultFields
	}
	fields, err := w.API.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	fieldIDs, missing := docai.FieldIDsByName(fields, names)
	for _, m := range missing {
		w.log().WithField("field", m).Warn("unknown field name, skipping")
	}
	if len(fieldIDs) == 0 {
		return nil, fmt.Errorf("none of the fields %q exist", names)
	}

	results := docai.NewResults(fields)

	var (
		session *Session
		reqs    []*docai.Request
	)
	if opts.Resume != "" {
		session, reqs, err = w.resume(opts.Resume, results)
	} else {
		session, reqs, err = w.submit(ctx, opts.Dir, fieldIDs, results)
	}
	if err != nil {
		return nil, err
	}

	finished, err := w.poller(docai.DefaultPollInterval).Wait(ctx, reqs, w.onUpdate)
	if session != nil {
		session.SetRequests(reqs)
		w.save(session)
	}
	if err != nil {
		return nil, err
	}

	for _, r := range finished {
		results.Apply(r)
		if r.Kind != docai.KindExtraction || !r.Successful() {
			continue
		}
		fr, err := w.API.ExtractionResults(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		results.AddExtractions(r.FileID, fr)
	}

	rows := export.Rows(results.Files())
	if err := w.writeRows(ctx, opts, rows); err != nil {
		return nil, err
	}

	summary := []string{
		fmt.Sprintf("%s %d  %s %d", ui.Label("Files:"), results.Len(), ui.Label("Rows:"), len(rows)),
		fmt.Sprintf("%s %s", ui.Label("Output:"), outputPath(opts.Out)),
	}
	if opts.Sink != nil {
		runID, err := opts.Sink.Save(ctx, rows)
		if err != nil {
			return nil, err
		}
		w.log().WithFields(logrus.Fields{"run_id": runID, "rows": len(rows)}).Info("rows saved")
		summary = append(summary, fmt.Sprintf("%s %s", ui.Label("Database run:"), runID))
	}
	ui.FormatSummary(w.out(), "Spreadsheet complete", summary...)
	return results, nil
}

func (w *Workflow) submit(ctx context.Context, dir string, fieldIDs []string, results *docai.Results) (*Session, []*docai.Request, error) {
	paths, err := listUploads(dir)
	if err != nil {
		return nil, nil, err
	}

	session := w.newSession("spreadsheet")
	if session != nil {
		session.FieldIDs = fieldIDs
	}

	fileIDs := make([]string, 0, len(paths))
	for _, p := range paths {
		f, err := w.upload(ctx, p, session)
		if err != nil {
			return nil, nil, err
		}
		results.AddFile(f)
		fileIDs = append(fileIDs, f.ID)
	}

	var reqs []*docai.Request
	language, err := w.API.CreateLanguage(ctx, fileIDs)
	if err != nil {
		return nil, nil, err
	}
	reqs = append(reqs, language...)

	classification, err := w.API.CreateClassification(ctx, fileIDs)
	if err != nil {
		return nil, nil, err
	}
	reqs = append(reqs, classification...)

	extraction, err := w.API.CreateExtraction(ctx, fileIDs, fieldIDs)
	if err != nil {
		return nil, nil, err
	}
	reqs = append(reqs, extraction...)

	if session != nil {
		session.SetRequests(reqs)
		w.save(session)
	}
	return session, reqs, nil
}

func (w *Workflow) resume(id string, results *docai.Results) (*Session, []*docai.Request, error) {
	if w.State == nil {
		return nil, nil, fmt.Errorf("cannot resume %s: run state is disabled", id)
	}
	var (
		session *Session
		err     error
	)
	if id == "latest" {
		session, err = w.State.Latest("spreadsheet")
	} else {
		session, err = w.State.Load(id)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(session.Requests) == 0 {
		return nil, nil, fmt.Errorf("run %s has no requests to resume", session.ID)
	}

	for _, f := range session.Files {
		results.AddFile(&docai.File{ID: f.ID, Name: f.Name})
	}
	w.log().WithFields(logrus.Fields{"run_id": session.ID, "requests": len(session.Requests)}).Info("resuming run")
	return session, session.PendingRequests(), nil
}

func (w *Workflow) writeRows(ctx context.Context, opts SpreadsheetOptions, rows []export.Row) error {
	out := outputPath(opts.Out)

	if strings.EqualFold(path.Ext(out), ".csv") {
		return w.writeCSV(ctx, out, rows)
	}

	var buf bytes.Buffer
	if err := export.EncodeXLSX(&buf, "", rows); err != nil {
		return err
	}
	if err := w.blobs().Write(ctx, out, buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return err
	}

	if opts.CSV {
		return w.writeCSV(ctx, strings.TrimSuffix(out, path.Ext(out))+".csv", rows)
	}
	return nil
}

func (w *Workflow) writeCSV(ctx context.Context, out string, rows []export.Row) error {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		return err
	}
	return w.blobs().Write(ctx, out, buf.Bytes(), "text/csv")
}

func outputPath(out string) string {
	if out == "" {
		return DefaultOutput
	}
	return out
}
