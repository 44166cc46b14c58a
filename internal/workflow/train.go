package workflow

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/fuzzy"
	"github.com/itsmostafa/docai/internal/layout"
	"github.com/itsmostafa/docai/internal/ui"
)

const (
	// TrainingPollInterval is the pause between OCR and training status
	// rounds.
	TrainingPollInterval = 5 * time.Second

	DefaultFieldName = "Tutorial field"

	TextFromLayouts = "layouts"
	TextFromOCR     = "text"
)

// Example is one row of the training CSV: a file and the text to annotate
// in it. An empty Annotation marks a negative example.
type Example struct {
	FileName   string
	Annotation string
}

// ReadExamples parses training examples as CSV rows of file name and
// annotation. A missing second column is an empty annotation.
func ReadExamples(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var examples []Example
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read training examples: %w", err)
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			return nil, fmt.Errorf("training example on line %d has no file name", line)
		}
		ex := Example{FileName: name}
		if len(rec) > 1 {
			ex.Annotation = rec[1]
		}
		examples = append(examples, ex)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples")
	}
	return examples, nil
}

// TrainOptions configure the training flow.
type TrainOptions struct {
	// Examples is the training CSV.
	Examples string
	// Dir holds the files the examples name.
	Dir         string
	FieldName   string
	Description string
	// MaxDistance is the largest edit distance at which an annotation still
	// matches the OCR text. Zero asks for an exact match; a negative value
	// selects fuzzy.DefaultMaxDistance.
	MaxDistance int
	// TextSource is TextFromLayouts (default) or TextFromOCR.
	TextSource string
	// TestFile is extracted with the trained field when set.
	TestFile string
}

// TrainResult reports the trained field.
type TrainResult struct {
	FieldID     string
	Annotations []docai.Annotation
	Accuracy    *docai.Accuracy
	Metadata    *docai.FieldMetadata
	Validation  []docai.ValidationDetail
	// Test holds the extractions from TestFile, if one was given.
	Test *docai.FileResult
}

type trainingFile struct {
	file    *docai.File
	ocr     *docai.Request
	text    string
	fetched bool
}

// Train uploads and OCRs the example files, locates each annotation in the
// OCR text, creates a field, trains it and reports its accuracy.
func (w *Workflow) Train(ctx context.Context, opts TrainOptions) (*TrainResult, error) {
	switch opts.TextSource {
	case "":
		opts.TextSource = TextFromLayouts
	case TextFromLayouts, TextFromOCR:
	default:
		return nil, fmt.Errorf("unknown text source %q: want %s or %s", opts.TextSource, TextFromLayouts, TextFromOCR)
	}
	if opts.FieldName == "" {
		opts.FieldName = DefaultFieldName
	}
	if opts.MaxDistance < 0 {
		opts.MaxDistance = fuzzy.DefaultMaxDistance
	}

	fh, err := os.Open(opts.Examples)
	if err != nil {
		return nil, fmt.Errorf("failed to open training examples: %w", err)
	}
	examples, err := ReadExamples(fh)
	fh.Close()
	if err != nil {
		return nil, err
	}

	session := w.newSession("train")
	files, err := w.ocrExamples(ctx, opts.Dir, examples, session)
	if err != nil {
		return nil, err
	}

	annotations, err := w.locate(ctx, examples, files, opts)
	if err != nil {
		return nil, err
	}

	fieldID, err := w.API.CreateField(ctx, opts.FieldName, opts.Description)
	if err != nil {
		return nil, err
	}
	w.log().WithFields(logrus.Fields{"field_id": fieldID, "name": opts.FieldName}).Info("field created")

	training, err := w.API.TrainField(ctx, fieldID, annotations)
	if err != nil {
		return nil, err
	}
	if err := w.poller(TrainingPollInterval).WaitOne(ctx, training, w.onUpdate); err != nil {
		return nil, err
	}
	if !training.Successful() {
		return nil, fmt.Errorf("training field %s failed: %s", fieldID, training.Error)
	}

	res := &TrainResult{FieldID: fieldID, Annotations: annotations}
	if res.Accuracy, err = w.API.FieldAccuracy(ctx, fieldID); err != nil {
		return nil, err
	}
	if res.Metadata, err = w.API.FieldMetadata(ctx, fieldID); err != nil {
		return nil, err
	}
	if res.Validation, err = w.API.FieldValidationDetails(ctx, fieldID); err != nil {
		return nil, err
	}

	out := w.out()
	ui.FormatAccuracy(out, opts.FieldName, res.Accuracy)
	ui.FormatSummary(out, res.Metadata.Name,
		fmt.Sprintf("%s %s", ui.Label("Field ID:"), fieldID),
		fmt.Sprintf("%s %s", ui.Label("Description:"), res.Metadata.Description),
		fmt.Sprintf("%s %d", ui.Label("Trained files:"), len(res.Metadata.FileIDs)),
	)
	ui.FormatValidation(out, res.Validation)

	if opts.TestFile != "" {
		if res.Test, err = w.testField(ctx, fieldID, opts); err != nil {
			return nil, err
		}
		ui.FormatExtractions(out, res.Test)
	}
	return res, nil
}

// ocrExamples uploads each distinct example file once and waits for its OCR.
func (w *Workflow) ocrExamples(ctx context.Context, dir string, examples []Example, session *Session) (map[string]*trainingFile, error) {
	files := make(map[string]*trainingFile)
	var fileIDs []string
	for _, ex := range examples {
		if _, ok := files[ex.FileName]; ok {
			continue
		}
		f, err := w.upload(ctx, filepath.Join(dir, ex.FileName), session)
		if err != nil {
			return nil, err
		}
		files[ex.FileName] = &trainingFile{file: f}
		fileIDs = append(fileIDs, f.ID)
	}

	reqs, err := w.API.CreateOCR(ctx, fileIDs)
	if err != nil {
		return nil, err
	}
	byFile := make(map[string]*docai.Request, len(reqs))
	for _, r := range reqs {
		byFile[r.FileID] = r
	}
	for name, tf := range files {
		tf.ocr = byFile[tf.file.ID]
		if tf.ocr == nil {
			return nil, fmt.Errorf("no OCR request was created for %s", name)
		}
	}
	if session != nil {
		session.SetRequests(reqs)
		w.save(session)
	}

	if _, err := w.poller(TrainingPollInterval).Wait(ctx, reqs, w.onUpdate); err != nil {
		return nil, err
	}
	return files, nil
}

// locate turns examples into annotations. Files with failed OCR and
// annotations without a match are reported and left out.
func (w *Workflow) locate(ctx context.Context, examples []Example, files map[string]*trainingFile, opts TrainOptions) ([]docai.Annotation, error) {
	out := w.out()
	var order []string
	byFile := make(map[string]*docai.Annotation)

	for _, ex := range examples {
		tf := files[ex.FileName]
		if !tf.ocr.Successful() {
			w.log().WithFields(logrus.Fields{"file": ex.FileName, "request_id": tf.ocr.ID}).Warn("OCR failed, example skipped")
			continue
		}

		var loc *docai.Location
		if ex.Annotation != "" {
			text, err := w.ocrText(ctx, tf, opts.TextSource)
			if err != nil {
				return nil, err
			}
			m, ok := fuzzy.Best(fuzzy.Normalize(ex.Annotation), text, opts.MaxDistance)
			if !ok {
				ui.FormatNoMatch(out, ex.FileName, ex.Annotation)
				continue
			}
			ui.FormatMatch(out, ex.FileName, ex.Annotation, m)
			loc = &docai.Location{Start: m.Start, End: m.End}
		} else {
			fmt.Fprintf(out, "%s %s\n", ex.FileName, ui.Label("no annotation"))
		}

		a, ok := byFile[tf.file.ID]
		if !ok {
			a = &docai.Annotation{FileID: tf.file.ID, Locations: []docai.Location{}}
			byFile[tf.file.ID] = a
			order = append(order, tf.file.ID)
		}
		if loc != nil {
			a.Locations = append(a.Locations, *loc)
		}
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("no usable training examples")
	}
	annotations := make([]docai.Annotation, 0, len(order))
	for _, id := range order {
		annotations = append(annotations, *byFile[id])
	}
	return annotations, nil
}

// ocrText returns the file's text in the character index space annotations
// refer to, fetching it once.
func (w *Workflow) ocrText(ctx context.Context, tf *trainingFile, source string) (string, error) {
	if tf.fetched {
		return tf.text, nil
	}
	if source == TextFromOCR {
		text, err := w.API.OCRText(ctx, tf.ocr.ID)
		if err != nil {
			return "", err
		}
		tf.text, tf.fetched = text, true
		return text, nil
	}

	data, err := w.API.OCRLayouts(ctx, tf.ocr.ID)
	if err != nil {
		return "", err
	}
	x, err := indexLayout(data, tf.file.Name)
	if err != nil {
		return "", err
	}
	text, err := x.TextForRange(0, x.Len())
	if err != nil {
		if !errors.Is(err, layout.ErrInvalidCodepoint) {
			return "", err
		}
		// Fall back to the service's text for layouts with bad code points.
		if text, err = w.API.OCRText(ctx, tf.ocr.ID); err != nil {
			return "", err
		}
	}
	tf.text, tf.fetched = text, true
	return text, nil
}

// testField extracts opts.TestFile with the trained field.
func (w *Workflow) testField(ctx context.Context, fieldID string, opts TrainOptions) (*docai.FileResult, error) {
	path := opts.TestFile
	if !filepath.IsAbs(path) && opts.Dir != "" {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(opts.Dir, path)
		}
	}
	f, err := w.upload(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	reqs, err := w.API.CreateExtraction(ctx, []string{f.ID}, []string{fieldID})
	if err != nil {
		return nil, err
	}
	if len(reqs) != 1 {
		return nil, fmt.Errorf("expected one extraction request for %s, got %d", f.ID, len(reqs))
	}
	req := reqs[0]
	if err := w.poller(docai.DefaultPollInterval).WaitOne(ctx, req, w.onUpdate); err != nil {
		return nil, err
	}
	if !req.Successful() {
		return nil, fmt.Errorf("extraction request %s %s: %s", req.ID, req.Status, req.Error)
	}
	fr, err := w.API.ExtractionResults(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	results := docai.NewResults([]docai.Field{{ID: fieldID, Name: opts.FieldName}})
	results.AddFile(f)
	results.AddExtractions(f.ID, fr)
	got, _ := results.File(f.ID)
	return got, nil
}
