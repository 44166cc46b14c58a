// Package workflow runs the end-to-end document AI flows: fetching layouts,
// building a results spreadsheet and training a custom field.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/layout"
	"github.com/itsmostafa/docai/internal/store"
	"github.com/itsmostafa/docai/internal/ui"
)

// API is the part of the remote service the workflows call. *docai.Client
// implements it.
type API interface {
	docai.Refresher

	CreateFile(ctx context.Context, name string, content []byte) (*docai.File, error)
	CreateOCR(ctx context.Context, fileIDs []string) ([]*docai.Request, error)
	CreateClassification(ctx context.Context, fileIDs []string) ([]*docai.Request, error)
	CreateLanguage(ctx context.Context, fileIDs []string) ([]*docai.Request, error)
	CreateExtraction(ctx context.Context, fileIDs, fieldIDs []string) ([]*docai.Request, error)

	OCRLayouts(ctx context.Context, requestID string) ([]byte, error)
	OCRText(ctx context.Context, requestID string) (string, error)
	ExtractionResults(ctx context.Context, requestID string) ([]docai.FieldResult, error)

	ListFields(ctx context.Context) ([]docai.Field, error)
	CreateField(ctx context.Context, name, description string) (string, error)
	TrainField(ctx context.Context, fieldID string, annotations []docai.Annotation) (*docai.Request, error)
	FieldAccuracy(ctx context.Context, fieldID string) (*docai.Accuracy, error)
	FieldMetadata(ctx context.Context, fieldID string) (*docai.FieldMetadata, error)
	FieldValidationDetails(ctx context.Context, fieldID string) ([]docai.ValidationDetail, error)
}

var _ API = (*docai.Client)(nil)

// Workflow holds what every flow needs.
type Workflow struct {
	API   API
	Blobs *store.Blobs
	// Out receives progress and results for the user.
	Out io.Writer
	Log logrus.FieldLogger
	// State records uploads and requests so a run can be resumed. Optional.
	State *StateManager
	// PollInterval overrides the per-flow default when positive.
	PollInterval time.Duration
}

func (w *Workflow) out() io.Writer {
	if w.Out == nil {
		return os.Stdout
	}
	return w.Out
}

func (w *Workflow) log() logrus.FieldLogger {
	if w.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return w.Log
}

func (w *Workflow) blobs() *store.Blobs {
	if w.Blobs == nil {
		w.Blobs = store.NewBlobs(store.S3Options{})
	}
	return w.Blobs
}

func (w *Workflow) poller(def time.Duration) *docai.Poller {
	interval := def
	if w.PollInterval > 0 {
		interval = w.PollInterval
	}
	return &docai.Poller{Client: w.API, Interval: interval}
}

// onUpdate prints and logs each status refresh.
func (w *Workflow) onUpdate(r *docai.Request) {
	ui.FormatRequest(w.out(), r)
	w.log().WithFields(logrus.Fields{
		"kind":       r.Kind,
		"request_id": r.ID,
		"file_id":    r.FileID,
		"status":     r.Status,
	}).Debug("request refreshed")
}

// upload sends the file at path and records it in session (if any).
func (w *Workflow) upload(ctx context.Context, path string, session *Session) (*docai.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := w.API.CreateFile(ctx, filepath.Base(path), content)
	if err != nil {
		return nil, err
	}
	f.Name = filepath.Base(path)
	ui.FormatUploaded(w.out(), f)
	w.log().WithFields(logrus.Fields{"file": f.Name, "file_id": f.ID}).Info("uploaded")

	if session != nil {
		session.AddFile(f)
		w.save(session)
	}
	return f, nil
}

func (w *Workflow) save(session *Session) {
	if w.State == nil || session == nil {
		return
	}
	if err := w.State.Save(session); err != nil {
		w.log().WithError(err).Warn("failed to save run state")
	}
}

func (w *Workflow) newSession(kind string) *Session {
	if w.State == nil {
		return nil
	}
	s, err := w.State.NewSession(kind)
	if err != nil {
		w.log().WithError(err).Warn("failed to start run state")
		return nil
	}
	w.log().WithField("run_id", s.ID).Info("run started")
	return s
}

// LoadIndex reads a layout payload from a local path or s3:// URI and
// indexes it.
func LoadIndex(ctx context.Context, blobs *store.Blobs, uri string) (*layout.Index, error) {
	data, err := blobs.Read(ctx, uri)
	if err != nil {
		return nil, err
	}
	return indexLayout(data, uri)
}

func indexLayout(data []byte, source string) (*layout.Index, error) {
	doc, err := layout.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout %s: %w", source, err)
	}
	x, err := layout.NewIndex(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to index layout %s: %w", source, err)
	}
	return x, nil
}

// listUploads returns the regular, non-hidden files directly in dir in name
// order.
func listUploads(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to upload in %s", dir)
	}
	return paths, nil
}
