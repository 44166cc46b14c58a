package workflow

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/layout"
	"github.com/itsmostafa/docai/internal/store"
)

// fakeAPI completes every request on its first refresh.
type fakeAPI struct {
	fields []docai.Field
	// texts maps uploaded file names to the text their OCR yields.
	texts map[string]string
	// fail lists "<kind>:<file name>" pairs whose requests fail.
	fail map[string]bool

	uploads     []string
	names       map[string]string // file id -> name
	requests    map[string]*docai.Request
	extractions map[string][]string // request id -> field ids
	trained     []docai.Annotation
	downloads   int // OCR layout and text fetches
	nextID      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		fields: []docai.Field{
			{ID: "f-title", Name: "Title"},
			{ID: "f-parties", Name: "Parties"},
		},
		texts:       map[string]string{},
		fail:        map[string]bool{},
		names:       map[string]string{},
		requests:    map[string]*docai.Request{},
		extractions: map[string][]string{},
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) CreateFile(_ context.Context, name string, _ []byte) (*docai.File, error) {
	f.uploads = append(f.uploads, name)
	id := f.id("file")
	f.names[id] = name
	return &docai.File{ID: id}, nil
}

func (f *fakeAPI) create(kind docai.Kind, fileIDs []string) []*docai.Request {
	var out []*docai.Request
	for _, fid := range fileIDs {
		r := &docai.Request{Kind: kind, ID: f.id(string(kind)), FileID: fid, Status: docai.StatusQueued}
		f.requests[r.ID] = r
		cp := *r
		out = append(out, &cp)
	}
	return out
}

func (f *fakeAPI) CreateOCR(_ context.Context, ids []string) ([]*docai.Request, error) {
	return f.create(docai.KindOCR, ids), nil
}

func (f *fakeAPI) CreateClassification(_ context.Context, ids []string) ([]*docai.Request, error) {
	return f.create(docai.KindClassification, ids), nil
}

func (f *fakeAPI) CreateLanguage(_ context.Context, ids []string) ([]*docai.Request, error) {
	return f.create(docai.KindLanguage, ids), nil
}

func (f *fakeAPI) CreateExtraction(_ context.Context, ids, fieldIDs []string) ([]*docai.Request, error) {
	reqs := f.create(docai.KindExtraction, ids)
	for _, r := range reqs {
		f.extractions[r.ID] = fieldIDs
	}
	return reqs, nil
}

func (f *fakeAPI) Refresh(_ context.Context, r *docai.Request) error {
	known, ok := f.requests[r.ID]
	if !ok {
		return &docai.APIError{StatusCode: 404, Method: "GET", Path: "/" + r.ID}
	}
	r.Status = docai.StatusComplete
	if f.fail[string(r.Kind)+":"+f.names[known.FileID]] {
		r.Status = docai.StatusFailed
		r.Error = "processing failed"
		return nil
	}
	switch r.Kind {
	case docai.KindLanguage:
		r.Language = "English"
	case docai.KindClassification:
		r.Classification = "Lease Agreement"
		r.IsContract = true
	}
	return nil
}

func (f *fakeAPI) text(requestID string) (string, error) {
	r, ok := f.requests[requestID]
	if !ok {
		return "", &docai.APIError{StatusCode: 404, Method: "GET", Path: "/ocr/" + requestID}
	}
	f.downloads++
	return f.texts[f.names[r.FileID]], nil
}

func (f *fakeAPI) OCRLayouts(_ context.Context, requestID string) ([]byte, error) {
	text, err := f.text(requestID)
	if err != nil {
		return nil, err
	}
	return layout.Encode(docFromText(text)), nil
}

func (f *fakeAPI) OCRText(_ context.Context, requestID string) (string, error) {
	return f.text(requestID)
}

func (f *fakeAPI) ExtractionResults(_ context.Context, requestID string) ([]docai.FieldResult, error) {
	r := f.requests[requestID]
	var out []docai.FieldResult
	for _, fid := range f.extractions[requestID] {
		out = append(out, docai.FieldResult{
			FieldID: fid,
			Extractions: []docai.Extraction{{
				Text:  fid + " of " + f.names[r.FileID],
				Spans: []docai.Span{{Start: 0, End: 5, Pages: docai.PageRange{Start: 1, End: 1}}},
			}},
		})
	}
	return out, nil
}

func (f *fakeAPI) ListFields(context.Context) ([]docai.Field, error) { return f.fields, nil }

func (f *fakeAPI) CreateField(_ context.Context, name, _ string) (string, error) {
	id := f.id("field")
	f.fields = append(f.fields, docai.Field{ID: id, Name: name, IsCustom: true})
	return id, nil
}

func (f *fakeAPI) TrainField(_ context.Context, fieldID string, annotations []docai.Annotation) (*docai.Request, error) {
	f.trained = annotations
	r := &docai.Request{Kind: docai.KindTraining, ID: f.id("train"), FieldID: fieldID, Status: docai.StatusQueued}
	f.requests[r.ID] = r
	return r, nil
}

func (f *fakeAPI) FieldAccuracy(context.Context, string) (*docai.Accuracy, error) {
	return &docai.Accuracy{Precision: 0.75, Recall: 1, FScore: 0.857, ExampleCount: len(f.trained)}, nil
}

func (f *fakeAPI) FieldMetadata(_ context.Context, fieldID string) (*docai.FieldMetadata, error) {
	m := &docai.FieldMetadata{Name: "Tutorial field"}
	for _, a := range f.trained {
		m.FileIDs = append(m.FileIDs, a.FileID)
	}
	return m, nil
}

func (f *fakeAPI) FieldValidationDetails(context.Context, string) ([]docai.ValidationDetail, error) {
	return []docai.ValidationDetail{{FileID: "file-1", Type: "tp"}}, nil
}

// docFromText lays text out on one page, one 10x20 box per character.
func docFromText(text string) *layout.Document {
	doc := &layout.Document{Version: 1}
	for i, r := range []rune(text) {
		doc.Characters = append(doc.Characters, layout.Character{
			Codepoint: uint32(r),
			Box:       layout.BoundingBox{X1: 10 * i, Y1: 0, X2: 10*i + 10, Y2: 20},
		})
	}
	doc.Pages = []layout.Page{{
		Range:  layout.CharacterRange{Start: 0, End: len(doc.Characters)},
		Width:  2550,
		Height: 3300,
		DPIX:   300,
		DPIY:   300,
	}}
	return doc
}

func newWorkflow(t *testing.T, api API) (*Workflow, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return &Workflow{
		API:          api,
		Blobs:        store.NewBlobs(store.S3Options{}),
		Out:          &out,
		Log:          log,
		State:        NewStateManager(filepath.Join(t.TempDir(), "runs")),
		PollInterval: time.Millisecond,
	}, &out
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4 "+n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

var _ API = (*fakeAPI)(nil)
