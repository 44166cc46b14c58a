package docai

import (
	"sort"
)

// ExtractedSpan is one extraction span labelled with its field.
type ExtractedSpan struct {
	FieldID   string
	FieldName string
	Text      string
	Span      Span
}

// FileResult collects everything learned about one uploaded file.
type FileResult struct {
	FileID       string
	Name         string
	Language     string
	DocumentType string
	// IsContract is nil until classification completes.
	IsContract  *bool
	Extractions []ExtractedSpan
	// Failed lists the request kinds that did not complete.
	Failed []Kind
}

// ContractLabel renders IsContract as "Yes", "No" or "".
func (f *FileResult) ContractLabel() string {
	switch {
	case f.IsContract == nil:
		return ""
	case *f.IsContract:
		return "Yes"
	default:
		return "No"
	}
}

// Results aggregates request outcomes per file id. It is owned by the caller
// and not safe for concurrent use.
type Results struct {
	files      map[string]*FileResult
	fieldNames map[string]string
}

// NewResults returns an empty aggregation labelling extractions with the
// names of fields.
func NewResults(fields []Field) *Results {
	names := make(map[string]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}
	return &Results{files: make(map[string]*FileResult), fieldNames: names}
}

// AddFile registers an uploaded file so its name labels its results.
func (r *Results) AddFile(f *File) {
	r.entry(f.ID).Name = f.Name
}

func (r *Results) entry(fileID string) *FileResult {
	fr, ok := r.files[fileID]
	if !ok {
		fr = &FileResult{FileID: fileID}
		r.files[fileID] = fr
	}
	return fr
}

// Apply records a finished request. Failed requests are noted on the file and
// otherwise ignored; unfinished requests are ignored.
func (r *Results) Apply(req *Request) {
	if !req.Finished() {
		return
	}
	fr := r.entry(req.FileID)
	if !req.Successful() {
		fr.Failed = append(fr.Failed, req.Kind)
		return
	}

	switch req.Kind {
	case KindClassification:
		fr.DocumentType = req.Classification
		isContract := req.IsContract
		fr.IsContract = &isContract
	case KindLanguage:
		fr.Language = req.Language
	}
}

// AddExtractions records the results of a completed extraction request,
// one ExtractedSpan per span.
func (r *Results) AddExtractions(fileID string, results []FieldResult) {
	fr := r.entry(fileID)
	for _, res := range results {
		name := r.fieldNames[res.FieldID]
		if name == "" {
			name = res.FieldID
		}
		for _, ex := range res.Extractions {
			for _, span := range ex.Spans {
				fr.Extractions = append(fr.Extractions, ExtractedSpan{
					FieldID:   res.FieldID,
					FieldName: name,
					Text:      ex.Text,
					Span:      span,
				})
			}
		}
	}
}

// File returns the result for fileID.
func (r *Results) File(fileID string) (*FileResult, bool) {
	fr, ok := r.files[fileID]
	return fr, ok
}

// Len returns the number of files.
func (r *Results) Len() int { return len(r.files) }

// Files returns every result ordered by file name, then id.
func (r *Results) Files() []*FileResult {
	out := make([]*FileResult, 0, len(r.files))
	for _, fr := range r.files {
		out = append(out, fr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].FileID < out[j].FileID
	})
	return out
}
