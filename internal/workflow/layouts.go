package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/layout"
	"github.com/itsmostafa/docai/internal/ui"
)

// DefaultChars is how many characters Layouts prints by default.
const DefaultChars = 15

// LayoutsOptions select where the layout comes from and what is printed.
type LayoutsOptions struct {
	// File is a document to upload and OCR.
	File string
	// Layout is an existing payload (path or s3:// URI). It wins over File.
	Layout string
	// Chars is how many leading characters to print with page and box.
	Chars int
	// Out saves the payload (path or s3:// URI) when set.
	Out string
}

// Layouts obtains a layout, prints its page metadata and its first
// characters, and returns the index.
func (w *Workflow) Layouts(ctx context.Context, opts LayoutsOptions) (*layout.Index, error) {
	var (
		data   []byte
		source string
		err    error
	)
	switch {
	case opts.Layout != "":
		source = opts.Layout
		data, err = w.blobs().Read(ctx, opts.Layout)
	case opts.File != "":
		source = filepath.Base(opts.File)
		data, err = w.fetchLayout(ctx, opts.File)
	default:
		return nil, fmt.Errorf("either a file to OCR or a layout to read is required")
	}
	if err != nil {
		return nil, err
	}

	if opts.Out != "" {
		if err := w.blobs().Write(ctx, opts.Out, data, "application/octet-stream"); err != nil {
			return nil, err
		}
		w.log().WithField("out", opts.Out).Info("layout saved")
	}

	x, err := indexLayout(data, source)
	if err != nil {
		return nil, err
	}

	out := w.out()
	ui.FormatDocumentHeader(out, source, x)
	ui.FormatWarnings(out, x.Warnings())

	n := opts.Chars
	if n == 0 {
		n = DefaultChars
	}
	for a, err := range x.Annotations(0, min(n, x.Len())) {
		if err != nil {
			return nil, err
		}
		ui.FormatCharacter(out, a)
	}
	return x, nil
}

// fetchLayout uploads path, runs OCR on it and downloads the layout.
func (w *Workflow) fetchLayout(ctx context.Context, path string) ([]byte, error) {
	session := w.newSession("layouts")

	f, err := w.upload(ctx, path, session)
	if err != nil {
		return nil, err
	}
	reqs, err := w.API.CreateOCR(ctx, []string{f.ID})
	if err != nil {
		return nil, err
	}
	if len(reqs) != 1 {
		return nil, fmt.Errorf("expected one OCR request for %s, got %d", f.ID, len(reqs))
	}
	req := reqs[0]
	if session != nil {
		session.SetRequests(reqs)
		w.save(session)
	}

	if err := w.poller(docai.DefaultPollInterval).WaitOne(ctx, req, w.onUpdate); err != nil {
		return nil, err
	}
	if !req.Successful() {
		return nil, fmt.Errorf("unable to obtain layouts: OCR request %s %s: %s", req.ID, req.Status, req.Error)
	}

	data, err := w.API.OCRLayouts(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	w.log().WithFields(logrus.Fields{"request_id": req.ID, "bytes": len(data)}).Info("layout downloaded")
	return data, nil
}
