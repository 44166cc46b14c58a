package docai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Kind identifies the service that owns a request.
type Kind string

const (
	KindOCR            Kind = "ocr"
	KindClassification Kind = "classification"
	KindLanguage       Kind = "language"
	KindExtraction     Kind = "extraction"
	KindTraining       Kind = "training"
)

// Status is the processing state of a request.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Finished reports whether the request has stopped processing.
func (s Status) Finished() bool {
	return s == StatusComplete || s == StatusFailed
}

// Request is an asynchronous job on one file.
type Request struct {
	Kind   Kind
	ID     string
	FileID string
	// FieldID is set for training requests.
	FieldID string
	Status  Status
	Error   string

	// Classification results.
	Classification string
	IsContract     bool
	// Language results.
	Language string
}

// Finished reports whether the request has stopped processing.
func (r *Request) Finished() bool { return r.Status.Finished() }

// Successful reports whether the request completed.
func (r *Request) Successful() bool { return r.Status == StatusComplete }

func (r *Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Kind, r.ID, r.Status)
}

// requestStatus is the wire shape shared by every status response.
type requestStatus struct {
	FileID         string `json:"file_id"`
	RequestID      string `json:"request_id"`
	FieldID        string `json:"field_id"`
	Status         Status `json:"status"`
	Classification string `json:"classification"`
	IsContract     bool   `json:"is_contract"`
	Language       string `json:"language"`
	Error          *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s requestStatus) apply(r *Request) {
	if s.RequestID != "" {
		r.ID = s.RequestID
	}
	if s.FileID != "" {
		r.FileID = s.FileID
	}
	if s.FieldID != "" {
		r.FieldID = s.FieldID
	}
	r.Status = s.Status
	r.Classification = s.Classification
	r.IsContract = s.IsContract
	r.Language = s.Language
	if s.Error != nil {
		r.Error = s.Error.Message
	}
}

type createRequestBody struct {
	FileIDs  []string `json:"file_ids"`
	FieldIDs []string `json:"field_ids,omitempty"`
}

type createRequestResponse struct {
	FileIDs []requestStatus `json:"file_ids"`
}

func (c *Client) create(ctx context.Context, kind Kind, body createRequestBody) ([]*Request, error) {
	var resp createRequestResponse
	if err := c.doJSON(ctx, http.MethodPost, "/"+string(kind), body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create %s requests: %w", kind, err)
	}

	reqs := make([]*Request, 0, len(resp.FileIDs))
	for _, s := range resp.FileIDs {
		r := &Request{Kind: kind}
		s.apply(r)
		reqs = append(reqs, r)
		c.log.WithField("kind", kind).WithField("request_id", r.ID).WithField("file_id", r.FileID).Debug("request created")
	}
	return reqs, nil
}

// CreateOCR starts one OCR request per file.
func (c *Client) CreateOCR(ctx context.Context, fileIDs []string) ([]*Request, error) {
	return c.create(ctx, KindOCR, createRequestBody{FileIDs: fileIDs})
}

// CreateClassification starts one document classification request per file.
func (c *Client) CreateClassification(ctx context.Context, fileIDs []string) ([]*Request, error) {
	return c.create(ctx, KindClassification, createRequestBody{FileIDs: fileIDs})
}

// CreateLanguage starts one language detection request per file.
func (c *Client) CreateLanguage(ctx context.Context, fileIDs []string) ([]*Request, error) {
	return c.create(ctx, KindLanguage, createRequestBody{FileIDs: fileIDs})
}

// CreateExtraction starts one field extraction request per file covering
// every field in fieldIDs.
func (c *Client) CreateExtraction(ctx context.Context, fileIDs, fieldIDs []string) ([]*Request, error) {
	if len(fieldIDs) == 0 {
		return nil, fmt.Errorf("failed to create extraction requests: no field ids")
	}
	return c.create(ctx, KindExtraction, createRequestBody{FileIDs: fileIDs, FieldIDs: fieldIDs})
}

// Refresh reloads the status of r in place.
func (c *Client) Refresh(ctx context.Context, r *Request) error {
	path := "/" + string(r.Kind) + "/" + url.PathEscape(r.ID)
	if r.Kind == KindTraining {
		path = "/fields/" + url.PathEscape(r.FieldID) + "/train/" + url.PathEscape(r.ID)
	}

	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return fmt.Errorf("failed to refresh %s request %s: %w", r.Kind, r.ID, err)
	}

	// Classification nests its status under classification_result.
	var env struct {
		requestStatus
		ClassificationResult *requestStatus `json:"classification_result"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse %s request %s: %w", r.Kind, r.ID, err)
	}
	if env.ClassificationResult != nil {
		env.ClassificationResult.apply(r)
	} else {
		env.requestStatus.apply(r)
	}
	return nil
}
