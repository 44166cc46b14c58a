package docai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// OCRLayouts downloads the binary layout payload of a completed OCR request.
func (c *Client) OCRLayouts(ctx context.Context, requestID string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, "/ocr/"+url.PathEscape(requestID)+"/layouts", "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get layouts for %s: %w", requestID, err)
	}
	return body, nil
}

// OCRText downloads the plain text of a completed OCR request.
func (c *Client) OCRText(ctx context.Context, requestID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/ocr/"+url.PathEscape(requestID)+"/text", "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get text for %s: %w", requestID, err)
	}

	// The text endpoint answers with {"text": "..."}; older deployments
	// return the bare text.
	var wrapped struct {
		Text *string `json:"text"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Text != nil {
		return *wrapped.Text, nil
	}
	return string(body), nil
}

// OCRPageImage downloads the rendered image of page (1-based).
func (c *Client) OCRPageImage(ctx context.Context, requestID string, page int) ([]byte, error) {
	path := "/ocr/" + url.PathEscape(requestID) + "/images/" + strconv.Itoa(page)
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get image of page %d for %s: %w", page, requestID, err)
	}
	return body, nil
}

// PageRange is an inclusive range of page numbers.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (p PageRange) String() string {
	if p.Start == p.End {
		return strconv.Itoa(p.Start)
	}
	return fmt.Sprintf("%d-%d", p.Start, p.End)
}

// Span locates extracted text in the document character index space.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Pages PageRange `json:"pages"`
}

// DefinedTerm is a term the document defines for an extraction.
type DefinedTerm struct {
	Term  string `json:"term"`
	Spans []Span `json:"spans"`
}

// Extraction is one piece of text found for a field.
type Extraction struct {
	Text        string       `json:"text"`
	Spans       []Span       `json:"spans"`
	DefinedTerm *DefinedTerm `json:"defined_term,omitempty"`
}

// FieldResult holds the extractions of one field.
type FieldResult struct {
	FieldID     string       `json:"field_id"`
	Extractions []Extraction `json:"extractions"`
}

type extractionResults struct {
	FileID    string        `json:"file_id"`
	RequestID string        `json:"request_id"`
	Results   []FieldResult `json:"results"`
}

// ExtractionResults downloads the text results of a completed extraction
// request.
func (c *Client) ExtractionResults(ctx context.Context, requestID string) ([]FieldResult, error) {
	var resp extractionResults
	if err := c.doJSON(ctx, http.MethodGet, "/extraction/"+url.PathEscape(requestID)+"/results/text", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get extraction results for %s: %w", requestID, err)
	}
	return resp.Results, nil
}
