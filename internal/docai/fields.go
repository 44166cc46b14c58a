package docai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Field is an extraction model, built in or custom trained.
type Field struct {
	ID            string  `json:"field_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Bias          float64 `json:"bias"`
	FScore        float64 `json:"f_score"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	DocumentCount int     `json:"document_count"`
	IsCustom      bool    `json:"is_custom"`
	IsTrained     bool    `json:"is_trained"`
}

// ListFields returns every field available to the account.
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var fields []Field
	if err := c.doJSON(ctx, http.MethodGet, "/fields", nil, &fields); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return fields, nil
}

// FieldIDsByName returns the ids of the fields whose name is in names, in the
// order of names, and the names that matched no field.
func FieldIDsByName(fields []Field, names []string) (ids []string, missing []string) {
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[f.Name] = f.ID
	}
	for _, n := range names {
		if id, ok := byName[n]; ok {
			ids = append(ids, id)
		} else {
			missing = append(missing, n)
		}
	}
	return ids, missing
}

// CreateField creates an untrained custom field and returns its id.
func (c *Client) CreateField(ctx context.Context, name, description string) (string, error) {
	in := struct {
		Name        string `json:"field_name"`
		Description string `json:"description,omitempty"`
	}{name, description}
	var out struct {
		FieldID string `json:"field_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/fields", in, &out); err != nil {
		return "", fmt.Errorf("failed to create field %q: %w", name, err)
	}
	return out.FieldID, nil
}

// Location is a half-open character range in a file's text.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Annotation marks where a field occurs in one training file.
type Annotation struct {
	FileID    string     `json:"file_id"`
	Locations []Location `json:"locations"`
}

// TrainField starts training fieldID on the annotated files. The returned
// request is refreshed like any other.
func (c *Client) TrainField(ctx context.Context, fieldID string, annotations []Annotation) (*Request, error) {
	var out requestStatus
	if err := c.doJSON(ctx, http.MethodPost, "/fields/"+url.PathEscape(fieldID)+"/train", annotations, &out); err != nil {
		return nil, fmt.Errorf("failed to train field %s: %w", fieldID, err)
	}
	r := &Request{Kind: KindTraining, FieldID: fieldID}
	out.apply(r)
	return r, nil
}

// Accuracy summarises how well a trained field performs.
type Accuracy struct {
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	FScore       float64 `json:"f_score"`
	ExampleCount int     `json:"example_count"`
}

// FieldAccuracy returns the accuracy of a trained field.
func (c *Client) FieldAccuracy(ctx context.Context, fieldID string) (*Accuracy, error) {
	var a Accuracy
	if err := c.doJSON(ctx, http.MethodGet, "/fields/"+url.PathEscape(fieldID)+"/accuracy", nil, &a); err != nil {
		return nil, fmt.Errorf("failed to get accuracy of field %s: %w", fieldID, err)
	}
	return &a, nil
}

// FieldMetadata describes a field and the files it was trained on.
type FieldMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	FileIDs     []string `json:"file_ids"`
}

// FieldMetadata returns the metadata of a field.
func (c *Client) FieldMetadata(ctx context.Context, fieldID string) (*FieldMetadata, error) {
	var m FieldMetadata
	if err := c.doJSON(ctx, http.MethodGet, "/fields/"+url.PathEscape(fieldID)+"/metadata", nil, &m); err != nil {
		return nil, fmt.Errorf("failed to get metadata of field %s: %w", fieldID, err)
	}
	return &m, nil
}

// ValidationDetail is one outcome of validating a trained field against its
// training annotations (tp, fp or fn).
type ValidationDetail struct {
	FileID   string `json:"file_id"`
	Type     string `json:"type"`
	Location struct {
		CharacterStart int `json:"character_start"`
		CharacterEnd   int `json:"character_end"`
	} `json:"location"`
}

// FieldValidationDetails returns per-annotation validation outcomes.
func (c *Client) FieldValidationDetails(ctx context.Context, fieldID string) ([]ValidationDetail, error) {
	var details []ValidationDetail
	if err := c.doJSON(ctx, http.MethodGet, "/fields/"+url.PathEscape(fieldID)+"/validation-details", nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get validation details of field %s: %w", fieldID, err)
	}
	return details, nil
}
