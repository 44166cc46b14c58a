package docai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// File is a document stored on the API side.
type File struct {
	ID          string            `json:"file_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Permissions []string          `json:"permissions,omitempty"`
	Expiration  time.Time         `json:"expiration"`

	// Name is the local file name. It is never sent to the API.
	Name string `json:"-"`
}

// CreateFile uploads content and returns the stored file. name is kept
// locally to label results.
func (c *Client) CreateFile(ctx context.Context, name string, content []byte) (*File, error) {
	body, err := c.do(ctx, http.MethodPost, "/files", contentTypeFor(name), content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}

	var f File
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("failed to parse upload response for %s: %w", name, err)
	}
	f.Name = name

	c.log.WithField("file_id", f.ID).WithField("name", name).Info("file uploaded")
	return &f, nil
}

// DeleteFile removes a stored file ahead of its expiration.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/files/"+url.PathEscape(fileID), "", nil); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
