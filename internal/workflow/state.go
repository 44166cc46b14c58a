package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/docai/internal/docai"
)

// DefaultStateDir holds run state relative to the working directory.
const DefaultStateDir = ".docai/runs"

// FileRecord is an uploaded file.
type FileRecord struct {
	Name string `json:"name"`
	ID   string `json:"file_id"`
}

// RequestRecord is a request created during a run.
type RequestRecord struct {
	Kind   docai.Kind   `json:"kind"`
	ID     string       `json:"request_id"`
	FileID string       `json:"file_id"`
	Status docai.Status `json:"status"`
}

// Session is the persisted state of one workflow run.
type Session struct {
	ID          string          `json:"id"`
	Workflow    string          `json:"workflow"`
	StartedAt   time.Time       `json:"started_at"`
	LastUpdated time.Time       `json:"last_updated"`
	FieldIDs    []string        `json:"field_ids,omitempty"`
	Files       []FileRecord    `json:"files"`
	Requests    []RequestRecord `json:"requests"`
}

// AddFile records an upload.
func (s *Session) AddFile(f *docai.File) {
	s.Files = append(s.Files, FileRecord{Name: f.Name, ID: f.ID})
}

// SetRequests replaces the recorded requests with reqs.
func (s *Session) SetRequests(reqs []*docai.Request) {
	s.Requests = s.Requests[:0]
	for _, r := range reqs {
		s.Requests = append(s.Requests, RequestRecord{Kind: r.Kind, ID: r.ID, FileID: r.FileID, Status: r.Status})
	}
}

// PendingRequests rebuilds the recorded requests as unfinished so the next
// poll refreshes every one of them.
func (s *Session) PendingRequests() []*docai.Request {
	reqs := make([]*docai.Request, 0, len(s.Requests))
	for _, rec := range s.Requests {
		reqs = append(reqs, &docai.Request{Kind: rec.Kind, ID: rec.ID, FileID: rec.FileID, Status: docai.StatusQueued})
	}
	return reqs
}

// StateManager persists sessions as JSON files, one per run.
type StateManager struct {
	baseDir string
}

// NewStateManager creates a StateManager rooted at baseDir.
func NewStateManager(baseDir string) *StateManager {
	if baseDir == "" {
		baseDir = DefaultStateDir
	}
	return &StateManager{baseDir: baseDir}
}

// NewSession starts and saves a new session.
func (sm *StateManager) NewSession(workflow string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		Workflow:  workflow,
		StartedAt: now,
	}
	if err := sm.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the session.
func (sm *StateManager) Save(s *Session) error {
	if err := os.MkdirAll(sm.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	s.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	if err := os.WriteFile(sm.path(s.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// Load reads the session with the given id.
func (sm *StateManager) Load(id string) (*Session, error) {
	data, err := os.ReadFile(sm.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read run state %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse run state %s: %w", id, err)
	}
	return &s, nil
}

// Latest returns the most recently updated session of workflow.
func (sm *StateManager) Latest(workflow string) (*Session, error) {
	entries, err := os.ReadDir(sm.baseDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no %s runs recorded", workflow)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list run state: %w", err)
	}

	var sessions []*Session
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		s, err := sm.Load(id)
		if err != nil {
			continue
		}
		if s.Workflow == workflow {
			sessions = append(sessions, s)
		}
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no %s runs recorded", workflow)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
	})
	return sessions[0], nil
}

func (sm *StateManager) path(id string) string {
	return filepath.Join(sm.baseDir, id+".json")
}
