package recording

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Bundle layout. Info paths resolve against these locations.
const (
	// OperationsFile holds the ordered operation records.
	OperationsFile = "operations.json"

	// MetadataFile holds the session summary.
	MetadataFile = "metadata.json"

	// ScreenshotsDir holds per-step screenshot captures.
	ScreenshotsDir = "screenshots"

	// HTMLDir holds per-step HTML snapshots.
	HTMLDir = "html"

	// DefaultMaxHTMLBytes caps the size of a stored HTML snapshot.
	DefaultMaxHTMLBytes = 200_000
)

// metadata is the persisted session summary, written alongside the
// operation log when a session is finalized.
type metadata struct {
	SessionID string        `json:"session_id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	StoppedAt time.Time     `json:"stopped_at"`
	Stats     metadataStats `json:"statistics"`
}

type metadataStats struct {
	TotalOperations  int      `json:"total_operations"`
	TotalScreenshots int      `json:"total_screenshots"`
	DurationSeconds  float64  `json:"session_duration_seconds"`
	PagesVisited     []string `json:"pages_visited"`
}

// flushLocked serializes the operation log and metadata into the bundle
// directory. Callers must hold s.mu.
func (s *Session) flushLocked() error {
	if err := writeJSON(filepath.Join(s.bundleDir, OperationsFile), s.operations); err != nil {
		return err
	}

	stopped := time.Now()
	var duration float64
	if len(s.operations) > 0 {
		duration = s.operations[len(s.operations)-1].Timestamp.Sub(s.operations[0].Timestamp).Seconds()
	}

	seen := make(map[string]bool)
	var pages []string
	for _, op := range s.operations {
		if op.PageURL != "" && !seen[op.PageURL] {
			seen[op.PageURL] = true
			pages = append(pages, op.PageURL)
		}
	}

	meta := metadata{
		SessionID: uuid.New().String(),
		Name:      s.name,
		CreatedAt: s.createdAt,
		StoppedAt: stopped,
		Stats: metadataStats{
			TotalOperations:  len(s.operations),
			TotalScreenshots: len(s.screenshots),
			DurationSeconds:  duration,
			PagesVisited:     pages,
		},
	}
	return writeJSON(filepath.Join(s.bundleDir, MetadataFile), meta)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}
