package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
)

// JSONSink persists the enriched dataset as a single JSON artifact.
//
// The write is atomic: rows are marshaled to a temp file in the target
// directory and renamed into place, so a consumer can never observe a
// partially written artifact as finished.
type JSONSink struct {
	Path string
}

func (s JSONSink) Store(_ context.Context, rows []pipeline.EnrichedLead) error {
	if rows == nil {
		// An empty run still produces a valid, self-describing snapshot.
		rows = []pipeline.EnrichedLead{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal enriched leads: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".enriched-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// ReadEnrichedJSON decodes a previously persisted artifact.
func ReadEnrichedJSON(r io.Reader) ([]pipeline.EnrichedLead, error) {
	var rows []pipeline.EnrichedLead
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode enriched leads: %w", err)
	}
	return rows, nil
}

// LoadEnrichedJSON reads an artifact from disk.
func LoadEnrichedJSON(path string) ([]pipeline.EnrichedLead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open enriched artifact: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadEnrichedJSON(f)
}
