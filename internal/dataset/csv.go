// Package dataset is the I/O boundary: it reads the raw lead table and
// persists the enriched output artifact.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
)

// ReadLeadsCSV reads the raw lead table. The header must contain email,
// job_title and comment columns (case-insensitive, any order); cells missing
// from short rows are coerced to "".
func ReadLeadsCSV(r io.Reader) ([]pipeline.RawLead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"email", "job_title", "comment"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var leads []pipeline.RawLead
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(leads)+1, err)
		}
		get := func(col string) string {
			i := index[col]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		leads = append(leads, pipeline.RawLead{
			Email:    get("email"),
			JobTitle: get("job_title"),
			Comment:  get("comment"),
		})
	}
	return leads, nil
}

// CSVSource reads raw leads from a CSV file on disk.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(_ context.Context) ([]pipeline.RawLead, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open input dataset: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadLeadsCSV(f)
}
