// Package report aggregates an enriched dataset for operator-facing
// reporting: the same totals and breakdowns the lead dashboard renders.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
)

type Summary struct {
	Total          int
	HighUrgency    int
	DecisionMakers int

	ByUrgency map[string]int
	ByPersona map[string]int
	ByTeam    map[string]int
}

// Summarize computes aggregate counts over an enriched dataset.
func Summarize(rows []pipeline.EnrichedLead) Summary {
	s := Summary{
		ByUrgency: make(map[string]int),
		ByPersona: make(map[string]int),
		ByTeam:    make(map[string]int),
	}
	for _, row := range rows {
		s.Total++
		s.ByUrgency[orUnknown(row.Urgency)]++
		s.ByPersona[orUnknown(row.PersonaType)]++
		s.ByTeam[orUnknown(row.AssignedTeam)]++
		if row.Urgency == "High" {
			s.HighUrgency++
		}
		if row.PersonaType == "Decision Maker" {
			s.DecisionMakers++
		}
	}
	return s
}

func orUnknown(label string) string {
	if strings.TrimSpace(label) == "" {
		return "(none)"
	}
	return label
}

// WriteText renders the summary as plain text with stable ordering.
func (s Summary) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Total leads:          %d\n", s.Total); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "High urgency leads:   %d\n", s.HighUrgency); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Decision makers:      %d\n", s.DecisionMakers); err != nil {
		return err
	}
	for _, section := range []struct {
		title  string
		counts map[string]int
	}{
		{"By assigned team", s.ByTeam},
		{"By persona type", s.ByPersona},
		{"By urgency", s.ByUrgency},
	} {
		if _, err := fmt.Fprintf(w, "\n%s:\n", section.title); err != nil {
			return err
		}
		for _, key := range sortedKeys(section.counts) {
			if _, err := fmt.Fprintf(w, "  %-20s %d\n", key, section.counts[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
