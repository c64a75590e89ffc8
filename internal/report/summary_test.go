package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
	"github.com/leadworks/lead-intel-pipeline/internal/report"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	rows := []pipeline.EnrichedLead{
		{Urgency: "High", PersonaType: "Decision Maker", AssignedTeam: "Strategic Sales"},
		{Urgency: "High", PersonaType: "Practitioner", AssignedTeam: "Enterprise Sales"},
		{Urgency: "Medium", PersonaType: "Practitioner", AssignedTeam: "Sales Development"},
		{Urgency: "Low", PersonaType: "Other", AssignedTeam: "Nurture Campaign"},
		{AssignedTeam: "Unassigned"},
	}

	s := report.Summarize(rows)
	if s.Total != 5 {
		t.Fatalf("Total = %d, want 5", s.Total)
	}
	if s.HighUrgency != 2 {
		t.Fatalf("HighUrgency = %d, want 2", s.HighUrgency)
	}
	if s.DecisionMakers != 1 {
		t.Fatalf("DecisionMakers = %d, want 1", s.DecisionMakers)
	}
	if s.ByUrgency["High"] != 2 || s.ByUrgency["Medium"] != 1 || s.ByUrgency["Low"] != 1 || s.ByUrgency["(none)"] != 1 {
		t.Fatalf("unexpected ByUrgency: %#v", s.ByUrgency)
	}
	if s.ByPersona["Practitioner"] != 2 {
		t.Fatalf("unexpected ByPersona: %#v", s.ByPersona)
	}
	if s.ByTeam["Strategic Sales"] != 1 || s.ByTeam["Unassigned"] != 1 {
		t.Fatalf("unexpected ByTeam: %#v", s.ByTeam)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := report.Summarize(nil)
	if s.Total != 0 || len(s.ByTeam) != 0 {
		t.Fatalf("unexpected summary for empty input: %#v", s)
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	rows := []pipeline.EnrichedLead{
		{Urgency: "High", PersonaType: "Decision Maker", AssignedTeam: "Strategic Sales"},
		{Urgency: "Low", PersonaType: "Other", AssignedTeam: "Nurture Campaign"},
	}

	var buf bytes.Buffer
	if err := report.Summarize(rows).WriteText(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Total leads:          2",
		"High urgency leads:   1",
		"Decision makers:      1",
		"By assigned team:",
		"Strategic Sales",
		"Nurture Campaign",
		"By urgency:",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
