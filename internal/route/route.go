// Package route maps a classification outcome to the sales team that owns
// the lead.
package route

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Engine is the routing rule engine. It is pure and deterministic apart from
// the injected default team, so it is safe to share across goroutines.
type Engine struct {
	// DefaultTeam receives every lead no specific rule claims.
	DefaultTeam string
}

// normalize trims surrounding whitespace and title-cases the label so the
// decision table matches regardless of how the oracle cased its output.
// Absent input normalizes to "", which matches no specific rule.
func normalize(s string) string {
	// cases.Caser is not safe for concurrent use; build one per call.
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// AssignTeam applies the routing decision table top to bottom, first match
// wins.
//
// High urgency with an "Other" persona deliberately falls through to the
// default team rather than a High-specific queue: a non-business contact is
// not worth an enterprise seller's time however eager the message reads.
func (e Engine) AssignTeam(urgency, persona string) string {
	u := normalize(urgency)
	p := normalize(persona)

	switch {
	case u == "High" && p == "Decision Maker":
		return "Strategic Sales"
	case u == "High" && p == "Practitioner":
		return "Enterprise Sales"
	case u == "Medium":
		return "Sales Development"
	case u == "Low":
		return "Nurture Campaign"
	default:
		return e.DefaultTeam
	}
}
