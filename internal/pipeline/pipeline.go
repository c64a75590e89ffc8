// Package pipeline drives lead enrichment: one classification and one
// routing decision per raw lead, producing the stable output record shape.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/leadworks/lead-intel-pipeline/internal/classify"
	"github.com/leadworks/lead-intel-pipeline/internal/route"
	"github.com/leadworks/lead-intel-pipeline/pkg/pipeline/worker"
)

// RawLead is one inbound record as read from the input dataset. Fields are
// opaque, unvalidated text; any of them may be empty.
type RawLead struct {
	Email    string
	JobTitle string
	Comment  string
}

// EnrichedLead is the unit of output: the raw lead, the oracle's
// classification and the routed team. Exactly these seven fields appear in
// the persisted artifact.
type EnrichedLead struct {
	Email        string `json:"email"`
	JobTitle     string `json:"job_title"`
	Comment      string `json:"comment"`
	Urgency      string `json:"urgency"`
	PersonaType  string `json:"persona_type"`
	Summary      string `json:"summary"`
	AssignedTeam string `json:"assigned_team"`
}

type Options struct {
	// Workers is the number of concurrent oracle calls. The default of 1
	// processes leads strictly sequentially.
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64

	// SkipFailed emits leads whose classification failed with empty
	// classification fields, letting routing fall to the default team,
	// instead of aborting the whole run on the first failure. Either way the
	// output keeps one record per input lead.
	SkipFailed bool

	// OnProgress, if set, is called after each lead completes with the number
	// finished so far. Advisory only; it runs on a single goroutine.
	OnProgress func(done, total int)
}

type numbered struct {
	idx  int
	lead RawLead
}

// EnrichLeads classifies and routes every lead, preserving input order.
//
// On success len(output) == len(leads) and output[i] corresponds to
// leads[i]. With SkipFailed unset, the first classification failure aborts
// the run and the error names the lead being processed.
func EnrichLeads(
	ctx context.Context,
	leads []RawLead,
	classifier classify.Classifier,
	router route.Engine,
	opts Options,
) ([]EnrichedLead, error) {
	policy := worker.FailurePolicyFailFast
	if opts.SkipFailed {
		policy = worker.FailurePolicyPartialOutput
	}

	items := make([]numbered, len(leads))
	for i, lead := range leads {
		items[i] = numbered{idx: i, lead: lead}
	}

	process := func(reqCtx context.Context, n numbered) (classify.Result, error) {
		res, err := classifier.Classify(reqCtx, n.lead.JobTitle, n.lead.Comment)
		if err != nil {
			return res, fmt.Errorf("lead %d (%s): %w", n.idx+1, n.lead.Email, err)
		}
		return res, nil
	}

	var onDone func(worker.Result[numbered, classify.Result]) error
	if opts.OnProgress != nil {
		completed := 0
		onDone = func(worker.Result[numbered, classify.Result]) error {
			completed++
			opts.OnProgress(completed, len(leads))
			return nil
		}
	}

	results, err := worker.RunWithCallback(ctx, items, process, onDone, worker.Options{
		Workers:        opts.Workers,
		MaxRetries:     opts.MaxRetries,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
		FailurePolicy:  policy,
	})
	if err != nil {
		return nil, err
	}

	out := make([]EnrichedLead, 0, len(results))
	for _, item := range results {
		lead := item.Input.lead
		row := EnrichedLead{
			Email:    lead.Email,
			JobTitle: lead.JobTitle,
			Comment:  lead.Comment,
		}
		if item.Err == nil {
			row.Urgency = item.Output.Urgency
			row.PersonaType = item.Output.PersonaType
			row.Summary = item.Output.Summary
		}
		// A failed classification leaves urgency/persona empty, so the
		// router's default branch applies.
		row.AssignedTeam = router.AssignTeam(row.Urgency, row.PersonaType)
		out = append(out, row)
	}
	return out, nil
}
