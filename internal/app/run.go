// Package app orchestrates one pipeline run: load raw leads, enrich them,
// persist the artifact.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/leadworks/lead-intel-pipeline/internal/classify"
	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
	"github.com/leadworks/lead-intel-pipeline/internal/route"
	"github.com/leadworks/lead-intel-pipeline/pkg/pipeline/core"
)

// Run executes one enrichment run end to end.
//
// Nothing is written to the sink unless the whole batch succeeds, so a fatal
// error mid-run never leaves a half-populated artifact behind.
func Run(
	ctx context.Context,
	logger *log.Logger,
	src core.Source[pipeline.RawLead],
	sink core.Sink[pipeline.EnrichedLead],
	classifier classify.Classifier,
	router route.Engine,
	opts pipeline.Options,
) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	logf := func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		logger.Printf("run=%s "+format, prefix...)
	}
	runStart := time.Now()
	logf(
		"run start: workers=%d maxRetries=%d timeout=%s rateLimitRPS=%g skipFailed=%t defaultTeam=%q",
		opts.Workers,
		opts.MaxRetries,
		opts.RequestTimeout,
		opts.RateLimitRPS,
		opts.SkipFailed,
		router.DefaultTeam,
	)

	readStart := time.Now()
	leads, err := src.Load(ctx)
	if err != nil {
		return err
	}
	logf("loaded %d leads in %s", len(leads), time.Since(readStart).Round(time.Millisecond))

	userProgress := opts.OnProgress
	opts.OnProgress = func(done, total int) {
		logf("leads processed: %d/%d", done, total)
		if userProgress != nil {
			userProgress(done, total)
		}
	}

	enrichStart := time.Now()
	rows, err := pipeline.EnrichLeads(ctx, leads, classifier, router, opts)
	if err != nil {
		return err
	}
	logf("enrichment complete: produced=%d duration=%s", len(rows), time.Since(enrichStart).Round(time.Millisecond))

	writeStart := time.Now()
	if err := sink.Store(ctx, rows); err != nil {
		return err
	}
	logf(
		"run complete: wrote %d enriched leads writeDuration=%s totalDuration=%s",
		len(rows),
		time.Since(writeStart).Round(time.Millisecond),
		time.Since(runStart).Round(time.Millisecond),
	)
	return nil
}
