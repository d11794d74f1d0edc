package processor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sbaum1994/lightstep-stream-deletion-script/batch"
	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/ledger"
	"github.com/sbaum1994/lightstep-stream-deletion-script/logger"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
	"github.com/sbaum1994/lightstep-stream-deletion-script/streams"
)

// Runner drives one deletion run: list (or resume) -> classify -> checkpoint
// -> delete -> checkpoint -> report. Classification and deletion failures
// are contained at the batch boundary and recorded in the ledger; only
// checkpoint I/O and the initial listing abort the run.
type Runner struct {
	store   ledger.Store
	streams streams.Provider
	log     logger.Logger
	run     *config.RunConfig
	window  model.RunWindow
}

// NewRunner creates a new Runner with the provided dependencies
func NewRunner(store ledger.Store, provider streams.Provider, log logger.Logger, run *config.RunConfig, window model.RunWindow) *Runner {
	// Use NoOpLogger if none provided
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	run.ApplyDefaults()

	return &Runner{
		store:   store,
		streams: provider,
		log:     log,
		run:     run,
		window:  window,
	}
}

// ClassifyStats contains statistics from the classify phase
type ClassifyStats struct {
	TotalStreams  int64 // Streams submitted to the classify phase
	Inactive      int64 // Classified inactive (deletion candidates)
	Active        int64 // Found active, removed from the ledger
	FailedBatches int64 // Batches abandoned after a sub-request failure
	MarkedUnknown int64 // Streams marked unknown by failed batches
}

func (s *ClassifyStats) String() string {
	return fmt.Sprintf("Classify: total=%d, inactive=%d, active(removed)=%d, failed_batches=%d, unknown=%d",
		s.TotalStreams, s.Inactive, s.Active, s.FailedBatches, s.MarkedUnknown)
}

// ActStats contains statistics from the delete phase
type ActStats struct {
	Candidates  int64 // Inactive streams eligible for deletion
	Deleted     int64 // Streams successfully deleted (actual mode)
	Failed      int64 // Delete calls that failed (actual mode)
	WouldDelete int64 // Streams that would be deleted (dry-run mode)
	DryRun      bool
}

func (s *ActStats) String() string {
	if s.DryRun {
		return fmt.Sprintf("Delete (dry-run): candidates=%d, would_delete=%d", s.Candidates, s.WouldDelete)
	}
	return fmt.Sprintf("Delete: candidates=%d, deleted=%d, failed=%d", s.Candidates, s.Deleted, s.Failed)
}

// Run executes one full deletion run. On a fresh run the candidate set
// comes from the API listing; on resume it is the unknown entries of the
// loaded checkpoint. The checkpoint is written after each phase no matter
// how many batches failed, so an interrupted or rate-limited run can always
// be resumed.
func (r *Runner) Run(ctx context.Context) error {
	var (
		led        *ledger.Ledger
		candidates []model.StreamID
	)

	if r.run.Resume {
		r.log.Info("Resuming from checkpoint")
		snapshot, err := r.store.Load()
		if err != nil {
			return fmt.Errorf("cannot resume: %w", err)
		}
		led = ledger.FromSnapshot(snapshot)
		candidates = led.IDsWithStatus(model.StatusUnknown)
		r.log.Info("Checkpoint loaded: %d entries, %d unknown to re-classify", led.Len(), len(candidates))
	} else {
		r.log.Info("Listing deletion candidates")
		var err error
		candidates, err = r.streams.ListCandidates(ctx)
		if err != nil {
			return fmt.Errorf("failed to list candidate streams: %w", err)
		}
		led = ledger.New()
		r.log.Info("Found %d candidate streams", len(candidates))
	}

	// 1. Classify
	r.log.Debug("Step 1: Classifying stream activity")
	classifyStats := r.classify(ctx, candidates, led)
	r.log.Info(classifyStats.String())

	// 2. Checkpoint, unconditionally: failed batches left unknown entries
	// behind and a later resume must be able to pick them up.
	if err := r.store.Save(led.Snapshot()); err != nil {
		return fmt.Errorf("failed to write checkpoint after classify: %w", err)
	}
	r.log.Debug("Step 2: Checkpoint written after classify")

	// 3. Delete inactive streams (skipped entirely under dry-run)
	if r.run.DryRun {
		r.log.Debug("Step 3: Deleting inactive streams (dry-run mode)")
	} else {
		r.log.Debug("Step 3: Deleting inactive streams")
	}
	actStats := r.act(ctx, led)
	r.log.Info(actStats.String())

	// 4. Checkpoint again, also unconditionally
	if err := r.store.Save(led.Snapshot()); err != nil {
		return fmt.Errorf("failed to write checkpoint after delete: %w", err)
	}
	r.log.Debug("Step 4: Checkpoint written after delete")

	// 5. Report
	r.report(led)
	return nil
}

// ================== CLASSIFY PHASE ==================

func (r *Runner) classify(ctx context.Context, ids []model.StreamID, led *ledger.Ledger) *ClassifyStats {
	stats := &ClassifyStats{TotalStreams: int64(len(ids))}
	if len(ids) == 0 {
		r.log.Info("No streams to classify")
		return stats
	}

	batches := batch.Split(ids, r.run.BatchSize)
	r.log.Debug("Classifying %d streams in %d batches, %d in flight", len(ids), len(batches), r.run.Concurrency)

	// Start periodic RPS logging
	rpsTicker := time.NewTicker(1 * time.Second)
	defer rpsTicker.Stop()

	rpsCtx, rpsCancel := context.WithCancel(ctx)
	defer rpsCancel()

	go func() {
		for {
			select {
			case <-rpsCtx.Done():
				return
			case <-rpsTicker.C:
				rps := r.streams.GetCurrentRPS()
				if rps > 0 {
					r.log.Info("Streams API: current RPS = %d req/s", rps)
				}
			}
		}
	}()

	batch.RunBatches(ctx, batches, r.run.Concurrency, func(ctx context.Context, b []model.StreamID) {
		r.classifyBatch(ctx, b, led, stats)
	})

	return stats
}

// classifyBatch queries activity for every stream in the batch in parallel.
// If any sub-request fails, the per-stream results for the whole batch are
// abandoned and every stream in it is marked unknown: under rate limiting a
// partial retry is not worth the complexity, and unknown entries are
// re-classified on the next resume.
func (r *Runner) classifyBatch(ctx context.Context, b []model.StreamID, led *ledger.Ledger, stats *ClassifyStats) {
	active := make([]bool, len(b))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range b {
		i, id := i, id
		g.Go(func() error {
			isActive, err := r.streams.QueryActivity(gctx, id, r.window)
			if err != nil {
				return fmt.Errorf("stream %s: %w", id, err)
			}
			active[i] = isActive
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, id := range b {
			led.MarkUnknown(id)
		}
		atomic.AddInt64(&stats.FailedBatches, 1)
		atomic.AddInt64(&stats.MarkedUnknown, int64(len(b)))
		r.log.Warn("Classify batch of %d streams failed, all marked unknown: %v", len(b), err)
		return
	}

	for i, id := range b {
		if active[i] {
			// Active streams are not deletion candidates at all, they
			// leave the ledger instead of being tracked as "known active"
			led.Remove(id)
			atomic.AddInt64(&stats.Active, 1)
			r.log.Verbose("Stream %s is active, removed from ledger", id)
		} else {
			led.MarkInactive(id)
			atomic.AddInt64(&stats.Inactive, 1)
			r.log.Verbose("Stream %s is inactive", id)
		}
	}
}

// ================== DELETE PHASE ==================

func (r *Runner) act(ctx context.Context, led *ledger.Ledger) *ActStats {
	stats := &ActStats{DryRun: r.run.DryRun}

	candidates := led.IDsWithStatus(model.StatusInactive)
	stats.Candidates = int64(len(candidates))

	if len(candidates) == 0 {
		r.log.Info("No inactive streams to delete")
		return stats
	}

	if r.run.DryRun {
		stats.WouldDelete = stats.Candidates
		r.log.Info("Dry-run mode: would delete %d inactive streams", len(candidates))
		for _, id := range candidates {
			r.log.Verbose("Would delete: %s", id)
		}
		return stats
	}

	r.log.Info("Deleting %d inactive streams", len(candidates))

	batches := batch.Split(candidates, r.run.BatchSize)
	batch.RunBatches(ctx, batches, r.run.Concurrency, func(ctx context.Context, b []model.StreamID) {
		r.actBatch(ctx, b, led, stats)
	})

	return stats
}

// actBatch issues the delete calls for the batch in parallel. Each stream
// records its own outcome: confirmed deletes become terminal, failures keep
// their prior status for the next resume, and one failure never stops the
// rest of the batch or its siblings.
func (r *Runner) actBatch(ctx context.Context, b []model.StreamID, led *ledger.Ledger, stats *ActStats) {
	var (
		g      errgroup.Group
		failed int64
	)

	for _, id := range b {
		id := id
		g.Go(func() error {
			if err := r.streams.Delete(ctx, id); err != nil {
				atomic.AddInt64(&stats.Failed, 1)
				atomic.AddInt64(&failed, 1)
				r.log.Warn("Failed to delete stream %s, keeping prior status: %v", id, err)
				return nil
			}
			led.MarkDeleted(id)
			atomic.AddInt64(&stats.Deleted, 1)
			r.log.Debug("Deleted stream %s", id)
			return nil
		})
	}
	_ = g.Wait()

	if n := atomic.LoadInt64(&failed); n > 0 {
		r.log.Warn("Delete batch finished with %d contained failures", n)
	}
}

// ================== REPORT ==================

const maxReportedStreams = 20 // Limit number of streams listed individually

func (r *Runner) report(led *ledger.Ledger) {
	unknown, inactive, deleted := led.Partition()

	r.log.Info("Run summary: unknown=%d, inactive=%d, deleted=%d",
		len(unknown), len(inactive), len(deleted))

	r.reportGroup("Unknown (retry with -resume)", unknown)
	if r.run.DryRun {
		r.reportGroup("Inactive (would be deleted)", inactive)
	} else {
		r.reportGroup("Inactive (delete failed or pending)", inactive)
	}
	r.reportGroup("Deleted", deleted)
}

func (r *Runner) reportGroup(label string, ids []model.StreamID) {
	if len(ids) == 0 {
		return
	}
	r.log.Info("%s: %d streams", label, len(ids))
	for i, id := range ids {
		if i >= maxReportedStreams {
			r.log.Debug("... and %d more streams", len(ids)-maxReportedStreams)
			break
		}
		r.log.Debug("  - %s", id)
	}
}
