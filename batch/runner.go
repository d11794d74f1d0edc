package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

// RunBatches executes worker over every batch with at most limit batches in
// flight. As a batch finishes, the next queued one starts.
//
// Workers do not return errors: a failing batch records its outcome into
// shared state (the ledger) and must not cancel or block sibling batches.
// RunBatches returns only after every batch has completed.
func RunBatches(ctx context.Context, batches [][]model.StreamID, limit int, worker func(ctx context.Context, b []model.StreamID)) {
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for _, b := range batches {
		b := b
		g.Go(func() error {
			worker(ctx, b)
			return nil
		})
	}

	// Workers never return errors, Wait is only for draining
	_ = g.Wait()
}
