// Package batch provides fixed-size chunking of stream IDs and bounded
// concurrent execution of batch workers. Batches are the unit of both
// concurrency scheduling and failure containment.
package batch

import "github.com/sbaum1994/lightstep-stream-deletion-script/model"

// Split chunks ids into batches of at most size elements, preserving input
// order. An empty input produces no batches; an input no larger than size
// produces exactly one batch.
func Split(ids []model.StreamID, size int) [][]model.StreamID {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 || len(ids) <= size {
		return [][]model.StreamID{ids}
	}

	batches := make([][]model.StreamID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
