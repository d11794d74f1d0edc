package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

func makeIDs(n int) []model.StreamID {
	ids := make([]model.StreamID, n)
	for i := range ids {
		ids[i] = model.StreamID(fmt.Sprintf("stream-%03d", i))
	}
	return ids
}

func TestSplit_Empty(t *testing.T) {
	batches := Split(nil, 10)
	require.Empty(t, batches)

	batches = Split([]model.StreamID{}, 10)
	require.Empty(t, batches)
}

func TestSplit_SingleBatchWhenInputFits(t *testing.T) {
	ids := makeIDs(7)

	batches := Split(ids, 10)
	require.Len(t, batches, 1)
	require.Equal(t, ids, batches[0])

	// Exactly the batch size still yields one batch
	batches = Split(makeIDs(10), 10)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 10)
}

func TestSplit_Completeness(t *testing.T) {
	// Concatenating the batches must reproduce the input in order, with
	// no duplicates or omissions
	for _, n := range []int{1, 9, 10, 11, 25, 100} {
		ids := makeIDs(n)
		batches := Split(ids, 10)

		var flat []model.StreamID
		for _, b := range batches {
			require.NotEmpty(t, b, "no batch may be empty")
			require.LessOrEqual(t, len(b), 10)
			flat = append(flat, b...)
		}
		require.Equal(t, ids, flat, "n=%d", n)
	}
}

func TestSplit_BatchCount(t *testing.T) {
	require.Len(t, Split(makeIDs(25), 10), 3)
	require.Len(t, Split(makeIDs(30), 10), 3)
	require.Len(t, Split(makeIDs(31), 10), 4)
}
