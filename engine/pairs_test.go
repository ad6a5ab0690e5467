package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairsInterleaved(t *testing.T) {
	segments := []Segment{
		{ID: "c0", Label: LabelCall, Start: 0, End: 2},
		{ID: "r0", Label: LabelResponse, Start: 3, End: 5},
		{ID: "c1", Label: LabelCall, Start: 6, End: 8},
		{ID: "r1", Label: LabelResponse, Start: 9, End: 11},
	}

	pairs := Pairs(segments)
	require.Len(t, pairs, 2)

	assert.Equal(t, 0, pairs[0].ID)
	assert.Equal(t, "c0", pairs[0].Call.ID)
	assert.Equal(t, "r0", pairs[0].Response.ID)
	assert.Equal(t, 1, pairs[1].ID)
	assert.Equal(t, "c1", pairs[1].Call.ID)
	assert.Equal(t, "r1", pairs[1].Response.ID)
}

func TestPairsDropsUnmatchedTail(t *testing.T) {
	segments := []Segment{
		{ID: "c0", Label: LabelCall, Start: 0, End: 2},
		{ID: "r0", Label: LabelResponse, Start: 3, End: 5},
		{ID: "c1", Label: LabelCall, Start: 6, End: 8},
		{ID: "c2", Label: LabelCall, Start: 9, End: 11},
	}

	pairs := Pairs(segments)
	require.Len(t, pairs, 1)
	assert.Equal(t, "c0", pairs[0].Call.ID)
}

func TestPairsEmpty(t *testing.T) {
	assert.Empty(t, Pairs(nil))
	assert.Empty(t, Pairs([]Segment{{ID: "c0", Label: LabelCall}}))
}
