package engine

import (
	"github.com/antiphon-audio/antiphon/logging"
)

// Pairs couples segments into call/response pairs by order of appearance:
// the i-th call goes with the i-th response. Segments must already be
// sorted by start time. Unmatched trailing segments on either side are
// dropped with a warning.
func Pairs(segments []Segment) []Pair {
	var calls, responses []Segment
	for _, s := range segments {
		switch s.Label {
		case LabelCall:
			calls = append(calls, s)
		case LabelResponse:
			responses = append(responses, s)
		}
	}

	n := min(len(calls), len(responses))
	if dropped := len(calls) + len(responses) - 2*n; dropped > 0 {
		logging.Warn("unmatched segments dropped from pairing", logging.Fields{
			"calls":     len(calls),
			"responses": len(responses),
			"dropped":   dropped,
		})
	}

	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, Pair{
			ID:       i,
			Call:     calls[i],
			Response: responses[i],
		})
	}
	return pairs
}
