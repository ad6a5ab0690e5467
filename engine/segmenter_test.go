package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

// chantWave lays out alternating response (300 Hz) and call (150 Hz)
// phrases. The trailing silence matters: quiet windows sit nearer the
// lower-pitched call fingerprint, so the final call run never closes and
// is discarded by edge matching.
func chantWave() []float64 {
	return synthWave(60.0,
		toneBurst{start: 0, end: 4, freq: 300},
		toneBurst{start: 6, end: 11, freq: 150},
		toneBurst{start: 13, end: 18, freq: 300},
		toneBurst{start: 20, end: 25, freq: 150},
		toneBurst{start: 27, end: 31, freq: 300})
}

func segmentChant(t *testing.T) []Segment {
	t.Helper()
	samples := chantWave()

	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	extractor := newTestExtractor(t)
	builder := NewFingerprintBuilder(extractor, samples, track)

	callFP, err := builder.Build(LabelCall, []TimeRange{{Start: 6, End: 11}})
	require.NoError(t, err)
	respFP, err := builder.Build(LabelResponse, []TimeRange{{Start: 0, End: 4}})
	require.NoError(t, err)

	segmenter := NewSegmenter(config.DefaultSegmenterConfig(), extractor)
	segments, err := segmenter.Segment(samples, track, callFP, respFP, nil)
	require.NoError(t, err)
	return segments
}

func TestSegmentChant(t *testing.T) {
	segments := segmentChant(t)

	var calls, responses []Segment
	for _, s := range segments {
		switch s.Label {
		case LabelCall:
			calls = append(calls, s)
		case LabelResponse:
			responses = append(responses, s)
		}
	}

	require.Len(t, calls, 2, "segments: %+v", segments)
	require.Len(t, responses, 2, "segments: %+v", segments)

	// Call segments absorb the neighboring silence; the phrase itself
	// must still fall inside them
	assert.LessOrEqual(t, calls[0].Start, 6.5)
	assert.GreaterOrEqual(t, calls[0].End, 10.0)
	assert.LessOrEqual(t, calls[1].Start, 20.5)
	assert.GreaterOrEqual(t, calls[1].End, 24.0)

	// Response boundaries are fuzzy by up to a window width plus the
	// median smoothing, so check containment rather than exact edges
	assert.LessOrEqual(t, responses[0].Start, 14.0)
	assert.GreaterOrEqual(t, responses[0].Start, 10.0)
	assert.GreaterOrEqual(t, responses[0].End, 17.0)
	assert.LessOrEqual(t, responses[0].End, 20.0)
	assert.LessOrEqual(t, responses[1].Start, 28.0)
	assert.GreaterOrEqual(t, responses[1].Start, 24.0)
	assert.GreaterOrEqual(t, responses[1].End, 30.0)
	assert.LessOrEqual(t, responses[1].End, 33.0)

	for _, s := range segments {
		assert.NotEmpty(t, s.ID)
		assert.Greater(t, s.Confidence, 0.0)
		assert.Less(t, s.Confidence, 1.0)
		assert.GreaterOrEqual(t, s.Duration(), 1.5)
	}

	// Sorted by start time
	for i := 1; i < len(segments); i++ {
		assert.LessOrEqual(t, segments[i-1].Start, segments[i].Start)
	}
}

func TestSegmentByDistanceEdgeTrimming(t *testing.T) {
	cfg := config.DefaultSegmenterConfig()
	cfg.MedianKernel = 1
	segmenter := NewSegmenter(cfg, nil)

	// 20 windows at 0.5s hops. The recording opens mid-call and closes
	// mid-call; both of those runs lack an edge and must vanish.
	times := make([]float64, 20)
	callDist := make([]float64, 20)
	respDist := make([]float64, 20)
	for i := range times {
		times[i] = float64(i) * 0.5
		inCall := i < 5 || (i >= 9 && i < 14) || i >= 18
		if inCall {
			callDist[i], respDist[i] = 1.0, 9.0
		} else {
			callDist[i], respDist[i] = 9.0, 1.0
		}
	}

	segments := segmenter.SegmentByDistance(times, callDist, respDist)

	var calls, responses []Segment
	for _, s := range segments {
		if s.Label == LabelCall {
			calls = append(calls, s)
		} else {
			responses = append(responses, s)
		}
	}

	require.Len(t, calls, 1)
	require.Len(t, responses, 2)

	// The run spans window indices 8..12: one response-side window plus
	// four call windows, so own mean 2.6 against other mean 7.4
	assert.InDelta(t, 0.74, calls[0].Confidence, 1e-9)
}

func TestSegmentByDistanceMinDuration(t *testing.T) {
	cfg := config.DefaultSegmenterConfig()
	cfg.MedianKernel = 1
	segmenter := NewSegmenter(cfg, nil)

	// One-window call run (0.5s) is below the minimum duration
	times := []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5}
	callDist := []float64{9, 9, 1, 9, 9, 9}
	respDist := []float64{1, 1, 9, 1, 1, 1}

	segments := segmenter.SegmentByDistance(times, callDist, respDist)
	for _, s := range segments {
		assert.NotEqual(t, LabelCall, s.Label, "sub-minimum call run should be dropped")
	}
}

func TestSegmentByDistanceEmpty(t *testing.T) {
	segmenter := NewSegmenter(config.DefaultSegmenterConfig(), nil)
	assert.Empty(t, segmenter.SegmentByDistance(nil, nil, nil))
}
