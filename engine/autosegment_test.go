package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

func autoSegment(t *testing.T, samples []float64) []Segment {
	t.Helper()
	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	auto := NewAutoSegmenter(config.DefaultAutoSegmenterConfig(), config.DefaultPitchConfig())
	segments, err := auto.Segment(samples, track)
	require.NoError(t, err)
	return segments
}

func TestAutoSegmentSplitsByPitch(t *testing.T) {
	samples := synthWave(16.0,
		toneBurst{start: 2, end: 6, freq: 150},
		toneBurst{start: 8, end: 12, freq: 300})

	segments := autoSegment(t, samples)
	require.Len(t, segments, 2)

	assert.Equal(t, LabelCall, segments[0].Label, "lower voice is the call")
	assert.Equal(t, LabelResponse, segments[1].Label)

	assert.InDelta(t, 2.0, segments[0].Start, 1.0)
	assert.InDelta(t, 6.0, segments[0].End, 1.0)
	assert.InDelta(t, 8.0, segments[1].Start, 1.0)
	assert.InDelta(t, 12.0, segments[1].End, 1.0)

	for _, s := range segments {
		assert.NotEmpty(t, s.ID)
		assert.LessOrEqual(t, s.Confidence, 0.9)
		assert.Greater(t, s.Confidence, 0.0)
	}
}

func TestAutoSegmentSingleRegionFallback(t *testing.T) {
	samples := synthWave(20.0, toneBurst{start: 5, end: 9, freq: 200})

	segments := autoSegment(t, samples)
	require.Len(t, segments, 1)

	assert.Equal(t, LabelCall, segments[0].Label)
	assert.InDelta(t, 0.5, segments[0].Confidence, 1e-9)
	assert.InDelta(t, 5.0, segments[0].Start, 1.0)
	assert.InDelta(t, 9.0, segments[0].End, 1.0)
}

func TestAutoSegmentSilence(t *testing.T) {
	segments := autoSegment(t, make([]float64, 10*testSampleRate))
	assert.Empty(t, segments)
}

func TestAutoSegmentCustomLabelPolicy(t *testing.T) {
	samples := synthWave(16.0,
		toneBurst{start: 2, end: 6, freq: 150},
		toneBurst{start: 8, end: 12, freq: 300})

	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	cfg := config.DefaultAutoSegmenterConfig()
	cfg.LabelPolicy = func(regionPitch, medianPitch float64) string {
		// Inverted convention: the higher voice leads
		if regionPitch >= medianPitch {
			return string(LabelCall)
		}
		return string(LabelResponse)
	}

	auto := NewAutoSegmenter(cfg, config.DefaultPitchConfig())
	segments, err := auto.Segment(samples, track)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, LabelResponse, segments[0].Label)
	assert.Equal(t, LabelCall, segments[1].Label)
}
