package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

func TestBuildFingerprintAveragesReferences(t *testing.T) {
	samples := synthWave(10.0,
		toneBurst{start: 1, end: 3, freq: 150},
		toneBurst{start: 5, end: 7, freq: 160})

	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	extractor := newTestExtractor(t)
	builder := NewFingerprintBuilder(extractor, samples, track)

	refs := []TimeRange{{Start: 1, End: 3}, {Start: 5, End: 7}}
	fingerprint, err := builder.Build(LabelCall, refs)
	require.NoError(t, err)
	require.Len(t, fingerprint, extractor.Dimension())

	// The fingerprint is the elementwise mean of the per-range vectors
	first, err := extractor.Extract(samples[1*testSampleRate:3*testSampleRate], pitchPointsInRange(track, 1, 3))
	require.NoError(t, err)
	second, err := extractor.Extract(samples[5*testSampleRate:7*testSampleRate], pitchPointsInRange(track, 5, 7))
	require.NoError(t, err)

	for i := range fingerprint {
		assert.InDelta(t, (first[i]+second[i])/2, fingerprint[i], 1e-9, "component %d", i)
	}
}

func TestBuildFingerprintNoReferences(t *testing.T) {
	samples := synthWave(2.0, toneBurst{start: 0, end: 2, freq: 200})
	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	builder := NewFingerprintBuilder(newTestExtractor(t), samples, track)

	_, err = builder.Build(LabelCall, nil)
	assert.ErrorIs(t, err, ErrNoReferences)

	// Ranges that collapse to nothing are just as fatal
	_, err = builder.Build(LabelResponse, []TimeRange{{Start: 5, End: 4}})
	assert.ErrorIs(t, err, ErrNoReferences)
}

func TestBuildFingerprintClampsRange(t *testing.T) {
	samples := synthWave(2.0, toneBurst{start: 0, end: 2, freq: 200})
	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	builder := NewFingerprintBuilder(newTestExtractor(t), samples, track)

	// End past the waveform is clamped, not an error
	fingerprint, err := builder.Build(LabelCall, []TimeRange{{Start: 1, End: 99}})
	require.NoError(t, err)
	assert.Len(t, fingerprint, 20)
}
