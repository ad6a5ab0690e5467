package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

func TestAnalyzerRunWithReferences(t *testing.T) {
	samples := chantWave()

	analyzer := NewAnalyzer(config.Default())
	result, err := analyzer.Run(context.Background(), RunInput{
		Samples:            samples,
		SampleRate:         testSampleRate,
		CallReferences:     []TimeRange{{Start: 6, End: 11}},
		ResponseReferences: []TimeRange{{Start: 0, End: 4}},
	})
	require.NoError(t, err)

	assert.NotNil(t, result.Track)
	assert.InDelta(t, 60.0, result.Track.Duration, 1e-9)

	require.Len(t, result.Pairs, 2)
	require.Len(t, result.Alignments, 2)

	for i, rec := range result.Alignments {
		assert.Equal(t, i, rec.PairID)
		assert.Equal(t, result.Pairs[i].Call.ID, rec.CallSectionID)
		assert.Equal(t, result.Pairs[i].Response.ID, rec.ResponseSectionID)
		assert.Nil(t, rec.CustomOffset)
		if rec.Correlation != nil {
			require.NotNil(t, rec.CorrelationUnaligned)
			require.NotNil(t, rec.CosineSimilarity)
			assert.GreaterOrEqual(t, *rec.Correlation, -1.0)
			assert.LessOrEqual(t, *rec.Correlation, 1.0)
		}
	}
}

func TestAnalyzerRunUnsupervised(t *testing.T) {
	samples := synthWave(16.0,
		toneBurst{start: 2, end: 6, freq: 150},
		toneBurst{start: 8, end: 12, freq: 300})

	analyzer := NewAnalyzer(nil)
	result, err := analyzer.Run(context.Background(), RunInput{
		Samples:    samples,
		SampleRate: testSampleRate,
	})
	require.NoError(t, err)

	require.Len(t, result.Segments, 2)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, LabelCall, result.Pairs[0].Call.Label)
	assert.Equal(t, LabelResponse, result.Pairs[0].Response.Label)
}

func TestAnalyzerRunValidation(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	_, err := analyzer.Run(context.Background(), RunInput{SampleRate: testSampleRate})
	assert.ErrorIs(t, err, ErrEmptyWaveform)

	_, err = analyzer.Run(context.Background(), RunInput{Samples: []float64{0.1}})
	assert.Error(t, err)
}

func TestAnalyzerRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := NewAnalyzer(nil)
	_, err := analyzer.Run(ctx, RunInput{
		Samples:    synthWave(2.0, toneBurst{start: 0, end: 2, freq: 200}),
		SampleRate: testSampleRate,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzerProgressStages(t *testing.T) {
	samples := synthWave(16.0,
		toneBurst{start: 2, end: 6, freq: 150},
		toneBurst{start: 8, end: 12, freq: 300})

	var mu sync.Mutex
	stages := map[string]bool{}

	analyzer := NewAnalyzer(nil)
	_, err := analyzer.Run(context.Background(), RunInput{
		Samples:    samples,
		SampleRate: testSampleRate,
		Progress: func(stage string, completed, total int) {
			mu.Lock()
			stages[stage] = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.True(t, stages["pitch"])
	assert.True(t, stages["alignment"])
}

func TestProposeReferences(t *testing.T) {
	segments := []Segment{
		{Label: LabelCall, Start: 0, End: 2, Confidence: 0.4},
		{Label: LabelCall, Start: 4, End: 6, Confidence: 0.8},
		{Label: LabelResponse, Start: 8, End: 10, Confidence: 0.6},
		{Label: LabelResponse, Start: 12, End: 14, Confidence: 0.2},
	}

	calls, responses := ProposeReferences(segments, 1)
	require.Len(t, calls, 1)
	require.Len(t, responses, 1)

	assert.Equal(t, 4.0, calls[0].Start, "highest confidence call wins")
	assert.Equal(t, 8.0, responses[0].Start)
}
