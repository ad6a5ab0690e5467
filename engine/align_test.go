package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

// A non-periodic melody so the correlation peak is unambiguous
func melody(t float64) float64 {
	return math.Sin(2*math.Pi*0.8*t) + 0.5*math.Sin(2*math.Pi*0.33*t+1)
}

func TestFindOptimalOffsetRecoversShift(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	call := contourFromFunc(4.0, 0.02, 0.0, melody)
	// The response sings the same phrase 0.3s early in its own segment
	response := contourFromFunc(4.0, 0.02, 0.30, melody)

	offset, corr := aligner.FindOptimalOffset(call, response)
	require.NotNil(t, corr)
	assert.InDelta(t, 0.30, offset, 0.011)
	assert.Greater(t, *corr, 0.99)
}

func TestFindOptimalOffsetIdentical(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())
	contour := contourFromFunc(4.0, 0.02, 0.0, melody)

	offset, corr := aligner.FindOptimalOffset(contour, contour)
	require.NotNil(t, corr)
	assert.InDelta(t, 0.0, offset, 0.011)
	assert.Greater(t, *corr, 0.999)
}

func TestFindOptimalOffsetInsufficientVoiced(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	tiny := contourFromFunc(0.1, 0.02, 0.0, melody) // 6 points, below the minimum
	full := contourFromFunc(4.0, 0.02, 0.0, melody)

	offset, corr := aligner.FindOptimalOffset(tiny, full)
	assert.Zero(t, offset)
	assert.Nil(t, corr)

	offset, corr = aligner.FindOptimalOffset(full, tiny)
	assert.Zero(t, offset)
	assert.Nil(t, corr)
}

func TestFindOptimalOffsetUnvoicedContour(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	unvoiced := make([]ContourPoint, 50)
	for i := range unvoiced {
		unvoiced[i] = ContourPoint{RelativeTime: float64(i) * 0.02}
	}
	full := contourFromFunc(4.0, 0.02, 0.0, melody)

	offset, corr := aligner.FindOptimalOffset(unvoiced, full)
	assert.Zero(t, offset)
	assert.Nil(t, corr)
}

func TestComputeMetricsAligned(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	call := contourFromFunc(4.0, 0.02, 0.0, melody)
	response := contourFromFunc(4.0, 0.02, 0.30, melody)

	metrics := aligner.ComputeMetrics(0, call, response, 0.30)
	require.Empty(t, metrics.Reason)
	require.NotNil(t, metrics.Correlation)
	require.NotNil(t, metrics.Cosine)

	assert.Greater(t, *metrics.Correlation, 0.99)
	assert.Greater(t, *metrics.Cosine, 0.99)
	assert.GreaterOrEqual(t, *metrics.Correlation, -1.0)
	assert.LessOrEqual(t, *metrics.Correlation, 1.0)
}

func TestComputeMetricsInsufficientData(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	tiny := contourFromFunc(0.05, 0.02, 0.0, melody) // 3 points
	full := contourFromFunc(4.0, 0.02, 0.0, melody)

	metrics := aligner.ComputeMetrics(0, tiny, full, 0.0)
	assert.Equal(t, "insufficient voiced data", metrics.Reason)
	assert.Nil(t, metrics.Correlation)
	assert.Nil(t, metrics.Cosine)
}

func TestComputeMetricsNoOverlap(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	call := contourFromFunc(2.0, 0.02, 0.0, melody)
	response := contourFromFunc(2.0, 0.02, 0.0, melody)

	// Shift the response entirely past the call's time range
	metrics := aligner.ComputeMetrics(0, call, response, 10.0)
	assert.Equal(t, "no overlapping time range", metrics.Reason)
	assert.Nil(t, metrics.Correlation)
	assert.Nil(t, metrics.Cosine)
}

func TestMetricsWithUnaligned(t *testing.T) {
	aligner := NewAligner(config.DefaultAlignConfig())

	call := contourFromFunc(4.0, 0.02, 0.0, melody)
	response := contourFromFunc(4.0, 0.02, 0.30, melody)

	metrics := aligner.MetricsWithUnaligned(1, call, response, 0.30)
	require.Empty(t, metrics.Reason)
	require.NotNil(t, metrics.Correlation)
	require.NotNil(t, metrics.CorrelationUnaligned)

	assert.Equal(t, 1, metrics.PairID)
	assert.Greater(t, *metrics.Correlation, *metrics.CorrelationUnaligned,
		"the aligned correlation should beat the unaligned one")

	atZero := aligner.MetricsWithUnaligned(1, call, response, 0.0)
	require.NotNil(t, atZero.CorrelationUnaligned)
	assert.Equal(t, *atZero.Correlation, *atZero.CorrelationUnaligned)
}
