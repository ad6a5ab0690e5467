package engine

import (
	"math"

	"github.com/antiphon-audio/antiphon/algorithms/common"
	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

// Aligner searches for the time offset that best aligns a response pitch
// contour with its call, and scores pairs at arbitrary offsets. All time
// arithmetic is on contour-relative times, so pairs far apart in the
// recording still overlap.
type Aligner struct {
	cfg    config.AlignConfig
	logger logging.Logger
}

// NewAligner creates an aligner with the given search configuration
func NewAligner(cfg config.AlignConfig) *Aligner {
	return &Aligner{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "aligner",
		}),
	}
}

type voicedSeries struct {
	times     []float64
	semitones []float64
}

func voicedRelative(contour []ContourPoint) voicedSeries {
	var s voicedSeries
	for _, p := range contour {
		if p.Semitones != nil {
			s.times = append(s.times, p.RelativeTime)
			s.semitones = append(s.semitones, *p.Semitones)
		}
	}
	return s
}

// FindOptimalOffset scans offsets in [-SearchRange, +SearchRange] and
// returns the one maximizing Pearson correlation between the interpolated
// contours. The correlation is nil when either contour has too few voiced
// points or no offset produces a usable overlap.
func (a *Aligner) FindOptimalOffset(call, response []ContourPoint) (float64, *float64) {
	callSeries := voicedRelative(call)
	respSeries := voicedRelative(response)

	if len(callSeries.times) < a.cfg.MinVoicedSearch || len(respSeries.times) < a.cfg.MinVoicedSearch {
		return 0.0, nil
	}

	bestOffset := 0.0
	bestCorr := -1.0
	found := false

	for offset := -a.cfg.SearchRange; offset <= a.cfg.SearchRange+a.cfg.Step/2; offset += a.cfg.Step {
		corr, ok := a.correlationAtOffset(callSeries, respSeries, offset)
		if ok && corr > bestCorr {
			bestCorr = corr
			bestOffset = offset
			found = true
		}
	}

	if !found {
		return 0.0, nil
	}

	a.logger.Debug("offset search complete", logging.Fields{
		"offset":      bestOffset,
		"correlation": bestCorr,
	})
	return bestOffset, &bestCorr
}

// correlationAtOffset interpolates both contours onto a shared grid over
// their overlapping range and computes Pearson correlation. The grid
// resolution scales with the overlap duration up to MaxGridPoints.
func (a *Aligner) correlationAtOffset(call, response voicedSeries, offset float64) (float64, bool) {
	shifted := make([]float64, len(response.times))
	for i, t := range response.times {
		shifted[i] = t + offset
	}

	overlapStart := max(call.times[0], shifted[0])
	overlapEnd := min(call.times[len(call.times)-1], shifted[len(shifted)-1])
	if overlapStart >= overlapEnd {
		return 0, false
	}

	nPoints := min(a.cfg.MaxGridPoints, int((overlapEnd-overlapStart)*float64(a.cfg.PointsPerSecond)))
	if nPoints < a.cfg.MinGridPoints {
		return 0, false
	}

	grid := common.Linspace(overlapStart, overlapEnd, nPoints)
	callInterp := common.InterpolateSeries(call.times, call.semitones, grid)
	respInterp := common.InterpolateSeries(shifted, response.semitones, grid)

	corr := common.Correlation(callInterp, respInterp)
	if math.IsNaN(corr) {
		return 0, false
	}
	return corr, true
}

// ComputeMetrics scores a pair at one offset. Callers wanting the
// unaligned comparison call it again with offset zero.
func (a *Aligner) ComputeMetrics(pairID int, call, response []ContourPoint, offset float64) PairMetrics {
	metrics := PairMetrics{PairID: pairID, Offset: offset}

	callSeries := voicedRelative(call)
	respSeries := voicedRelative(response)

	if len(callSeries.times) < a.cfg.MinVoicedMetrics || len(respSeries.times) < a.cfg.MinVoicedMetrics {
		metrics.Reason = "insufficient voiced data"
		return metrics
	}

	shifted := make([]float64, len(respSeries.times))
	for i, t := range respSeries.times {
		shifted[i] = t + offset
	}

	overlapStart := max(callSeries.times[0], shifted[0])
	overlapEnd := min(callSeries.times[len(callSeries.times)-1], shifted[len(shifted)-1])
	if overlapStart >= overlapEnd {
		metrics.Reason = "no overlapping time range"
		return metrics
	}

	grid := common.Linspace(overlapStart, overlapEnd, a.cfg.MetricsGrid)
	callInterp := common.InterpolateSeries(callSeries.times, callSeries.semitones, grid)
	respInterp := common.InterpolateSeries(shifted, respSeries.semitones, grid)

	corr := common.Correlation(callInterp, respInterp)
	if !math.IsNaN(corr) {
		metrics.Correlation = &corr
	}

	callZ := common.ZScore(callInterp)
	respZ := common.ZScore(respInterp)
	dot, callNorm, respNorm := 0.0, 0.0, 0.0
	for i := range callZ {
		dot += callZ[i] * respZ[i]
		callNorm += callZ[i] * callZ[i]
		respNorm += respZ[i] * respZ[i]
	}
	cosine := dot / (math.Sqrt(callNorm)*math.Sqrt(respNorm) + 1e-10)
	metrics.Cosine = &cosine

	return metrics
}

// MetricsWithUnaligned scores a pair at the given offset and also at
// offset zero, filling CorrelationUnaligned
func (a *Aligner) MetricsWithUnaligned(pairID int, call, response []ContourPoint, offset float64) PairMetrics {
	metrics := a.ComputeMetrics(pairID, call, response, offset)
	if metrics.Reason != "" {
		return metrics
	}

	if offset == 0 {
		metrics.CorrelationUnaligned = metrics.Correlation
		return metrics
	}

	unaligned := a.ComputeMetrics(pairID, call, response, 0.0)
	metrics.CorrelationUnaligned = unaligned.Correlation
	return metrics
}
