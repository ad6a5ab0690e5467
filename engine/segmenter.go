package engine

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/antiphon-audio/antiphon/algorithms/common"
	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

// Segmenter labels time regions of a recording by comparing sliding-window
// features against the call and response fingerprints.
type Segmenter struct {
	cfg       config.SegmenterConfig
	extractor *FeatureExtractor
	logger    logging.Logger
}

// NewSegmenter creates a segmenter using the given feature extractor
func NewSegmenter(cfg config.SegmenterConfig, extractor *FeatureExtractor) *Segmenter {
	return &Segmenter{
		cfg:       cfg,
		extractor: extractor,
		logger: logging.WithFields(logging.Fields{
			"component": "segmenter",
		}),
	}
}

// Segment runs the full distance-based segmentation pipeline
func (s *Segmenter) Segment(samples []float64, track *PitchTrack, callFP, respFP []float64, progress ProgressFunc) ([]Segment, error) {
	times, callDist, respDist, err := s.ComputeDistances(samples, track, callFP, respFP, progress)
	if err != nil {
		return nil, err
	}
	segments := s.SegmentByDistance(times, callDist, respDist)

	s.logger.Info("segmentation complete", logging.Fields{
		"windows":  len(times),
		"segments": len(segments),
	})
	return segments, nil
}

// ComputeDistances slides a window over the recording and measures the
// Euclidean distance from each window's features to both fingerprints
func (s *Segmenter) ComputeDistances(samples []float64, track *PitchTrack, callFP, respFP []float64, progress ProgressFunc) (times, callDist, respDist []float64, err error) {
	sr := track.SampleRate
	windowSamples := int(s.cfg.WindowSeconds * float64(sr))
	hopSamples := int(s.cfg.HopSeconds * float64(sr))

	numWindows := 0
	if len(samples) > windowSamples {
		numWindows = (len(samples) - windowSamples + hopSamples - 1) / hopSamples
	}

	times = make([]float64, 0, numWindows)
	callDist = make([]float64, 0, numWindows)
	respDist = make([]float64, 0, numWindows)

	for start := 0; start < len(samples)-windowSamples; start += hopSamples {
		startTime := float64(start) / float64(sr)
		endTime := startTime + s.cfg.WindowSeconds

		pitch := pitchPointsInRange(track, startTime, endTime)
		features, extractErr := s.extractor.Extract(samples[start:start+windowSamples], pitch)
		if extractErr != nil {
			return nil, nil, nil, extractErr
		}

		times = append(times, startTime)
		callDist = append(callDist, floats.Distance(features, callFP, 2))
		respDist = append(respDist, floats.Distance(features, respFP, 2))

		notify(progress, "distances", len(times), numWindows)
	}

	return times, callDist, respDist, nil
}

// SegmentByDistance converts the two distance curves into labeled segments.
// Distances are median smoothed, each window is assigned to the nearer
// fingerprint, and label runs become segments. Runs already in progress at
// the start of the recording and runs still open at the end have no
// matching transition edge and are discarded.
func (s *Segmenter) SegmentByDistance(times, callDist, respDist []float64) []Segment {
	if len(times) == 0 {
		return []Segment{}
	}

	callSmooth := common.MedianFilter(callDist, s.cfg.MedianKernel)
	respSmooth := common.MedianFilter(respDist, s.cfg.MedianKernel)

	isCall := make([]bool, len(times))
	for i := range isCall {
		isCall[i] = callSmooth[i] < respSmooth[i]
	}

	segments := make([]Segment, 0)

	callStarts, callEnds := transitionEdges(isCall, true)
	segments = append(segments, s.buildSegments(LabelCall, times, callStarts, callEnds, callSmooth, respSmooth)...)

	respStarts, respEnds := transitionEdges(isCall, false)
	segments = append(segments, s.buildSegments(LabelResponse, times, respStarts, respEnds, respSmooth, callSmooth)...)

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments
}

// transitionEdges finds the indices where isCall flips toward (starts) and
// away from (ends) the wanted state, then trims unmatched edges
func transitionEdges(isCall []bool, wantCall bool) (starts, ends []int) {
	for i := 0; i+1 < len(isCall); i++ {
		if isCall[i+1] == wantCall && isCall[i] != wantCall {
			starts = append(starts, i)
		} else if isCall[i] == wantCall && isCall[i+1] != wantCall {
			ends = append(ends, i)
		}
	}

	if len(starts) > 0 && len(ends) > 0 {
		if starts[0] > ends[0] {
			ends = ends[1:]
		}
		if len(starts) > len(ends) {
			starts = starts[:len(ends)]
		}
	}
	if len(starts) == 0 || len(ends) == 0 {
		return nil, nil
	}
	return starts, ends
}

func (s *Segmenter) buildSegments(label SegmentLabel, times []float64, starts, ends []int, own, other []float64) []Segment {
	segments := make([]Segment, 0, len(starts))

	for i := range starts {
		startIdx, endIdx := starts[i], ends[i]
		startTime := times[startIdx]
		endTime := times[endIdx]

		if endTime-startTime < s.cfg.MinDurationSeconds {
			continue
		}

		ownMean := common.Mean(own[startIdx:endIdx])
		otherMean := common.Mean(other[startIdx:endIdx])

		segments = append(segments, Segment{
			ID:         newSectionID(),
			Label:      label,
			Start:      startTime,
			End:        endTime,
			Confidence: 1.0 - ownMean/(ownMean+otherMean),
		})
	}
	return segments
}
