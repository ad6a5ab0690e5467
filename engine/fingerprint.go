package engine

import (
	"errors"
	"fmt"
)

// ErrNoReferences is returned when a fingerprint is requested for a label
// with no reference ranges marked.
var ErrNoReferences = errors.New("no reference ranges marked for label")

// FingerprintBuilder averages feature vectors over user-marked reference
// ranges to produce one prototype vector per label.
type FingerprintBuilder struct {
	extractor *FeatureExtractor
	track     *PitchTrack
	samples   []float64
}

// NewFingerprintBuilder creates a builder over one recording
func NewFingerprintBuilder(extractor *FeatureExtractor, samples []float64, track *PitchTrack) *FingerprintBuilder {
	return &FingerprintBuilder{
		extractor: extractor,
		track:     track,
		samples:   samples,
	}
}

// Build computes the elementwise mean feature vector over the reference
// ranges. An empty range list is an error, not a zero vector: a silent
// all-zero prototype would make every distance comparison meaningless.
func (fb *FingerprintBuilder) Build(label SegmentLabel, refs []TimeRange) ([]float64, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReferences, label)
	}

	sr := fb.track.SampleRate
	sum := make([]float64, fb.extractor.Dimension())
	count := 0

	for _, ref := range refs {
		startIdx := int(ref.Start * float64(sr))
		endIdx := int(ref.End * float64(sr))
		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx > len(fb.samples) {
			endIdx = len(fb.samples)
		}
		if endIdx <= startIdx {
			continue
		}

		pitch := pitchPointsInRange(fb.track, ref.Start, ref.End)
		vec, err := fb.extractor.Extract(fb.samples[startIdx:endIdx], pitch)
		if err != nil {
			return nil, fmt.Errorf("failed to extract reference %v: %w", ref, err)
		}

		for i, v := range vec {
			sum[i] += v
		}
		count++
	}

	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReferences, label)
	}

	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum, nil
}

func pitchPointsInRange(track *PitchTrack, start, end float64) []PitchPoint {
	points := make([]PitchPoint, 0)
	for _, p := range track.Pitch {
		if p.Time >= start && p.Time < end {
			points = append(points, p)
		}
	}
	return points
}
