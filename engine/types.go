package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// PitchPoint is one hop of the pitch contour. F0Hz and Semitones are nil
// for unvoiced hops.
type PitchPoint struct {
	Time       float64  `json:"time"`
	F0Hz       *float64 `json:"f0_hz"`
	Semitones  *float64 `json:"semitones"`
	Voiced     bool     `json:"voiced"`
	VoicedProb float64  `json:"voiced_prob"`
}

// PitchTrack is the full pitch contour of a recording
type PitchTrack struct {
	Duration   float64      `json:"duration"`
	SampleRate int          `json:"sample_rate"`
	HopLength  int          `json:"hop_length"`
	FrameCount int          `json:"frame_count"`
	Pitch      []PitchPoint `json:"pitch"`
}

// SegmentLabel identifies which side of the exchange a segment belongs to
type SegmentLabel string

const (
	LabelCall     SegmentLabel = "call"
	LabelResponse SegmentLabel = "response"
)

// Segment is a labeled time region of the recording. IsReference marks
// segments promoted to fingerprint references by the caller; the engine
// always emits it false.
type Segment struct {
	ID          string       `json:"id"`
	Label       SegmentLabel `json:"label"`
	Start       float64      `json:"start"`
	End         float64      `json:"end"`
	IsReference bool         `json:"is_reference"`
	Confidence  float64      `json:"confidence"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

func newSectionID() string {
	return fmt.Sprintf("section_%s", uuid.New().String()[:8])
}

// TimeRange is a half-open [Start, End) interval in seconds
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the range length in seconds
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// ContourPoint is a pitch point sliced out of a segment. RelativeTime is
// measured from the segment start.
type ContourPoint struct {
	Time         float64  `json:"time"`
	RelativeTime float64  `json:"relative_time"`
	F0Hz         *float64 `json:"f0_hz"`
	Semitones    *float64 `json:"semitones"`
	Voiced       bool     `json:"voiced"`
	VoicedProb   float64  `json:"voiced_prob"`
}

// ContourStats summarizes the voiced portion of a contour
type ContourStats struct {
	MeanPitchHz   float64 `json:"mean_pitch_hz"`
	MeanSemitones float64 `json:"mean_semitones"`
	PitchRange    float64 `json:"pitch_range"`
	PitchStd      float64 `json:"pitch_std"`
	VoicedRatio   float64 `json:"voiced_ratio"`
}

// Pair couples the i-th call with the i-th response
type Pair struct {
	ID       int     `json:"pair_id"`
	Call     Segment `json:"call"`
	Response Segment `json:"response"`
}

// AlignmentRecord is the persisted alignment result for one pair.
// CustomOffset is a caller override; the engine never writes it.
type AlignmentRecord struct {
	PairID               int      `json:"pair_id"`
	CallSectionID        string   `json:"call_section_id"`
	ResponseSectionID    string   `json:"response_section_id"`
	OptimalOffset        float64  `json:"optimal_offset"`
	Correlation          *float64 `json:"correlation"`
	CorrelationUnaligned *float64 `json:"correlation_unaligned"`
	CosineSimilarity     *float64 `json:"cosine_similarity"`
	CustomOffset         *float64 `json:"custom_offset"`
}

// PairMetrics quantifies how closely a response contour tracks its call at
// a given offset. All metric fields are nil when Reason is non-empty.
type PairMetrics struct {
	PairID               int      `json:"pair_id"`
	Offset               float64  `json:"offset"`
	Correlation          *float64 `json:"correlation"`
	CorrelationUnaligned *float64 `json:"correlation_unaligned"`
	Cosine               *float64 `json:"cosine_similarity"`
	Reason               string   `json:"reason,omitempty"`
}
