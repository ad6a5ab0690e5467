package engine

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/antiphon-audio/antiphon/algorithms/temporal"
	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

// AutoSegmenter finds call and response regions without reference ranges.
// Vocal activity is located by thresholding short-time RMS energy, then the
// active regions are split into the two labels by their median pitch.
type AutoSegmenter struct {
	cfg    config.AutoSegmenterConfig
	pitch  config.PitchConfig
	logger logging.Logger
}

// NewAutoSegmenter creates an unsupervised segmenter
func NewAutoSegmenter(cfg config.AutoSegmenterConfig, pitch config.PitchConfig) *AutoSegmenter {
	return &AutoSegmenter{
		cfg:   cfg,
		pitch: pitch,
		logger: logging.WithFields(logging.Fields{
			"component": "auto_segmenter",
		}),
	}
}

type pitchedRegion struct {
	start, end float64
	pitch      float64
}

// Segment detects labeled regions in the recording. With fewer than two
// usable regions there is nothing to split, so everything found is labeled
// a call at the fallback confidence.
func (as *AutoSegmenter) Segment(samples []float64, track *PitchTrack) ([]Segment, error) {
	sr := track.SampleRate

	energy := temporal.NewEnergy(as.pitch.FrameSize, as.pitch.HopSize, sr)
	rms := energy.ComputeShortTimeEnergy(samples)
	if len(rms) == 0 {
		return []Segment{}, nil
	}

	threshold, err := stats.Percentile(rms, as.cfg.EnergyPercentile)
	if err != nil {
		return nil, err
	}
	as.logger.Debug("computed activity threshold", logging.Fields{
		"threshold":  threshold,
		"percentile": as.cfg.EnergyPercentile,
	})

	starts, ends := activeRuns(rms, threshold)
	if len(starts) == 0 {
		as.logger.Warn("no vocal activity detected")
		return []Segment{}, nil
	}

	hopSeconds := float64(as.pitch.HopSize) / float64(sr)
	regions := make([]pitchedRegion, 0, len(starts))

	for i := range starts {
		startTime := float64(starts[i]) * hopSeconds
		endTime := float64(ends[i]) * hopSeconds
		if endTime-startTime < as.cfg.MinRegionSeconds {
			continue
		}

		var voicedHz []float64
		for _, p := range SliceContour(track, startTime, endTime) {
			if p.Voiced && p.F0Hz != nil {
				voicedHz = append(voicedHz, *p.F0Hz)
			}
		}
		if len(voicedHz) < as.cfg.MinVoicedFrames {
			continue
		}

		median, err := stats.Median(voicedHz)
		if err != nil {
			continue
		}
		regions = append(regions, pitchedRegion{start: startTime, end: endTime, pitch: median})
	}

	if len(regions) < 2 {
		as.logger.Warn("not enough regions to classify", logging.Fields{
			"regions": len(regions),
		})
		segments := make([]Segment, 0, len(regions))
		for _, r := range regions {
			segments = append(segments, Segment{
				ID:         newSectionID(),
				Label:      LabelCall,
				Start:      r.start,
				End:        r.end,
				Confidence: as.cfg.FallbackConfidence,
			})
		}
		return segments, nil
	}

	pitches := make([]float64, len(regions))
	for i, r := range regions {
		pitches[i] = r.pitch
	}
	medianPitch, err := stats.Median(pitches)
	if err != nil {
		return nil, err
	}

	labelPolicy := as.cfg.LabelPolicy
	if labelPolicy == nil {
		labelPolicy = defaultLabelPolicy
	}

	segments := make([]Segment, 0, len(regions))
	for _, r := range regions {
		confidence := math.Abs(r.pitch-medianPitch) / medianPitch
		segments = append(segments, Segment{
			ID:         newSectionID(),
			Label:      SegmentLabel(labelPolicy(r.pitch, medianPitch)),
			Start:      r.start,
			End:        r.end,
			Confidence: min(as.cfg.MaxConfidence, confidence),
		})
	}

	as.logger.Info("auto-detected segments", logging.Fields{
		"segments":     len(segments),
		"median_pitch": medianPitch,
	})
	return segments, nil
}

// The lower voice leads the exchange
func defaultLabelPolicy(regionPitch, medianPitch float64) string {
	if regionPitch < medianPitch {
		return string(LabelCall)
	}
	return string(LabelResponse)
}

// activeRuns finds runs of frames above the threshold, dropping any run
// missing its opening or closing edge
func activeRuns(rms []float64, threshold float64) (starts, ends []int) {
	active := make([]bool, len(rms))
	for i, v := range rms {
		active[i] = v > threshold
	}

	for i := 0; i+1 < len(active); i++ {
		if active[i+1] && !active[i] {
			starts = append(starts, i)
		} else if active[i] && !active[i+1] {
			ends = append(ends, i)
		}
	}

	if len(ends) > 0 && (len(starts) == 0 || ends[0] < starts[0]) {
		ends = ends[1:]
	}
	if len(starts) > len(ends) {
		starts = starts[:len(ends)]
	}
	return starts, ends
}
