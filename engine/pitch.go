package engine

import (
	"fmt"
	"math"

	"github.com/antiphon-audio/antiphon/algorithms/tonal"
	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

// PitchTracker extracts a hop-aligned pitch contour from a waveform.
// Frames are centered: frame i covers the samples around time i*hop/sr,
// with zero padding at the edges, so the contour has len(samples)/hop + 1
// points regardless of chunking.
type PitchTracker struct {
	cfg    config.PitchConfig
	logger logging.Logger
}

// NewPitchTracker creates a tracker with the given configuration
func NewPitchTracker(cfg config.PitchConfig) *PitchTracker {
	return &PitchTracker{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "pitch_tracker",
		}),
	}
}

// Track computes the pitch contour of the waveform
func (pt *PitchTracker) Track(samples []float64, sampleRate int) (*PitchTrack, error) {
	return pt.TrackWithProgress(samples, sampleRate, nil)
}

// TrackWithProgress computes the pitch contour, reporting per-chunk progress
func (pt *PitchTracker) TrackWithProgress(samples []float64, sampleRate int, progress ProgressFunc) (*PitchTrack, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyWaveform
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	hop := pt.cfg.HopSize
	frameSize := pt.cfg.FrameSize
	numFrames := len(samples)/hop + 1

	detector := tonal.NewYinWithParams(tonal.YinParams{
		SampleRate: sampleRate,
		FrameSize:  frameSize,
		MinFreq:    pt.cfg.FMin,
		MaxFreq:    pt.cfg.FMax,
		Threshold:  pt.cfg.YinThreshold,
	})

	// Zero-pad so every centered frame is fully materialized
	pad := frameSize / 2
	padded := make([]float64, pad+len(samples)+pad+frameSize)
	copy(padded[pad:], samples)

	// Chunking bounds peak work per progress tick; frames index into the
	// shared padded buffer, so results are identical across chunk sizes.
	framesPerChunk := int(pt.cfg.ChunkSeconds * float64(sampleRate) / float64(hop))
	if framesPerChunk < 1 {
		framesPerChunk = numFrames
	}
	numChunks := (numFrames + framesPerChunk - 1) / framesPerChunk

	pt.logger.Debug("extracting pitch contour", logging.Fields{
		"frames":      numFrames,
		"chunks":      numChunks,
		"sample_rate": sampleRate,
	})

	points := make([]PitchPoint, numFrames)
	for chunk := 0; chunk < numChunks; chunk++ {
		first := chunk * framesPerChunk
		last := min(first+framesPerChunk, numFrames)

		for i := first; i < last; i++ {
			start := i * hop
			frame := padded[start : start+frameSize]
			est := detector.DetectFrame(frame)

			point := PitchPoint{
				Time:       float64(i*hop) / float64(sampleRate),
				Voiced:     est.Voiced,
				VoicedProb: est.Confidence,
			}
			if est.Voiced && est.F0 > 0 && !math.IsNaN(est.F0) {
				f0 := est.F0
				st := HzToSemitones(f0)
				point.F0Hz = &f0
				point.Semitones = &st
			} else {
				point.Voiced = false
			}
			points[i] = point
		}

		notify(progress, "pitch", chunk+1, numChunks)
	}

	return &PitchTrack{
		Duration:   float64(len(samples)) / float64(sampleRate),
		SampleRate: sampleRate,
		HopLength:  hop,
		FrameCount: numFrames,
		Pitch:      points,
	}, nil
}

// HzToSemitones converts a frequency to semitones relative to A4 (440 Hz)
func HzToSemitones(hz float64) float64 {
	return 12.0 * math.Log2(hz/440.0)
}

// SliceContour returns the pitch points inside [start, end], keeping the
// absolute time and adding time relative to the slice start.
func SliceContour(track *PitchTrack, start, end float64) []ContourPoint {
	contour := make([]ContourPoint, 0)
	for _, p := range track.Pitch {
		if p.Time < start || p.Time > end {
			continue
		}
		contour = append(contour, ContourPoint{
			Time:         p.Time,
			RelativeTime: p.Time - start,
			F0Hz:         p.F0Hz,
			Semitones:    p.Semitones,
			Voiced:       p.Voiced,
			VoicedProb:   p.VoicedProb,
		})
	}
	return contour
}

// ContourStatistics summarizes the voiced portion of a contour
func ContourStatistics(contour []ContourPoint) ContourStats {
	var stats ContourStats
	if len(contour) == 0 {
		return stats
	}

	var hz, st []float64
	for _, p := range contour {
		if p.Voiced && p.F0Hz != nil {
			hz = append(hz, *p.F0Hz)
			st = append(st, *p.Semitones)
		}
	}
	stats.VoicedRatio = float64(len(hz)) / float64(len(contour))
	if len(hz) == 0 {
		return stats
	}

	minHz, maxHz := hz[0], hz[0]
	sumHz, sumSt := 0.0, 0.0
	for i, v := range hz {
		sumHz += v
		sumSt += st[i]
		if v < minHz {
			minHz = v
		}
		if v > maxHz {
			maxHz = v
		}
	}
	stats.MeanPitchHz = sumHz / float64(len(hz))
	stats.MeanSemitones = sumSt / float64(len(st))
	stats.PitchRange = maxHz - minHz

	variance := 0.0
	for _, v := range hz {
		d := v - stats.MeanPitchHz
		variance += d * d
	}
	stats.PitchStd = math.Sqrt(variance / float64(len(hz)))

	return stats
}
