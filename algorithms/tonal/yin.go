package tonal

import (
	"math"
)

// YinParams contains parameters for YIN pitch detection
type YinParams struct {
	SampleRate int     `json:"sample_rate"`
	FrameSize  int     `json:"frame_size"` // Analysis frame length (default: 2048)
	MinFreq    float64 `json:"min_freq"`   // Minimum fundamental (Hz, default: 80)
	MaxFreq    float64 `json:"max_freq"`   // Maximum fundamental (Hz, default: 500)
	Threshold  float64 `json:"threshold"`  // CMNDF voicing threshold (default: 0.15)
}

// FramePitch is the pitch estimate for a single analysis frame.
// Confidence is reported for unvoiced frames too, as the strength of the
// best (rejected) period candidate.
type FramePitch struct {
	F0         float64 `json:"f0"`
	Confidence float64 `json:"confidence"`
	Voiced     bool    `json:"voiced"`
}

// Yin implements the YIN fundamental frequency estimator.
//
// Reference:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
//
// The lag search is restricted to the [MinFreq, MaxFreq] band, which
// bounds the cost of the difference function to W * (SampleRate/MinFreq)
// per frame.
type Yin struct {
	params YinParams

	// Integration window, half the frame
	window int
	tauMin int
	tauMax int
}

// NewYin creates a YIN detector with default parameters
func NewYin(sampleRate int) *Yin {
	return NewYinWithParams(YinParams{SampleRate: sampleRate})
}

// NewYinWithParams creates a YIN detector with custom parameters
func NewYinWithParams(params YinParams) *Yin {
	if params.FrameSize <= 0 {
		params.FrameSize = 2048
	}
	if params.MinFreq <= 0 {
		params.MinFreq = 80.0
	}
	if params.MaxFreq <= 0 {
		params.MaxFreq = 500.0
	}
	if params.Threshold <= 0 {
		params.Threshold = 0.15
	}

	window := params.FrameSize / 2

	tauMin := int(float64(params.SampleRate) / params.MaxFreq)
	if tauMin < 2 {
		tauMin = 2
	}
	tauMax := int(float64(params.SampleRate)/params.MinFreq) + 1
	if tauMax > window-1 {
		tauMax = window - 1
	}

	return &Yin{
		params: params,
		window: window,
		tauMin: tauMin,
		tauMax: tauMax,
	}
}

// Params returns the detector parameters
func (y *Yin) Params() YinParams {
	return y.params
}

// FrameSize returns the expected analysis frame length
func (y *Yin) FrameSize() int {
	return y.params.FrameSize
}

// DetectFrame estimates the fundamental frequency of one frame.
// The frame must be at least FrameSize samples; extra samples are ignored.
func (y *Yin) DetectFrame(frame []float64) FramePitch {
	if len(frame) < y.window+y.tauMax || y.tauMax <= y.tauMin {
		return FramePitch{}
	}

	cmndf := y.cumulativeMeanNormalizedDifference(frame)

	// First lag below threshold, walked forward to its local minimum
	tau := -1
	for t := y.tauMin; t <= y.tauMax; t++ {
		if cmndf[t] < y.params.Threshold {
			for t+1 <= y.tauMax && cmndf[t+1] < cmndf[t] {
				t++
			}
			tau = t
			break
		}
	}

	voiced := tau >= 0
	if !voiced {
		// Report the best rejected candidate so callers still get a
		// voicing probability for unvoiced frames
		tau = y.tauMin
		for t := y.tauMin + 1; t <= y.tauMax; t++ {
			if cmndf[t] < cmndf[tau] {
				tau = t
			}
		}
	}

	period := parabolicInterpolation(cmndf, tau)
	if period <= 0 {
		return FramePitch{}
	}

	f0 := float64(y.params.SampleRate) / period
	confidence := 1.0 - cmndf[tau]
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	if f0 < y.params.MinFreq || f0 > y.params.MaxFreq {
		return FramePitch{Confidence: confidence}
	}

	return FramePitch{F0: f0, Confidence: confidence, Voiced: voiced}
}

// DetectFrames runs DetectFrame over consecutive hops of a signal
func (y *Yin) DetectFrames(signal []float64, hopSize int) []FramePitch {
	if hopSize <= 0 || len(signal) < y.params.FrameSize {
		return []FramePitch{}
	}

	numFrames := (len(signal)-y.params.FrameSize)/hopSize + 1
	results := make([]FramePitch, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		results[i] = y.DetectFrame(signal[start : start+y.params.FrameSize])
	}

	return results
}

// cumulativeMeanNormalizedDifference computes the CMNDF up to tauMax
func (y *Yin) cumulativeMeanNormalizedDifference(frame []float64) []float64 {
	diff := make([]float64, y.tauMax+1)
	for tau := 1; tau <= y.tauMax; tau++ {
		sum := 0.0
		for j := 0; j < y.window; j++ {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	cmndf := make([]float64, y.tauMax+1)
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau <= y.tauMax; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
		} else {
			cmndf[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	return cmndf
}

// parabolicInterpolation refines the lag estimate using the CMNDF values
// around the minimum
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	shift := -b / (2 * a)
	if math.Abs(shift) > 1 {
		return float64(peakIdx)
	}

	return float64(peakIdx) + shift
}
