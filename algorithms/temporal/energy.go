package temporal

import (
	"math"
)

// Energy computes short-time RMS energy over overlapping frames
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// ComputeShortTimeEnergy calculates per-frame RMS energy
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * e.hopSize

		sumSquares := 0.0
		for j := startIdx; j < startIdx+e.frameSize; j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}

// FrameTime converts a frame index to the frame's start time in seconds
func (e *Energy) FrameTime(frameIdx int) float64 {
	return float64(frameIdx*e.hopSize) / float64(e.sampleRate)
}
