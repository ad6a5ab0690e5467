package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp's Fourier transforms
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the forward transform of a real signal.
// go-dsp handles all sizes, including non-power-of-2.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeInverse computes the inverse transform
func (f *FFT) ComputeInverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.IFFT(x)
}
