package windowing

import (
	"fmt"
	"math"
)

// Hann represents a Hann window function
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window. Periodic (symmetric=false) is the
// usual choice for spectral analysis.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Apply applies the window to a signal, returning a new slice
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i := range signal {
		windowed[i] = signal[i] * h.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := range signal {
		signal[i] *= h.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// Size returns the window size
func (h *Hann) Size() int {
	return h.size
}
