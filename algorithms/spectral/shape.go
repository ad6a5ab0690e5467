package spectral

import (
	"math"
)

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralCentroid creates a new spectral centroid calculator
func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{sampleRate: sampleRate}
}

// Compute calculates the spectral centroid for a single magnitude spectrum
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sc.freqBins) != len(spectrum) {
		sc.freqBins = frequencyBins(len(spectrum), sc.sampleRate)
	}

	numerator := 0.0
	denominator := 0.0

	for i := range spectrum {
		numerator += sc.freqBins[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}

// ComputeFrames processes every frame of a magnitude spectrogram
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}
	return centroids
}

// SpectralRolloff computes the frequency below which a given fraction of
// the spectral energy is concentrated
type SpectralRolloff struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{sampleRate: sampleRate}
}

// Compute calculates the rolloff frequency for a single magnitude spectrum.
// threshold is the energy fraction, typically 0.85.
func (sr *SpectralRolloff) Compute(spectrum []float64, threshold float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sr.freqBins) != len(spectrum) {
		sr.freqBins = frequencyBins(len(spectrum), sr.sampleRate)
	}

	totalEnergy := 0.0
	for _, mag := range spectrum {
		totalEnergy += mag * mag
	}

	if totalEnergy == 0 {
		return 0
	}

	targetEnergy := threshold * totalEnergy
	cumulativeEnergy := 0.0

	for i := range spectrum {
		cumulativeEnergy += spectrum[i] * spectrum[i]
		if cumulativeEnergy >= targetEnergy {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes every frame of a magnitude spectrogram
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64, threshold float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum, threshold)
	}
	return rolloffs
}

// SpectralFlux computes frame-to-frame spectral change
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute calculates flux between consecutive frames of a magnitude
// spectrogram: the Euclidean norm of the per-bin differences. Returns
// one value per frame transition (len-1 values).
func (sf *SpectralFlux) Compute(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)

	for t := 1; t < len(spectrogram); t++ {
		sum := 0.0
		for f := 0; f < len(spectrogram[t]); f++ {
			diff := spectrogram[t][f] - spectrogram[t-1][f]
			sum += diff * diff
		}
		flux[t-1] = math.Sqrt(sum)
	}

	return flux
}

// frequencyBins maps spectrum bin indices to center frequencies in Hz
func frequencyBins(numBins, sampleRate int) []float64 {
	bins := make([]float64, numBins)
	for i := 0; i < numBins; i++ {
		bins[i] = float64(i) * float64(sampleRate) / float64((numBins-1)*2)
	}
	return bins
}
