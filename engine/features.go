package engine

import (
	"fmt"

	"github.com/antiphon-audio/antiphon/algorithms/common"
	"github.com/antiphon-audio/antiphon/algorithms/spectral"
	"github.com/antiphon-audio/antiphon/algorithms/temporal"
	"github.com/antiphon-audio/antiphon/algorithms/windowing"
	"github.com/antiphon-audio/antiphon/engine/config"
)

// FeatureExtractor turns a short audio window plus its pitch points into a
// fixed-length feature vector suitable for Euclidean comparison. The layout
// is:
//
//	[0]      median voiced pitch in Hz, scaled
//	[1]      voiced pitch standard deviation in Hz
//	[2]      mean frame RMS, scaled
//	[3..15]  MFCC means
//	[16]     spectral centroid mean, scaled
//	[17]     spectral rolloff mean, scaled
//	[18]     spectral flux mean
//	[19]     zero-crossing rate, scaled
type FeatureExtractor struct {
	cfg        config.FeatureConfig
	sampleRate int

	stft     *spectral.STFT
	mfcc     *spectral.MFCC
	centroid *spectral.SpectralCentroid
	rolloff  *spectral.SpectralRolloff
	flux     *spectral.SpectralFlux
	zcr      *spectral.ZeroCrossingRate
	energy   *temporal.Energy
	window   *windowing.Hann
}

// NewFeatureExtractor creates an extractor bound to one sample rate
func NewFeatureExtractor(cfg config.FeatureConfig, sampleRate int) (*FeatureExtractor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	mfcc := spectral.NewMFCC(sampleRate, cfg.NumMFCC)
	if err := mfcc.Initialize(cfg.WindowSize); err != nil {
		return nil, fmt.Errorf("failed to initialize MFCC: %w", err)
	}

	return &FeatureExtractor{
		cfg:        cfg,
		sampleRate: sampleRate,
		stft:       spectral.NewSTFT(),
		mfcc:       mfcc,
		centroid:   spectral.NewSpectralCentroid(sampleRate),
		rolloff:    spectral.NewSpectralRolloff(sampleRate),
		flux:       spectral.NewSpectralFlux(),
		zcr:        spectral.NewZeroCrossingRate(cfg.WindowSize, cfg.HopSize),
		energy:     temporal.NewEnergy(cfg.WindowSize, cfg.HopSize, sampleRate),
		window:     windowing.NewHann(cfg.WindowSize, false),
	}, nil
}

// Dimension returns the feature vector length
func (fe *FeatureExtractor) Dimension() int {
	return fe.cfg.NumMFCC + 7
}

// Extract computes the feature vector for one audio window. pitch holds the
// contour points whose times fall inside the window; windows with no voiced
// points get zero pitch features.
func (fe *FeatureExtractor) Extract(samples []float64, pitch []PitchPoint) ([]float64, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyWaveform
	}

	// Short trailing windows are zero padded to one full analysis frame
	if len(samples) < fe.cfg.WindowSize {
		padded := make([]float64, fe.cfg.WindowSize)
		copy(padded, samples)
		samples = padded
	}

	features := make([]float64, 0, fe.Dimension())

	var voicedHz []float64
	for _, p := range pitch {
		if p.Voiced && p.F0Hz != nil {
			voicedHz = append(voicedHz, *p.F0Hz)
		}
	}
	if len(voicedHz) > 0 {
		features = append(features,
			common.Median(voicedHz)*fe.cfg.PitchScale,
			common.PopulationStdDev(voicedHz))
	} else {
		features = append(features, 0, 0)
	}

	features = append(features, common.Mean(fe.energy.ComputeShortTimeEnergy(samples))*fe.cfg.EnergyScale)

	result, err := fe.stft.ComputeWithWindow(samples, fe.cfg.WindowSize, fe.cfg.HopSize, fe.sampleRate, fe.window)
	if err != nil {
		return nil, fmt.Errorf("STFT failed: %w", err)
	}

	coeffs, err := fe.mfcc.ComputeFrames(result.Magnitude)
	if err != nil {
		return nil, fmt.Errorf("MFCC failed: %w", err)
	}
	for c := 0; c < fe.cfg.NumMFCC; c++ {
		sum := 0.0
		for _, frame := range coeffs {
			sum += frame[c]
		}
		features = append(features, sum/float64(len(coeffs)))
	}

	features = append(features,
		common.Mean(fe.centroid.ComputeFrames(result.Magnitude))*fe.cfg.CentroidScale,
		common.Mean(fe.rolloff.ComputeFrames(result.Magnitude, fe.cfg.RolloffThreshold))*fe.cfg.RolloffScale)

	fluxes := fe.flux.Compute(result.Magnitude)
	if len(fluxes) > 0 {
		features = append(features, common.Mean(fluxes))
	} else {
		features = append(features, 0)
	}

	features = append(features, fe.zcr.Compute(samples)*fe.cfg.ZCRScale)

	return features, nil
}
