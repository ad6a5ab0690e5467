package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// PitchConfig configures pitch contour extraction
type PitchConfig struct {
	FMin         float64 `json:"f_min" mapstructure:"f_min"`
	FMax         float64 `json:"f_max" mapstructure:"f_max"`
	FrameSize    int     `json:"frame_size" mapstructure:"frame_size"`
	HopSize      int     `json:"hop_size" mapstructure:"hop_size"`
	ChunkSeconds float64 `json:"chunk_seconds" mapstructure:"chunk_seconds"`
	YinThreshold float64 `json:"yin_threshold" mapstructure:"yin_threshold"`
}

// FeatureConfig configures windowed feature extraction
type FeatureConfig struct {
	WindowSize       int     `json:"window_size" mapstructure:"window_size"`
	HopSize          int     `json:"hop_size" mapstructure:"hop_size"`
	NumMFCC          int     `json:"num_mfcc" mapstructure:"num_mfcc"`
	RolloffThreshold float64 `json:"rolloff_threshold" mapstructure:"rolloff_threshold"`

	// Scaling applied so each feature contributes comparably to
	// Euclidean distance
	PitchScale    float64 `json:"pitch_scale" mapstructure:"pitch_scale"`
	EnergyScale   float64 `json:"energy_scale" mapstructure:"energy_scale"`
	CentroidScale float64 `json:"centroid_scale" mapstructure:"centroid_scale"`
	RolloffScale  float64 `json:"rolloff_scale" mapstructure:"rolloff_scale"`
	ZCRScale      float64 `json:"zcr_scale" mapstructure:"zcr_scale"`
}

// SegmenterConfig configures reference-based segmentation
type SegmenterConfig struct {
	WindowSeconds      float64 `json:"window_seconds" mapstructure:"window_seconds"`
	HopSeconds         float64 `json:"hop_seconds" mapstructure:"hop_seconds"`
	MedianKernel       int     `json:"median_kernel" mapstructure:"median_kernel"`
	MinDurationSeconds float64 `json:"min_duration_seconds" mapstructure:"min_duration_seconds"`
}

// AutoSegmenterConfig configures unsupervised segmentation
type AutoSegmenterConfig struct {
	EnergyPercentile   float64 `json:"energy_percentile" mapstructure:"energy_percentile"`
	MinRegionSeconds   float64 `json:"min_region_seconds" mapstructure:"min_region_seconds"`
	MinVoicedFrames    int     `json:"min_voiced_frames" mapstructure:"min_voiced_frames"`
	MaxConfidence      float64 `json:"max_confidence" mapstructure:"max_confidence"`
	FallbackConfidence float64 `json:"fallback_confidence" mapstructure:"fallback_confidence"`

	// LabelPolicy decides the label for a region from its median pitch and
	// the median pitch across all regions. Nil selects the default policy
	// (lower pitch is the call).
	LabelPolicy func(regionPitch, medianPitch float64) string `json:"-" mapstructure:"-"`
}

// AlignConfig configures offset search and pair metrics
type AlignConfig struct {
	SearchRange      float64 `json:"search_range" mapstructure:"search_range"`
	Step             float64 `json:"step" mapstructure:"step"`
	MinVoicedSearch  int     `json:"min_voiced_search" mapstructure:"min_voiced_search"`
	MinVoicedMetrics int     `json:"min_voiced_metrics" mapstructure:"min_voiced_metrics"`
	PointsPerSecond  int     `json:"points_per_second" mapstructure:"points_per_second"`
	MinGridPoints    int     `json:"min_grid_points" mapstructure:"min_grid_points"`
	MaxGridPoints    int     `json:"max_grid_points" mapstructure:"max_grid_points"`
	MetricsGrid      int     `json:"metrics_grid" mapstructure:"metrics_grid"`
}

// Config is the full analysis configuration
type Config struct {
	Pitch     PitchConfig         `json:"pitch" mapstructure:"pitch"`
	Feature   FeatureConfig       `json:"feature" mapstructure:"feature"`
	Segmenter SegmenterConfig     `json:"segmenter" mapstructure:"segmenter"`
	AutoSeg   AutoSegmenterConfig `json:"auto_segmenter" mapstructure:"auto_segmenter"`
	Align     AlignConfig         `json:"align" mapstructure:"align"`
	Workers   int                 `json:"workers" mapstructure:"workers"`
}

// DefaultPitchConfig returns pitch extraction defaults
func DefaultPitchConfig() PitchConfig {
	return PitchConfig{
		FMin:         80.0,
		FMax:         500.0,
		FrameSize:    2048,
		HopSize:      512,
		ChunkSeconds: 30.0,
		YinThreshold: 0.15,
	}
}

// DefaultFeatureConfig returns feature extraction defaults
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		WindowSize:       2048,
		HopSize:          512,
		NumMFCC:          13,
		RolloffThreshold: 0.85,
		PitchScale:       10.0,
		EnergyScale:      100.0,
		CentroidScale:    0.001,
		RolloffScale:     0.001,
		ZCRScale:         100.0,
	}
}

// DefaultSegmenterConfig returns reference-based segmentation defaults
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		WindowSeconds:      2.0,
		HopSeconds:         0.5,
		MedianKernel:       5,
		MinDurationSeconds: 1.5,
	}
}

// DefaultAutoSegmenterConfig returns unsupervised segmentation defaults
func DefaultAutoSegmenterConfig() AutoSegmenterConfig {
	return AutoSegmenterConfig{
		EnergyPercentile:   30.0,
		MinRegionSeconds:   1.0,
		MinVoicedFrames:    10,
		MaxConfidence:      0.9,
		FallbackConfidence: 0.5,
	}
}

// DefaultAlignConfig returns offset search defaults
func DefaultAlignConfig() AlignConfig {
	return AlignConfig{
		SearchRange:      2.0,
		Step:             0.01,
		MinVoicedSearch:  10,
		MinVoicedMetrics: 5,
		PointsPerSecond:  50,
		MinGridPoints:    10,
		MaxGridPoints:    100,
		MetricsGrid:      100,
	}
}

// Default returns the full default configuration
func Default() *Config {
	return &Config{
		Pitch:     DefaultPitchConfig(),
		Feature:   DefaultFeatureConfig(),
		Segmenter: DefaultSegmenterConfig(),
		AutoSeg:   DefaultAutoSegmenterConfig(),
		Align:     DefaultAlignConfig(),
		Workers:   2,
	}
}

// Load reads a configuration file and merges it over the defaults.
// Supported formats are whatever viper supports for the file extension
// (json, yaml, toml).
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.Pitch.FMin <= 0 || c.Pitch.FMax <= c.Pitch.FMin {
		return fmt.Errorf("invalid pitch frequency range [%.1f, %.1f]", c.Pitch.FMin, c.Pitch.FMax)
	}
	if c.Pitch.HopSize <= 0 || c.Pitch.FrameSize <= 0 {
		return fmt.Errorf("pitch frame_size and hop_size must be positive")
	}
	if c.Segmenter.HopSeconds <= 0 || c.Segmenter.WindowSeconds <= 0 {
		return fmt.Errorf("segmenter window_seconds and hop_seconds must be positive")
	}
	if c.Segmenter.MedianKernel < 1 || c.Segmenter.MedianKernel%2 == 0 {
		return fmt.Errorf("median_kernel must be a positive odd number, got %d", c.Segmenter.MedianKernel)
	}
	if c.Align.Step <= 0 || c.Align.SearchRange <= 0 {
		return fmt.Errorf("align step and search_range must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
