package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antiphon-audio/antiphon/engine/config"
)

func TestTrackSine(t *testing.T) {
	samples := synthWave(3.0, toneBurst{start: 0, end: 3.0, freq: 200})

	tracker := NewPitchTracker(config.DefaultPitchConfig())
	track, err := tracker.Track(samples, testSampleRate)
	require.NoError(t, err)

	assert.Equal(t, testSampleRate, track.SampleRate)
	assert.Equal(t, 512, track.HopLength)
	assert.InDelta(t, 3.0, track.Duration, 1e-9)

	wantFrames := len(samples)/512 + 1
	assert.Equal(t, wantFrames, track.FrameCount)
	require.Len(t, track.Pitch, wantFrames)

	for i, p := range track.Pitch {
		// Times sit exactly on the hop grid
		assert.InDelta(t, float64(i*512)/testSampleRate, p.Time, 1e-9)

		if p.Voiced {
			require.NotNil(t, p.F0Hz)
			require.NotNil(t, p.Semitones)
			assert.False(t, math.IsNaN(*p.F0Hz))
			assert.InDelta(t, 12*math.Log2(*p.F0Hz/440.0), *p.Semitones, 1e-9)
		} else {
			assert.Nil(t, p.F0Hz)
			assert.Nil(t, p.Semitones)
		}
	}

	voiced := 0
	for _, p := range track.Pitch {
		if p.Voiced {
			voiced++
			assert.InDelta(t, 200.0, *p.F0Hz, 4.0)
		}
	}
	assert.Greater(t, voiced, wantFrames*3/4, "a continuous tone should be mostly voiced")
}

func TestTrackChunkingIsTransparent(t *testing.T) {
	samples := synthWave(5.0,
		toneBurst{start: 0.5, end: 2.2, freq: 150},
		toneBurst{start: 2.8, end: 4.5, freq: 310})

	small := config.DefaultPitchConfig()
	small.ChunkSeconds = 1.0
	large := config.DefaultPitchConfig()
	large.ChunkSeconds = 30.0

	trackSmall, err := NewPitchTracker(small).Track(samples, testSampleRate)
	require.NoError(t, err)
	trackLarge, err := NewPitchTracker(large).Track(samples, testSampleRate)
	require.NoError(t, err)

	require.Equal(t, trackLarge.FrameCount, trackSmall.FrameCount)
	for i := range trackLarge.Pitch {
		a, b := trackLarge.Pitch[i], trackSmall.Pitch[i]
		assert.Equal(t, a.Voiced, b.Voiced, "frame %d", i)
		if a.Voiced && b.Voiced {
			assert.Equal(t, *a.F0Hz, *b.F0Hz, "frame %d", i)
		}
	}
}

func TestTrackEmptyInput(t *testing.T) {
	tracker := NewPitchTracker(config.DefaultPitchConfig())

	_, err := tracker.Track(nil, testSampleRate)
	assert.ErrorIs(t, err, ErrEmptyWaveform)

	_, err = tracker.Track([]float64{0.1}, 0)
	assert.Error(t, err)
}

func TestTrackProgress(t *testing.T) {
	samples := synthWave(4.0, toneBurst{start: 0, end: 4.0, freq: 220})

	cfg := config.DefaultPitchConfig()
	cfg.ChunkSeconds = 1.0

	var stages []int
	_, err := NewPitchTracker(cfg).TrackWithProgress(samples, testSampleRate, func(stage string, completed, total int) {
		require.Equal(t, "pitch", stage)
		stages = append(stages, completed)
	})
	require.NoError(t, err)

	require.NotEmpty(t, stages)
	assert.Equal(t, len(stages), stages[len(stages)-1], "last update reports all chunks done")
}

func TestSliceContour(t *testing.T) {
	samples := synthWave(3.0, toneBurst{start: 0, end: 3.0, freq: 200})
	track, err := NewPitchTracker(config.DefaultPitchConfig()).Track(samples, testSampleRate)
	require.NoError(t, err)

	contour := SliceContour(track, 1.0, 2.0)
	require.NotEmpty(t, contour)

	for _, p := range contour {
		assert.GreaterOrEqual(t, p.Time, 1.0)
		assert.LessOrEqual(t, p.Time, 2.0)
		assert.InDelta(t, p.Time-1.0, p.RelativeTime, 1e-9)
	}
}

func TestContourStatistics(t *testing.T) {
	f150, f250 := 150.0, 250.0
	s150, s250 := HzToSemitones(f150), HzToSemitones(f250)

	contour := []ContourPoint{
		{Voiced: true, F0Hz: &f150, Semitones: &s150},
		{Voiced: true, F0Hz: &f250, Semitones: &s250},
		{Voiced: false},
		{Voiced: false},
	}

	stats := ContourStatistics(contour)
	assert.InDelta(t, 200.0, stats.MeanPitchHz, 1e-9)
	assert.InDelta(t, 100.0, stats.PitchRange, 1e-9)
	assert.InDelta(t, 0.5, stats.VoicedRatio, 1e-9)
	assert.InDelta(t, 50.0, stats.PitchStd, 1e-9)

	empty := ContourStatistics(nil)
	assert.Zero(t, empty.MeanPitchHz)
	assert.Zero(t, empty.VoicedRatio)
}

func TestHzToSemitones(t *testing.T) {
	assert.InDelta(t, 0.0, HzToSemitones(440), 1e-12)
	assert.InDelta(t, 12.0, HzToSemitones(880), 1e-12)
	assert.InDelta(t, -12.0, HzToSemitones(220), 1e-12)
}
