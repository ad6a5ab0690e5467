package engine

import (
	"math"
)

const testSampleRate = 8000

type toneBurst struct {
	start, end float64
	freq       float64
}

// synthWave renders tone bursts into an otherwise silent waveform. A short
// linear fade at the burst edges avoids clicks that would smear the
// spectral features.
func synthWave(duration float64, bursts ...toneBurst) []float64 {
	samples := make([]float64, int(duration*testSampleRate))
	fade := int(0.02 * testSampleRate)

	for _, b := range bursts {
		startIdx := int(b.start * testSampleRate)
		endIdx := min(int(b.end*testSampleRate), len(samples))

		for i := startIdx; i < endIdx; i++ {
			v := 0.8 * math.Sin(2*math.Pi*b.freq*float64(i-startIdx)/testSampleRate)

			if i-startIdx < fade {
				v *= float64(i-startIdx) / float64(fade)
			}
			if endIdx-i < fade {
				v *= float64(endIdx-i) / float64(fade)
			}
			samples[i] = v
		}
	}
	return samples
}

// contourFromFunc builds a synthetic voiced contour by sampling f at even
// steps. Times are relative to the contour start.
func contourFromFunc(duration, step, timeShift float64, f func(t float64) float64) []ContourPoint {
	var contour []ContourPoint
	for t := 0.0; t <= duration; t += step {
		st := f(t + timeShift)
		hz := 440.0 * math.Pow(2, st/12.0)
		contour = append(contour, ContourPoint{
			Time:         t,
			RelativeTime: t,
			F0Hz:         &hz,
			Semitones:    &st,
			Voiced:       true,
			VoicedProb:   1.0,
		})
	}
	return contour
}
