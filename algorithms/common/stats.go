package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Statistical helpers shared by the analysis packages, built on gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// PopulationStdDev calculates the population standard deviation
// (normalized by n, not n-1)
func PopulationStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	mean := Mean(data)
	sum := 0.0
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(data)))
}

// Median calculates the middle value of a slice
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// ZScore normalizes data to zero mean and unit variance
func ZScore(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}

	mean := Mean(data)
	std := PopulationStdDev(data)

	normalized := make([]float64, len(data))
	for i, val := range data {
		normalized[i] = (val - mean) / (std + 1e-10)
	}

	return normalized
}

// MedianFilter applies median filtering with given window size,
// shrinking the window at the slice edges
func MedianFilter(data []float64, windowSize int) []float64 {
	if len(data) == 0 || windowSize <= 0 {
		return data
	}

	if windowSize > len(data) {
		windowSize = len(data)
	}

	result := make([]float64, len(data))
	halfWindow := windowSize / 2

	for i := range data {
		start := i - halfWindow
		end := i + halfWindow + 1

		if start < 0 {
			start = 0
		}
		if end > len(data) {
			end = len(data)
		}

		result[i] = Median(data[start:end])
	}

	return result
}

// Correlation calculates the Pearson correlation coefficient between two series
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}

	return stat.Correlation(x, y, nil)
}

// Linspace returns n evenly spaced values from start to end inclusive
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}

	result := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range result {
		result[i] = start + float64(i)*step
	}
	result[n-1] = end
	return result
}

// Interpolate performs linear interpolation of (x, y) at xi.
// x must be sorted ascending; values outside the range clamp to the
// nearest endpoint.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}
	if len(x) == 1 {
		return y[0]
	}

	if xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// Binary search for the interval
	left := 0
	right := len(x) - 1

	for right-left > 1 {
		mid := (left + right) / 2
		if x[mid] <= xi {
			left = mid
		} else {
			right = mid
		}
	}

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// InterpolateSeries evaluates Interpolate at every point of xi
func InterpolateSeries(x, y, xi []float64) []float64 {
	result := make([]float64, len(xi))
	for i, v := range xi {
		result[i] = Interpolate(x, y, v)
	}
	return result
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
