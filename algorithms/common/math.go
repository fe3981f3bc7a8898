package common

import (
	"gonum.org/v1/gonum/stat"
)

// Basic statistical helpers shared across algorithms, using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopulationVariance calculates the biased (divide by n) variance around the
// mean. The beat detector's threshold mapping was tuned against this
// definition, not the sample (n-1) variance gonum's stat.Variance computes.
func PopulationVariance(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, val := range data {
		diff := val - mean
		sum += diff * diff
	}

	return sum / float64(len(data))
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

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
