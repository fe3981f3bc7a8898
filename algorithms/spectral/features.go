package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Stateless frequency-domain descriptors over a magnitude spectrum (the
// non-redundant half of the FFT output). Each function is pure; spectra must
// be non-empty but may legitimately contain zeros, so the degenerate
// all-zero cases return guard values instead of failing.

// epsilon guards the log/division paths against all-zero spectra
const epsilon = 1e-10

// Centroid calculates the spectral centroid sum(i*M_i) / sum(M_i) in bin
// units. Returns 0 for an all-zero spectrum.
func Centroid(magnitude []float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	denominator := floats.Sum(magnitude)
	if denominator == 0 {
		return 0, nil
	}

	numerator := 0.0
	for i, m := range magnitude {
		numerator += float64(i) * m
	}

	return numerator / denominator, nil
}

// Flatness calculates the ratio of geometric mean to arithmetic mean
// (Wiener entropy), in [0, 1]. The geometric mean is computed in the log
// domain for numerical stability; any bin at or below the epsilon guard
// collapses the geometric mean, so the result is 0.
func Flatness(magnitude []float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	arithmeticMean := stat.Mean(magnitude, nil)
	if arithmeticMean <= epsilon {
		return 0, nil
	}

	logSum := 0.0
	for _, m := range magnitude {
		if m <= epsilon {
			return 0, nil
		}
		logSum += math.Log(m)
	}

	geometricMean := math.Exp(logSum / float64(len(magnitude)))

	return common.Clamp(geometricMean/arithmeticMean, 0.0, 1.0), nil
}

// Crest calculates max(M) / sum(M). Returns 0 for an all-zero spectrum.
func Crest(magnitude []float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	total := floats.Sum(magnitude)
	if total == 0 {
		return 0, nil
	}

	return floats.Max(magnitude) / total, nil
}

// Rolloff finds the smallest bin index k such that the cumulative magnitude
// through k reaches threshold * total magnitude, returned normalized to
// [0, 1] as k / len. A threshold around 0.85 is typical. Returns 0 for an
// all-zero spectrum.
func Rolloff(magnitude []float64, threshold float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}
	if threshold <= 0 || threshold > 1 {
		return 0, fmt.Errorf("%w: rolloff threshold must be in (0, 1], got %v", common.ErrInvalidArgument, threshold)
	}

	total := floats.Sum(magnitude)
	if total == 0 {
		return 0, nil
	}

	target := threshold * total
	cumulative := 0.0

	for i, m := range magnitude {
		cumulative += m
		if cumulative >= target {
			return float64(i) / float64(len(magnitude)), nil
		}
	}

	// Floating-point accumulation can land a hair under the target; the
	// rolloff is then the last bin.
	return float64(len(magnitude)-1) / float64(len(magnitude)), nil
}

// Kurtosis calculates the excess kurtosis of the magnitude distribution
// using population moments: (sum((M-mu)^4)/N) / sigma^4 - 3. Returns 0 when
// the spectrum has no spread (sigma = 0).
func Kurtosis(magnitude []float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	mean := stat.Mean(magnitude, nil)
	variance := common.PopulationVariance(magnitude, mean)
	if variance <= epsilon {
		return 0, nil
	}

	fourthMoment := 0.0
	for _, m := range magnitude {
		diff := m - mean
		fourthMoment += diff * diff * diff * diff
	}
	fourthMoment /= float64(len(magnitude))

	return fourthMoment/(variance*variance) - 3.0, nil
}
