package temporal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Stateless time-domain descriptors over a single audio frame. Each function
// is pure and reentrant; frames must be non-empty.

// RootMeanSquare calculates sqrt(mean(x^2)) of the frame
func RootMeanSquare(frame []float64) (float64, error) {
	if len(frame) == 0 {
		return 0, fmt.Errorf("%w: audio frame is empty", common.ErrEmptyInput)
	}

	sum := 0.0
	for _, sample := range frame {
		sum += sample * sample
	}

	return math.Sqrt(sum / float64(len(frame))), nil
}

// PeakEnergy returns the largest absolute sample value in the frame
func PeakEnergy(frame []float64) (float64, error) {
	if len(frame) == 0 {
		return 0, fmt.Errorf("%w: audio frame is empty", common.ErrEmptyInput)
	}

	peak := 0.0
	for _, sample := range frame {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
		}
	}

	return peak, nil
}

// ZeroCrossingRate counts the sample pairs whose sign differs, as a raw
// float count (not normalized by frame length). A sample of exactly zero is
// treated as non-positive: the sign test is x > 0.
func ZeroCrossingRate(frame []float64) (float64, error) {
	if len(frame) == 0 {
		return 0, fmt.Errorf("%w: audio frame is empty", common.ErrEmptyInput)
	}

	crossings := 0.0
	for i := 1; i < len(frame); i++ {
		currentPositive := frame[i] > 0
		previousPositive := frame[i-1] > 0

		if currentPositive != previousPositive {
			crossings += 1.0
		}
	}

	return crossings, nil
}
