package onset

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Detector computes frame-to-frame onset strength metrics. It records the
// previous frame's energy, magnitude spectrum and complex spectrum
// independently, so each metric family warms up on its own first call: the
// missing "previous" is treated as all-zero with the shape of the first
// input. Once a metric is warm, feeding it a spectrum of a different length
// fails with a dimension mismatch and leaves the stored state untouched.
//
// A Detector must not be mutated concurrently; serialize calls per instance.
type Detector struct {
	previousEnergy    float64
	previousMagnitude []float64
	previousReal      []float64
	previousImaginary []float64
}

// NewDetector creates an onset detector with no recorded history
func NewDetector() *Detector {
	return &Detector{}
}

// Reset drops all recorded previous-frame state, returning the detector to
// its uninitialized condition. Call after reconfiguring the frame size.
func (d *Detector) Reset() {
	d.previousEnergy = 0
	d.previousMagnitude = nil
	d.previousReal = nil
	d.previousImaginary = nil
}

// EnergyDifference returns the increase in squared frame energy since the
// previous call, clamped to >= 0, and records the current energy.
func (d *Detector) EnergyDifference(frame []float64) (float64, error) {
	if len(frame) == 0 {
		return 0, fmt.Errorf("%w: audio frame is empty", common.ErrEmptyInput)
	}

	energy := 0.0
	for _, sample := range frame {
		energy += sample * sample
	}

	difference := energy - d.previousEnergy
	d.previousEnergy = energy

	if difference < 0 {
		difference = 0
	}

	return difference, nil
}

// SpectralDifference returns the squared bin-wise change since the previous
// magnitude spectrum, normalized by bin count, and records the spectrum.
func (d *Detector) SpectralDifference(magnitude []float64) (float64, error) {
	if err := d.checkMagnitude(magnitude); err != nil {
		return 0, err
	}

	sum := 0.0
	for i, m := range magnitude {
		diff := m - d.previousMagnitudeBin(i)
		sum += diff * diff
	}

	d.storeMagnitude(magnitude)

	return sum / float64(len(magnitude)), nil
}

// SpectralDifferenceHWR is the half-wave rectified spectral difference:
// only bins whose magnitude grew contribute. Shares the recorded previous
// magnitude spectrum with SpectralDifference.
func (d *Detector) SpectralDifferenceHWR(magnitude []float64) (float64, error) {
	if err := d.checkMagnitude(magnitude); err != nil {
		return 0, err
	}

	sum := 0.0
	for i, m := range magnitude {
		diff := m - d.previousMagnitudeBin(i)
		if diff > 0 {
			sum += diff * diff
		}
	}

	d.storeMagnitude(magnitude)

	return sum / float64(len(magnitude)), nil
}

// ComplexSpectralDifference sums, over all bins, the Euclidean distance
// between the current and previous complex spectra, and records the
// current one.
func (d *Detector) ComplexSpectralDifference(real, imaginary []float64) (float64, error) {
	if len(real) == 0 {
		return 0, fmt.Errorf("%w: spectrum is empty", common.ErrEmptyInput)
	}
	if len(imaginary) != len(real) {
		return 0, fmt.Errorf("%w: real length %d, imaginary length %d",
			common.ErrDimensionMismatch, len(real), len(imaginary))
	}
	if d.previousReal != nil && len(d.previousReal) != len(real) {
		return 0, fmt.Errorf("%w: spectrum length %d, previous length %d",
			common.ErrDimensionMismatch, len(real), len(d.previousReal))
	}

	sum := 0.0
	for i := range real {
		deltaReal := real[i]
		deltaImaginary := imaginary[i]
		if d.previousReal != nil {
			deltaReal -= d.previousReal[i]
			deltaImaginary -= d.previousImaginary[i]
		}
		sum += math.Sqrt(deltaReal*deltaReal + deltaImaginary*deltaImaginary)
	}

	if d.previousReal == nil {
		d.previousReal = make([]float64, len(real))
		d.previousImaginary = make([]float64, len(imaginary))
	}
	copy(d.previousReal, real)
	copy(d.previousImaginary, imaginary)

	return sum, nil
}

// HighFrequencyContent returns sum(i * M_i), weighting each bin's magnitude
// by its index. Stateless; grouped here for API symmetry with the other
// onset metrics.
func (d *Detector) HighFrequencyContent(magnitude []float64) (float64, error) {
	if len(magnitude) == 0 {
		return 0, fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	sum := 0.0
	for i, m := range magnitude {
		sum += float64(i) * m
	}

	return sum, nil
}

func (d *Detector) checkMagnitude(magnitude []float64) error {
	if len(magnitude) == 0 {
		return fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}
	if d.previousMagnitude != nil && len(d.previousMagnitude) != len(magnitude) {
		return fmt.Errorf("%w: magnitude length %d, previous length %d",
			common.ErrDimensionMismatch, len(magnitude), len(d.previousMagnitude))
	}
	return nil
}

func (d *Detector) previousMagnitudeBin(i int) float64 {
	if d.previousMagnitude == nil {
		return 0
	}
	return d.previousMagnitude[i]
}

func (d *Detector) storeMagnitude(magnitude []float64) {
	if d.previousMagnitude == nil {
		d.previousMagnitude = make([]float64, len(magnitude))
	}
	copy(d.previousMagnitude, magnitude)
}
