package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// MagnitudeSpectrum fills dst with the per-bin modulus of the complex
// spectrum, retaining only the non-redundant half: dst must have length
// len(real)/2. The full spectra stay untouched.
func MagnitudeSpectrum(dst, real, imaginary []float64) error {
	if len(real) == 0 {
		return fmt.Errorf("%w: spectrum is empty", common.ErrEmptyInput)
	}
	if len(imaginary) != len(real) {
		return fmt.Errorf("%w: real length %d, imaginary length %d",
			common.ErrDimensionMismatch, len(real), len(imaginary))
	}
	if len(dst) != len(real)/2 {
		return fmt.Errorf("%w: magnitude length %d, expected %d",
			common.ErrBufferMismatch, len(dst), len(real)/2)
	}

	for i := range dst {
		dst[i] = math.Sqrt(real[i]*real[i] + imaginary[i]*imaginary[i])
	}

	return nil
}
