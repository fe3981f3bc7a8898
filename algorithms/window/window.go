package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Kind identifies a window function used to taper an audio frame before
// the spectral transform.
type Kind int

const (
	// None is the rectangular (boxcar) window: all coefficients are 1
	None Kind = iota
	// Hann is the raised-cosine window
	Hann
	// Hamming is the Hann variant with non-zero endpoints
	Hamming
	// Blackman is the three-term cosine window
	Blackman
	// Triangular is the Bartlett window
	Triangular
	// Welch is the parabolic window
	Welch
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case Triangular:
		return "triangular"
	case Welch:
		return "welch"
	default:
		return "unknown"
	}
}

// ParseKind maps a config/CLI string onto a window kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "rectangular":
		return None, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "triangular", "bartlett":
		return Triangular, nil
	case "welch":
		return Welch, nil
	default:
		return None, fmt.Errorf("%w: unknown window kind %q", common.ErrInvalidArgument, s)
	}
}

// Create generates the coefficient envelope for the given kind and length.
// All windows are symmetric (length-1 denominator). Deterministic, no state.
func Create(length int, kind Kind) ([]float64, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: window length must be positive, got %d", common.ErrInvalidArgument, length)
	}

	coefficients := make([]float64, length)

	// A one-sample window degenerates to unity for every kind; the
	// symmetric formulas below would divide by zero.
	if length == 1 {
		coefficients[0] = 1.0
		return coefficients, nil
	}

	denominator := float64(length - 1)

	switch kind {
	case None:
		for i := range coefficients {
			coefficients[i] = 1.0
		}

	case Hann:
		for i := range coefficients {
			coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
		}

	case Hamming:
		for i := range coefficients {
			coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/denominator)
		}

	case Blackman:
		a0, a1, a2 := 0.42, 0.5, 0.08
		for i := range coefficients {
			arg := 2 * math.Pi * float64(i) / denominator
			coefficients[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
		}

	case Triangular:
		for i := range coefficients {
			if i <= length/2 {
				coefficients[i] = 2.0 * float64(i) / denominator
			} else {
				coefficients[i] = 2.0 - 2.0*float64(i)/denominator
			}
		}

	case Welch:
		half := denominator / 2.0
		for i := range coefficients {
			arg := (float64(i) - half) / half
			coefficients[i] = 1.0 - arg*arg
		}

	default:
		return nil, fmt.Errorf("%w: unknown window kind %d", common.ErrInvalidArgument, int(kind))
	}

	return coefficients, nil
}

// Apply multiplies a signal by window coefficients into a new slice
func Apply(signal, coefficients []float64) ([]float64, error) {
	windowed := make([]float64, len(signal))
	if err := ApplyTo(windowed, signal, coefficients); err != nil {
		return nil, err
	}
	return windowed, nil
}

// ApplyTo multiplies a signal by window coefficients into dst. All three
// slices must have the same length; dst may alias signal.
func ApplyTo(dst, signal, coefficients []float64) error {
	if len(signal) != len(coefficients) {
		return fmt.Errorf("%w: signal length (%d) doesn't match window size (%d)",
			common.ErrDimensionMismatch, len(signal), len(coefficients))
	}
	if len(dst) != len(signal) {
		return fmt.Errorf("%w: destination length (%d) doesn't match signal length (%d)",
			common.ErrDimensionMismatch, len(dst), len(signal))
	}

	for i := range signal {
		dst[i] = signal[i] * coefficients[i]
	}

	return nil
}
