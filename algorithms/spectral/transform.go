package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// Transform wraps a forward complex FFT plan sized to a fixed frame length.
// The kernel is mjibson/go-dsp's unscaled forward FFT, so for a constant
// input frame Real[0] equals the sum of the samples and Imaginary[0] is 0.
//
// A Transform owns its working buffers and reuses them across Execute
// calls; it is not safe for concurrent use. The zero value is unconfigured
// and rejects Execute.
type Transform struct {
	length     int
	input      []complex128
	real       []float64
	imaginary  []float64
	configured bool
}

// NewTransform prepares a transform plan for the given frame length
func NewTransform(length int) (*Transform, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: transform length must be positive, got %d", common.ErrInvalidArgument, length)
	}

	return &Transform{
		length:     length,
		input:      make([]complex128, length),
		real:       make([]float64, length),
		imaginary:  make([]float64, length),
		configured: true,
	}, nil
}

// Length returns the frame length the plan was prepared for
func (t *Transform) Length() int {
	return t.length
}

// Configured reports whether the plan can execute
func (t *Transform) Configured() bool {
	return t.configured
}

// Execute runs the forward FFT over the (already windowed) samples, treated
// as complex input with zero imaginary part. The returned slices are owned
// by the plan and are valid until the next Execute or Release; callers that
// retain spectra across frames must copy them.
func (t *Transform) Execute(windowedSamples []float64) ([]float64, []float64, error) {
	if !t.configured {
		return nil, nil, fmt.Errorf("%w: transform executed before Prepare or after Release", common.ErrNotConfigured)
	}
	if len(windowedSamples) != t.length {
		return nil, nil, fmt.Errorf("%w: input length %d, plan length %d",
			common.ErrBufferMismatch, len(windowedSamples), t.length)
	}

	for i, sample := range windowedSamples {
		t.input[i] = complex(sample, 0)
	}

	output := fft.FFT(t.input)

	for i, bin := range output {
		t.real[i] = real(bin)
		t.imaginary[i] = imag(bin)
	}

	return t.real, t.imaginary, nil
}

// Release frees the plan's buffers. The plan cannot be reused afterwards;
// prepare a new one with NewTransform. Safe to call more than once.
func (t *Transform) Release() {
	t.input = nil
	t.real = nil
	t.imaginary = nil
	t.configured = false
}
