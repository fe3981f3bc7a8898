package analyzer

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/window"
)

// Config holds the pipeline's analysis parameters
type Config struct {
	// Frame size in samples; also the FFT length
	FrameSize int `json:"frame_size" mapstructure:"frame_size"`

	// Window kind applied before the transform: "none", "hann", "hamming",
	// "blackman", "triangular", "welch"
	Window string `json:"window" mapstructure:"window"`

	// Beat detection dimensions
	SubbandCount int `json:"subband_count" mapstructure:"subband_count"`
	HistoryDepth int `json:"history_depth" mapstructure:"history_depth"`

	// Cumulative-magnitude fraction for the spectral rolloff query
	RolloffThreshold float64 `json:"rolloff_threshold" mapstructure:"rolloff_threshold"`
}

// DefaultConfig returns sensible defaults for music analysis
func DefaultConfig() *Config {
	return &Config{
		FrameSize:        1024,
		Window:           "hann",
		SubbandCount:     32,
		HistoryDepth:     43,
		RolloffThreshold: 0.85,
	}
}

// Validate checks the configuration for out-of-range values
func (c *Config) Validate() error {
	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size must be positive, got %d", common.ErrInvalidArgument, c.FrameSize)
	}
	if _, err := window.ParseKind(c.Window); err != nil {
		return err
	}
	if c.SubbandCount <= 0 {
		return fmt.Errorf("%w: sub-band count must be positive, got %d", common.ErrInvalidArgument, c.SubbandCount)
	}
	if c.HistoryDepth <= 0 {
		return fmt.Errorf("%w: history depth must be positive, got %d", common.ErrInvalidArgument, c.HistoryDepth)
	}
	if c.RolloffThreshold <= 0 || c.RolloffThreshold > 1 {
		return fmt.Errorf("%w: rolloff threshold must be in (0, 1], got %v", common.ErrInvalidArgument, c.RolloffThreshold)
	}
	return nil
}
