package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/window"
)

func testConfig() *Config {
	return &Config{
		FrameSize:        8,
		Window:           "none",
		SubbandCount:     4,
		HistoryDepth:     2,
		RolloffThreshold: 0.85,
	}
}

func onesFrame(length int) []float64 {
	frame := make([]float64, length)
	for i := range frame {
		frame[i] = 1.0
	}
	return frame
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame size", func(c *Config) { c.FrameSize = 0 }},
		{"unknown window", func(c *Config) { c.Window = "kaiser" }},
		{"zero sub-bands", func(c *Config) { c.SubbandCount = 0 }},
		{"negative history", func(c *Config) { c.HistoryDepth = -1 }},
		{"zero rolloff", func(c *Config) { c.RolloffThreshold = 0 }},
		{"rolloff above one", func(c *Config) { c.RolloffThreshold = 1.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidArgument)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.FrameSize = -1

	_, err := New(cfg)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestNewNilConfigUsesDefaults(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 1024, p.FrameSize())
	assert.Equal(t, window.Hann, p.WindowKind())
}

func TestProcessFrameDCSignal(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))

	// Rectangular window, DC frame: all the energy lands in bin 0
	magnitude := p.MagnitudeSpectrum()
	require.Len(t, magnitude, 4)
	assert.InDelta(t, 8.0, magnitude[0], 1e-9)
	for i := 1; i < len(magnitude); i++ {
		assert.InDelta(t, 0.0, magnitude[i], 1e-9, "bin %d", i)
	}

	re := p.FFTReal()
	require.Len(t, re, 8)
	assert.InDelta(t, 8.0, re[0], 1e-9)

	rms, err := p.RootMeanSquare()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rms, 1e-12)

	peak, err := p.PeakEnergy()
	require.NoError(t, err)
	assert.Equal(t, 1.0, peak)

	zcr, err := p.ZeroCrossingRate()
	require.NoError(t, err)
	assert.Equal(t, 0.0, zcr)

	centroid, err := p.SpectralCentroid()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, centroid, 1e-9)
}

func TestProcessFrameRejectsEmpty(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	err = p.ProcessFrame(nil, false)
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestProcessFrameAutoReconfigures(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))
	require.Equal(t, 8, p.FrameSize())

	// A differently sized frame resizes every buffer and the plan
	require.NoError(t, p.ProcessFrame(onesFrame(16), false))
	assert.Equal(t, 16, p.FrameSize())
	assert.Len(t, p.MagnitudeSpectrum(), 8)
	assert.InDelta(t, 16.0, p.MagnitudeSpectrum()[0], 1e-9)
}

func TestConfigureRejectsInvalidAndKeepsState(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))

	err = p.Configure(0, window.Hann)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	// Still on the old plan
	assert.Equal(t, 8, p.FrameSize())
	require.NoError(t, p.ProcessFrame(onesFrame(8), false))
}

func TestConfigureResetsOnsetHistory(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))
	_, err = p.SpectralDifference()
	require.NoError(t, err)

	// Without the reset this would be a dimension mismatch
	require.NoError(t, p.Configure(16, window.None))
	require.NoError(t, p.ProcessFrame(onesFrame(16), false))

	_, err = p.SpectralDifference()
	assert.NoError(t, err)
}

func TestBeatDetectionIntegration(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	frame := onesFrame(8)

	// First beat-tracked frame compares against empty history
	require.NoError(t, p.ProcessFrame(frame, true))
	assert.True(t, p.IsKick())

	// The steady signal converges to silence in the kick band
	require.NoError(t, p.ProcessFrame(frame, true))
	require.NoError(t, p.ProcessFrame(frame, true))
	assert.False(t, p.IsKick())

	band, err := p.GetBand(1)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, band, 1e-9)
}

func TestOnsetQueriesThroughPipeline(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))

	diff, err := p.EnergyDifference()
	require.NoError(t, err)
	assert.InDelta(t, 8.0, diff, 1e-9)

	// Same frame again: no energy increase
	require.NoError(t, p.ProcessFrame(onesFrame(8), false))
	diff, err = p.EnergyDifference()
	require.NoError(t, err)
	assert.Equal(t, 0.0, diff)

	hfc, err := p.HighFrequencyContent()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, hfc, 1e-9)
}

func TestProcessFrameAsyncPreservesOrder(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	// Queue frames of growing amplitude; the last result must reflect the
	// last submission once all futures resolve
	futures := make([]<-chan error, 0, 4)
	for i := 1; i <= 4; i++ {
		frame := make([]float64, 8)
		for j := range frame {
			frame[j] = float64(i)
		}
		futures = append(futures, p.ProcessFrameAsync(frame, false))
	}

	for i, future := range futures {
		assert.NoError(t, <-future, "frame %d", i)
	}

	peak, err := p.PeakEnergy()
	require.NoError(t, err)
	assert.Equal(t, 4.0, peak)
}

func TestProcessFrameAsyncReportsErrors(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	err = <-p.ProcessFrameAsync(nil, false)
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestCloseStopsProcessing(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, p.ProcessFrame(onesFrame(8), false))
	require.NoError(t, p.Close())

	err = p.ProcessFrame(onesFrame(8), false)
	assert.ErrorIs(t, err, common.ErrNotConfigured)

	err = <-p.ProcessFrameAsync(onesFrame(8), false)
	assert.ErrorIs(t, err, common.ErrNotConfigured)

	// Queries over the last analyzed frame keep working
	rms, err := p.RootMeanSquare()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rms, 1e-12)

	// Idempotent
	assert.NoError(t, p.Close())
}

func TestResizeDelegation(t *testing.T) {
	p, err := New(testConfig())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.ResizeSubbands(2))
	require.NoError(t, p.ResizeHistory(4))

	assert.ErrorIs(t, p.ResizeSubbands(0), common.ErrInvalidArgument)
	assert.ErrorIs(t, p.ResizeHistory(-1), common.ErrInvalidArgument)
}
