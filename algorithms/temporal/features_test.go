package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

func constantFrame(value float64, length int) []float64 {
	frame := make([]float64, length)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

func TestFeaturesRejectEmptyFrame(t *testing.T) {
	_, err := RootMeanSquare(nil)
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	_, err = PeakEnergy([]float64{})
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	_, err = ZeroCrossingRate(nil)
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestConstantFrameDescriptors(t *testing.T) {
	// For a constant signal c: RMS = |c|, peak = |c|, no crossings
	for _, c := range []float64{0.5, -0.5, 2.0, 0.0} {
		frame := constantFrame(c, 64)

		rms, err := RootMeanSquare(frame)
		require.NoError(t, err)
		assert.InDelta(t, abs(c), rms, 1e-12, "rms of %v", c)

		peak, err := PeakEnergy(frame)
		require.NoError(t, err)
		assert.Equal(t, abs(c), peak, "peak of %v", c)

		zcr, err := ZeroCrossingRate(frame)
		require.NoError(t, err)
		assert.Equal(t, 0.0, zcr, "zcr of %v", c)
	}
}

func TestRootMeanSquare(t *testing.T) {
	rms, err := RootMeanSquare([]float64{3, 4, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 3.5355339059327378, rms, 1e-12)
}

func TestPeakEnergyUsesAbsoluteValue(t *testing.T) {
	peak, err := PeakEnergy([]float64{0.1, -0.9, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.9, peak)
}

func TestZeroCrossingRateAlternatingSignal(t *testing.T) {
	zcr, err := ZeroCrossingRate([]float64{1, -1, 1, -1})
	require.NoError(t, err)
	assert.Equal(t, 3.0, zcr)
}

func TestZeroCrossingRateTreatsZeroAsNonPositive(t *testing.T) {
	// sign test is x > 0, so 0 -> 1 counts but -1 -> 0 does not
	zcr, err := ZeroCrossingRate([]float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, zcr)

	zcr, err = ZeroCrossingRate([]float64{-1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, zcr)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
