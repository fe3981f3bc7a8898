package beat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

func constantSpectrum(value float64, bins int) []float64 {
	spectrum := make([]float64, bins)
	for i := range spectrum {
		spectrum[i] = value
	}
	return spectrum
}

func TestNewValidation(t *testing.T) {
	_, err := New(0, 43)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = New(32, -1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	d, err := New(4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, d.SubbandCount())
	assert.Equal(t, 2, d.HistoryDepth())
}

func TestNewDefault(t *testing.T) {
	d := NewDefault()
	assert.Equal(t, DefaultSubbandCount, d.SubbandCount())
	assert.Equal(t, DefaultHistoryDepth, d.HistoryDepth())
}

func TestUpdateValidation(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	err = d.Update(nil)
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	// Fewer bins than sub-bands leaves some bands without data
	err = d.Update(constantSpectrum(1, 3))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestSteadySignalConvergesToNoBeat(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	spectrum := constantSpectrum(2.0, 8)

	// First frame compares against an all-zero history: everything beats
	require.NoError(t, d.Update(spectrum))
	isBeat, err := d.IsBeat(0)
	require.NoError(t, err)
	assert.True(t, isBeat)

	// History average is now half the band energy: still a beat
	require.NoError(t, d.Update(spectrum))
	isBeat, err = d.IsBeat(0)
	require.NoError(t, err)
	assert.True(t, isBeat)

	// History has caught up; the adaptive threshold suppresses the band
	require.NoError(t, d.Update(spectrum))
	isBeat, err = d.IsBeat(0)
	require.NoError(t, err)
	assert.False(t, isBeat)

	// Steady state persists
	require.NoError(t, d.Update(spectrum))
	isBeat, err = d.IsBeat(0)
	require.NoError(t, err)
	assert.False(t, isBeat)
}

func TestEnergyJumpTriggersBeat(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	quiet := constantSpectrum(1.0, 8)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.Update(quiet))
	}
	isBeat, err := d.IsBeat(0)
	require.NoError(t, err)
	require.False(t, isBeat)

	// A 4x energy jump clears the threshold against the quiet history
	require.NoError(t, d.Update(constantSpectrum(4.0, 8)))
	isBeat, err = d.IsBeat(0)
	require.NoError(t, err)
	assert.True(t, isBeat)
}

func TestIsBeatRejectsOutOfRange(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	for _, subband := range []int{-1, 4, 100} {
		isBeat, err := d.IsBeat(subband)
		assert.ErrorIs(t, err, common.ErrIndexOutOfRange, "sub-band %d", subband)
		assert.False(t, isBeat)
	}
}

func TestIsKickPollsBandZero(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	assert.False(t, d.IsKick())

	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))

	isBeat, err := d.IsBeat(0)
	require.NoError(t, err)
	assert.Equal(t, isBeat, d.IsKick())
}

func TestIsSnareAndIsHiHat(t *testing.T) {
	d, err := New(32, 2)
	require.NoError(t, err)

	// First frame beats everywhere, so both ranges fire
	require.NoError(t, d.Update(constantSpectrum(2.0, 64)))

	snare, err := d.IsSnare()
	require.NoError(t, err)
	assert.True(t, snare)

	hihat, err := d.IsHiHat()
	require.NoError(t, err)
	assert.True(t, hihat)

	// Converged on a steady signal, nothing fires
	require.NoError(t, d.Update(constantSpectrum(2.0, 64)))
	require.NoError(t, d.Update(constantSpectrum(2.0, 64)))

	snare, err = d.IsSnare()
	require.NoError(t, err)
	assert.False(t, snare)

	hihat, err = d.IsHiHat()
	require.NoError(t, err)
	assert.False(t, hihat)
}

func TestIsSnareRejectsDegenerateRange(t *testing.T) {
	// With 4 sub-bands the snare range collapses to high <= low
	d, err := New(4, 2)
	require.NoError(t, err)

	_, err = d.IsSnare()
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestIsBeatRangeValidation(t *testing.T) {
	d, err := New(8, 2)
	require.NoError(t, err)

	_, err = d.IsBeatRange(-1, 4, 1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = d.IsBeatRange(0, 8, 1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = d.IsBeatRange(3, 3, 1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = d.IsBeatRange(4, 2, 1)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestIsBeatRangeCountsInclusive(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	// All four bands beat on the first frame: 3 bands in [1, 3]
	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))

	fires, err := d.IsBeatRange(1, 3, 2)
	require.NoError(t, err)
	assert.True(t, fires)

	// Exactly at the threshold does not fire; the count must exceed it
	fires, err = d.IsBeatRange(1, 3, 3)
	require.NoError(t, err)
	assert.False(t, fires)
}

func TestGetBand(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	require.NoError(t, d.Update([]float64{1, 1, 2, 2, 3, 3, 4, 4}))

	for subband, want := range map[int]float64{1: 2, 2: 3, 3: 4} {
		got, err := d.GetBand(subband)
		require.NoError(t, err, "sub-band %d", subband)
		assert.InDelta(t, want, got, 1e-12, "sub-band %d", subband)
	}
}

func TestGetBandExcludesBandZero(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)
	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))

	for _, subband := range []int{0, -1, 4} {
		got, err := d.GetBand(subband)
		assert.ErrorIs(t, err, common.ErrIndexOutOfRange, "sub-band %d", subband)
		assert.Equal(t, -1.0, got, "sub-band %d", subband)
	}
}

func TestUpdateDropsTrailingBins(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	// 10 bins over 4 bands: 2 bins per band, the last 2 are ignored
	spectrum := []float64{1, 1, 2, 2, 3, 3, 4, 4, 99, 99}
	require.NoError(t, d.Update(spectrum))

	got, err := d.GetBand(3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)
}

func TestResizeResetsState(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))
	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))
	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))

	isBeat, err := d.IsBeat(0)
	require.NoError(t, err)
	require.False(t, isBeat)

	require.NoError(t, d.Resize(8))
	assert.Equal(t, 8, d.SubbandCount())
	assert.Equal(t, 2, d.HistoryDepth())

	// Fresh zeroed history: the next steady frame beats again
	require.NoError(t, d.Update(constantSpectrum(2.0, 8)))
	isBeat, err = d.IsBeat(0)
	require.NoError(t, err)
	assert.True(t, isBeat)
}

func TestResizeRejectsInvalidCountAndKeepsPrior(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	err = d.Resize(0)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Equal(t, 4, d.SubbandCount())
}

func TestResizeHistory(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)

	err = d.ResizeHistory(-5)
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Equal(t, 2, d.HistoryDepth())

	require.NoError(t, d.ResizeHistory(8))
	assert.Equal(t, 8, d.HistoryDepth())
	assert.Equal(t, 4, d.SubbandCount())

	// A deeper zeroed history dilutes the rolling average, so the steady
	// signal keeps beating for more frames before converging
	spectrum := constantSpectrum(2.0, 8)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.Update(spectrum))
		isBeat, err := d.IsBeat(0)
		require.NoError(t, err)
		assert.True(t, isBeat, "frame %d", i)
	}
}
