package beat

import (
	"fmt"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

const (
	// DefaultSubbandCount partitions the magnitude spectrum into 32 bands
	DefaultSubbandCount = 32

	// DefaultHistoryDepth keeps 43 frames of per-band energy, roughly one
	// second of history at typical frame rates
	DefaultHistoryDepth = 43

	// kickBand is the sub-band polled by IsKick
	kickBand = 0

	// Empirical linear mapping from sub-band variance to beat sensitivity:
	// noisier bands get a lower multiplier, making detection more
	// permissive. Tuning constants; preserve exactly.
	thresholdSlope     = -0.0025714
	thresholdIntercept = 1.15142857
)

// Detector performs sub-band beat detection over a stream of magnitude
// spectra. Each update partitions the spectrum into equal sub-bands,
// tracks a rolling per-band energy history in a ring indexed by one shared
// cursor, and flags a beat when a band's current energy exceeds its rolling
// average scaled by an adaptive, variance-driven threshold.
//
// Updates mutate internal history; serialize Update/Resize calls per
// instance. The read-only queries are safe between updates.
type Detector struct {
	subbandCount int
	historyDepth int

	// current per-band state, refreshed on every Update
	subbands       []float64
	variance       []float64
	beatThresholds []float64
	averageEnergy  []float64

	// ring of past per-band energies; all bands share one write cursor
	history         [][]float64
	historyPosition int
}

// New creates a detector with the given sub-band count and history depth
func New(subbandCount, historyDepth int) (*Detector, error) {
	if subbandCount <= 0 {
		return nil, fmt.Errorf("%w: sub-band count must be positive, got %d", common.ErrInvalidArgument, subbandCount)
	}
	if historyDepth <= 0 {
		return nil, fmt.Errorf("%w: history depth must be positive, got %d", common.ErrInvalidArgument, historyDepth)
	}

	d := &Detector{}
	d.reallocate(subbandCount, historyDepth)
	return d, nil
}

// NewDefault creates a detector with the default sub-band count and
// history depth
func NewDefault() *Detector {
	d := &Detector{}
	d.reallocate(DefaultSubbandCount, DefaultHistoryDepth)
	return d
}

// SubbandCount returns the number of sub-bands
func (d *Detector) SubbandCount() int {
	return d.subbandCount
}

// HistoryDepth returns the number of history entries kept per sub-band
func (d *Detector) HistoryDepth() int {
	return d.historyDepth
}

// Resize changes the sub-band count. All per-band state including the
// energy history is reinitialized to zero and the ring cursor resets. An
// invalid count is rejected and the prior value remains in effect.
func (d *Detector) Resize(subbandCount int) error {
	if subbandCount <= 0 {
		err := fmt.Errorf("%w: sub-band count must be positive, got %d", common.ErrInvalidArgument, subbandCount)
		logging.Error(err, "beat detection sub-band count unchanged", logging.Fields{
			"current": d.subbandCount,
		})
		return err
	}

	d.reallocate(subbandCount, d.historyDepth)
	return nil
}

// ResizeHistory changes the per-band history depth. History buffers are
// reinitialized to zero and the ring cursor resets; the sub-band count is
// preserved. An invalid depth is rejected and the prior value remains.
func (d *Detector) ResizeHistory(historyDepth int) error {
	if historyDepth <= 0 {
		err := fmt.Errorf("%w: history depth must be positive, got %d", common.ErrInvalidArgument, historyDepth)
		logging.Error(err, "beat detection history depth unchanged", logging.Fields{
			"current": d.historyDepth,
		})
		return err
	}

	d.reallocate(d.subbandCount, historyDepth)
	return nil
}

func (d *Detector) reallocate(subbandCount, historyDepth int) {
	d.subbandCount = subbandCount
	d.historyDepth = historyDepth

	d.subbands = make([]float64, subbandCount)
	d.variance = make([]float64, subbandCount)
	d.beatThresholds = make([]float64, subbandCount)
	d.averageEnergy = make([]float64, subbandCount)

	d.history = make([][]float64, subbandCount)
	for s := range d.history {
		d.history[s] = make([]float64, historyDepth)
	}
	d.historyPosition = 0
}

// Update consumes one magnitude spectrum: it averages each sub-band's bins,
// derives the variance-adaptive beat threshold, refreshes the rolling
// average from history, then writes the new band energies at the shared
// ring cursor and advances it once.
//
// Bins beyond an exact multiple of the sub-band count are dropped. The
// spectrum must provide at least one bin per sub-band.
func (d *Detector) Update(magnitudeSpectrum []float64) error {
	if len(magnitudeSpectrum) == 0 {
		return fmt.Errorf("%w: magnitude spectrum is empty", common.ErrEmptyInput)
	}

	binsPerBand := len(magnitudeSpectrum) / d.subbandCount
	if binsPerBand == 0 {
		return fmt.Errorf("%w: spectrum has %d bins for %d sub-bands",
			common.ErrInvalidArgument, len(magnitudeSpectrum), d.subbandCount)
	}

	for s := 0; s < d.subbandCount; s++ {
		band := magnitudeSpectrum[s*binsPerBand : (s+1)*binsPerBand]

		average := common.Mean(band)
		d.subbands[s] = average
		d.variance[s] = common.PopulationVariance(band, average)
		d.beatThresholds[s] = thresholdSlope*d.variance[s] + thresholdIntercept
	}

	// Rolling average over history is taken before the new energies are
	// written, so the current frame never compares against itself.
	for s := 0; s < d.subbandCount; s++ {
		d.averageEnergy[s] = common.Mean(d.history[s])
	}

	for s := 0; s < d.subbandCount; s++ {
		d.history[s][d.historyPosition] = d.subbands[s]
	}
	d.historyPosition = (d.historyPosition + 1) % d.historyDepth

	return nil
}

// IsBeat reports whether the sub-band's current energy exceeds its rolling
// average scaled by the adaptive threshold. An out-of-range index returns
// false along with the error, keeping the polling ergonomics of the
// boolean result.
func (d *Detector) IsBeat(subband int) (bool, error) {
	if subband < 0 || subband >= d.subbandCount {
		err := fmt.Errorf("%w: sub-band %d, count %d", common.ErrIndexOutOfRange, subband, d.subbandCount)
		logging.Error(err, "cannot check if beat")
		return false, err
	}

	return d.subbands[subband] > d.averageEnergy[subband]*d.beatThresholds[subband], nil
}

// IsKick reports a beat in the low-frequency kick band
func (d *Detector) IsKick() bool {
	isBeat, _ := d.IsBeat(kickBand)
	return isBeat
}

// IsSnare reports a beat across the low-mid sub-bands
func (d *Detector) IsSnare() (bool, error) {
	low := 1
	high := d.subbandCount / 3
	threshold := (high - low) / 3

	return d.IsBeatRange(low, high, threshold)
}

// IsHiHat reports a beat across the upper half of the sub-bands
func (d *Detector) IsHiHat() (bool, error) {
	low := d.subbandCount / 2
	high := d.subbandCount - 1
	threshold := (high - low) / 3

	return d.IsBeatRange(low, high, threshold)
}

// IsBeatRange counts beating sub-bands in [low, high] inclusive and reports
// whether more than threshold of them are beating. Bounds must satisfy
// 0 <= low < high < SubbandCount.
func (d *Detector) IsBeatRange(low, high, threshold int) (bool, error) {
	if low < 0 || low >= d.subbandCount {
		err := fmt.Errorf("%w: low sub-band %d, expected in [0, %d)", common.ErrInvalidArgument, low, d.subbandCount)
		logging.Error(err, "cannot check beat range")
		return false, err
	}
	if high < 0 || high >= d.subbandCount {
		err := fmt.Errorf("%w: high sub-band %d, expected in [0, %d)", common.ErrInvalidArgument, high, d.subbandCount)
		logging.Error(err, "cannot check beat range")
		return false, err
	}
	if high <= low {
		err := fmt.Errorf("%w: high sub-band %d must be greater than low sub-band %d", common.ErrInvalidArgument, high, low)
		logging.Error(err, "cannot check beat range")
		return false, err
	}

	beats := 0
	for s := low; s <= high; s++ {
		if isBeat, _ := d.IsBeat(s); isBeat {
			beats++
		}
	}

	return beats > threshold, nil
}

// GetBand returns the sub-band's current average magnitude. Sub-band 0 is
// deliberately excluded, matching long-standing behavior callers depend on;
// out-of-range queries (including 0) return the -1 sentinel with the error.
func (d *Detector) GetBand(subband int) (float64, error) {
	if subband <= 0 || subband >= d.subbandCount {
		err := fmt.Errorf("%w: sub-band %d, expected in (0, %d)", common.ErrIndexOutOfRange, subband, d.subbandCount)
		logging.Error(err, "cannot get sub-band magnitude")
		return -1, err
	}

	return d.subbands[subband], nil
}
