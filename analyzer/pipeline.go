package analyzer

import (
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-pulse/algorithms/beat"
	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/algorithms/onset"
	"github.com/RyanBlaney/sonido-pulse/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pulse/algorithms/temporal"
	"github.com/RyanBlaney/sonido-pulse/algorithms/window"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// Pipeline turns raw PCM frames into windowed spectra and feature queries:
// frame -> window -> FFT -> magnitude spectrum -> time/frequency/onset
// features and sub-band beat detection.
//
// The pipeline exclusively owns its frame snapshot, window coefficients,
// transform plan and spectral buffers, plus a beat and an onset detector.
// One transform-and-update sequence runs at a time per instance: the
// internal mutex serializes ProcessFrame with all queries, and the async
// path feeds a single worker goroutine in FIFO order. Hosts wanting
// overlapping analysis use independent Pipeline instances.
type Pipeline struct {
	mu sync.Mutex

	frameSize        int
	windowKind       window.Kind
	rolloffThreshold float64

	frame              []float64
	windowCoefficients []float64
	windowed           []float64
	fftReal            []float64
	fftImaginary       []float64
	magnitude          []float64

	transform *spectral.Transform
	beats     *beat.Detector
	onsets    *onset.Detector

	// async submission; sendMu orders submissions and guards closed
	sendMu     sync.Mutex
	jobs       chan frameJob
	workerDone chan struct{}
	closed     bool
}

type frameJob struct {
	frame            []float64
	runBeatDetection bool
	result           chan error
}

// asyncQueueDepth bounds the number of frames waiting on the worker
const asyncQueueDepth = 16

// New creates a pipeline from the configuration. The transform plan is
// allocated immediately; release it with Close.
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kind, err := window.ParseKind(cfg.Window)
	if err != nil {
		return nil, err
	}

	beats, err := beat.New(cfg.SubbandCount, cfg.HistoryDepth)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		rolloffThreshold: cfg.RolloffThreshold,
		beats:            beats,
		onsets:           onset.NewDetector(),
		jobs:             make(chan frameJob, asyncQueueDepth),
		workerDone:       make(chan struct{}),
	}

	if err := p.reconfigure(cfg.FrameSize, kind); err != nil {
		return nil, err
	}

	go p.worker()

	return p, nil
}

// Configure reallocates the frame buffer, window, spectral buffers and
// transform plan for a new frame size and window kind. The previous plan is
// released only after the replacement is successfully built, so a rejected
// configuration leaves the pipeline unchanged.
func (p *Pipeline) Configure(frameSize int, kind window.Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reconfigure(frameSize, kind)
}

func (p *Pipeline) reconfigure(frameSize int, kind window.Kind) error {
	coefficients, err := window.Create(frameSize, kind)
	if err != nil {
		return err
	}

	transform, err := spectral.NewTransform(frameSize)
	if err != nil {
		return err
	}

	if p.transform != nil {
		p.transform.Release()
	}
	p.transform = transform

	p.frameSize = frameSize
	p.windowKind = kind
	p.windowCoefficients = coefficients
	p.frame = make([]float64, frameSize)
	p.windowed = make([]float64, frameSize)
	p.fftReal = make([]float64, frameSize)
	p.fftImaginary = make([]float64, frameSize)
	p.magnitude = make([]float64, frameSize/2)

	// Previous-frame onset state no longer matches the new dimensions
	p.onsets.Reset()

	if !common.IsPowerOfTwo(frameSize) {
		logging.Debug("frame size is not a power of two; FFT falls back to the slower mixed-radix path", logging.Fields{
			"frame_size": frameSize,
		})
	}

	return nil
}

// ProcessFrame analyzes one audio frame: it snapshots the frame, applies
// the window, executes the transform, refreshes the magnitude spectrum and,
// when requested, feeds it to the beat detector. A frame whose length
// differs from the configured size reconfigures the pipeline first.
func (p *Pipeline) ProcessFrame(frame []float64, runBeatDetection bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.process(frame, runBeatDetection)
}

// ProcessFrameAsync queues the frame for the pipeline's worker goroutine
// and returns a future for the processing error. Frames are analyzed in
// submission order with at most one transform in flight; an in-flight frame
// always completes, there is no cancellation.
func (p *Pipeline) ProcessFrameAsync(frame []float64, runBeatDetection bool) <-chan error {
	result := make(chan error, 1)

	// The caller keeps ownership of its slice; snapshot before queueing.
	snapshot := make([]float64, len(frame))
	copy(snapshot, frame)

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.closed {
		result <- fmt.Errorf("%w: pipeline is closed", common.ErrNotConfigured)
		close(result)
		return result
	}

	p.jobs <- frameJob{frame: snapshot, runBeatDetection: runBeatDetection, result: result}
	return result
}

// Close stops the worker after draining queued frames and releases the
// transform plan. Further processing fails; queries over the last analyzed
// frame keep working. Safe to call more than once.
func (p *Pipeline) Close() error {
	p.sendMu.Lock()
	if p.closed {
		p.sendMu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.sendMu.Unlock()

	<-p.workerDone

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transform != nil {
		p.transform.Release()
	}
	return nil
}

func (p *Pipeline) worker() {
	defer close(p.workerDone)
	for job := range p.jobs {
		p.mu.Lock()
		err := p.process(job.frame, job.runBeatDetection)
		p.mu.Unlock()

		job.result <- err
		close(job.result)
	}
}

// process runs the windowing -> transform -> magnitude sequence as one
// unit of work. Callers hold p.mu.
func (p *Pipeline) process(frame []float64, runBeatDetection bool) error {
	if p.transform == nil || !p.transform.Configured() {
		return fmt.Errorf("%w: pipeline is closed", common.ErrNotConfigured)
	}
	if len(frame) == 0 {
		return fmt.Errorf("%w: audio frame is empty", common.ErrEmptyInput)
	}

	if len(frame) != p.frameSize {
		if err := p.reconfigure(len(frame), p.windowKind); err != nil {
			return err
		}
	}

	copy(p.frame, frame)

	if err := window.ApplyTo(p.windowed, p.frame, p.windowCoefficients); err != nil {
		return err
	}

	fftReal, fftImaginary, err := p.transform.Execute(p.windowed)
	if err != nil {
		return err
	}
	copy(p.fftReal, fftReal)
	copy(p.fftImaginary, fftImaginary)

	if err := spectral.MagnitudeSpectrum(p.magnitude, p.fftReal, p.fftImaginary); err != nil {
		return err
	}

	if runBeatDetection {
		return p.beats.Update(p.magnitude)
	}

	return nil
}

// FrameSize returns the configured frame length in samples
func (p *Pipeline) FrameSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameSize
}

// WindowKind returns the configured window function
func (p *Pipeline) WindowKind() window.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.windowKind
}

// MagnitudeSpectrum returns a copy of the current magnitude spectrum (the
// non-redundant half of the FFT output)
func (p *Pipeline) MagnitudeSpectrum() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySlice(p.magnitude)
}

// FFTReal returns a copy of the real part of the current spectrum
func (p *Pipeline) FFTReal() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySlice(p.fftReal)
}

// FFTImaginary returns a copy of the imaginary part of the current spectrum
func (p *Pipeline) FFTImaginary() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySlice(p.fftImaginary)
}

// Time-domain queries over the current frame

func (p *Pipeline) RootMeanSquare() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return temporal.RootMeanSquare(p.frame)
}

func (p *Pipeline) PeakEnergy() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return temporal.PeakEnergy(p.frame)
}

func (p *Pipeline) ZeroCrossingRate() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return temporal.ZeroCrossingRate(p.frame)
}

// Frequency-domain queries over the current magnitude spectrum

func (p *Pipeline) SpectralCentroid() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return spectral.Centroid(p.magnitude)
}

func (p *Pipeline) SpectralFlatness() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return spectral.Flatness(p.magnitude)
}

func (p *Pipeline) SpectralCrest() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return spectral.Crest(p.magnitude)
}

func (p *Pipeline) SpectralRolloff() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return spectral.Rolloff(p.magnitude, p.rolloffThreshold)
}

func (p *Pipeline) SpectralKurtosis() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return spectral.Kurtosis(p.magnitude)
}

// Onset queries; each consumes the current frame/spectrum and updates the
// onset detector's previous-frame state

func (p *Pipeline) EnergyDifference() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onsets.EnergyDifference(p.frame)
}

func (p *Pipeline) SpectralDifference() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onsets.SpectralDifference(p.magnitude)
}

func (p *Pipeline) SpectralDifferenceHWR() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onsets.SpectralDifferenceHWR(p.magnitude)
}

func (p *Pipeline) ComplexSpectralDifference() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onsets.ComplexSpectralDifference(p.fftReal, p.fftImaginary)
}

func (p *Pipeline) HighFrequencyContent() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onsets.HighFrequencyContent(p.magnitude)
}

// Beat queries, delegated to the owned detector

func (p *Pipeline) IsBeat(subband int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.IsBeat(subband)
}

func (p *Pipeline) IsKick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.IsKick()
}

func (p *Pipeline) IsSnare() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.IsSnare()
}

func (p *Pipeline) IsHiHat() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.IsHiHat()
}

func (p *Pipeline) IsBeatRange(low, high, threshold int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.IsBeatRange(low, high, threshold)
}

func (p *Pipeline) GetBand(subband int) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.GetBand(subband)
}

// ResizeSubbands changes the beat detector's sub-band count
func (p *Pipeline) ResizeSubbands(subbandCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.Resize(subbandCount)
}

// ResizeHistory changes the beat detector's history depth
func (p *Pipeline) ResizeHistory(historyDepth int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.beats.ResizeHistory(historyDepth)
}

func copySlice(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}
