package soundwave

import (
	"fmt"
	"sync"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
	"github.com/RyanBlaney/sonido-pulse/logging"
)

// SoundWave is an in-memory PCM source: interleaved float samples plus the
// format metadata and a playback cursor the analysis layer uses to pick the
// "current" frame. Reads and cursor moves are guarded by a mutex so a
// decoder can keep appending while an analyzer reads.
type SoundWave struct {
	mu sync.RWMutex

	pcm         []float64
	numChannels int
	sampleRate  int

	playedFrames int
}

// New wraps interleaved PCM data. The sample count must be a whole number
// of frames for the given channel count.
func New(pcm []float64, numChannels, sampleRate int) (*SoundWave, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("%w: channel count must be positive, got %d", common.ErrInvalidArgument, numChannels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", common.ErrInvalidArgument, sampleRate)
	}
	if len(pcm)%numChannels != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames",
			common.ErrInvalidArgument, len(pcm), numChannels)
	}

	return &SoundWave{
		pcm:         pcm,
		numChannels: numChannels,
		sampleRate:  sampleRate,
	}, nil
}

// NumChannels returns the interleaved channel count
func (w *SoundWave) NumChannels() int {
	return w.numChannels
}

// SampleRate returns the sample rate in Hz
func (w *SoundWave) SampleRate() int {
	return w.sampleRate
}

// NumFrames returns the total number of frames available
func (w *SoundWave) NumFrames() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.pcm) / w.numChannels
}

// Duration returns the total duration in seconds
func (w *SoundWave) Duration() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return float64(len(w.pcm)/w.numChannels) / float64(w.sampleRate)
}

// PlayedFrames returns the playback cursor position in frames
func (w *SoundWave) PlayedFrames() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.playedFrames
}

// Advance moves the playback cursor forward by n frames, clamped to the
// available range
func (w *SoundWave) Advance(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.playedFrames += n
	if total := len(w.pcm) / w.numChannels; w.playedFrames > total {
		w.playedFrames = total
	}
	if w.playedFrames < 0 {
		w.playedFrames = 0
	}
}

// SetPlaybackPosition moves the playback cursor to an absolute frame
func (w *SoundWave) SetPlaybackPosition(frame int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if frame < 0 || frame > len(w.pcm)/w.numChannels {
		return fmt.Errorf("%w: frame %d, expected in [0, %d]",
			common.ErrInvalidArgument, frame, len(w.pcm)/w.numChannels)
	}

	w.playedFrames = frame
	return nil
}

// Append adds more interleaved samples, for streaming decoders that fill
// the wave incrementally. The sample count must be a whole number of frames.
func (w *SoundWave) Append(pcm []float64) error {
	if len(pcm)%w.numChannels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames",
			common.ErrInvalidArgument, len(pcm), w.numChannels)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pcm = append(w.pcm, pcm...)
	return nil
}

// FrameRange returns a copy of the interleaved samples for frames
// [start, end). Bounds are validated before any data is touched: start must
// be non-negative, end greater than start, and end within the available
// frames; a rejected range leaves nothing allocated and returns nil.
func (w *SoundWave) FrameRange(start, end int) ([]float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frameRangeLocked(start, end)
}

func (w *SoundWave) frameRangeLocked(start, end int) ([]float64, error) {
	if start < 0 || start >= end {
		err := fmt.Errorf("%w: start frame is %d, expected >= 0 and < %d", common.ErrInvalidArgument, start, end)
		logging.Error(err, "unable to get the frame data")
		return nil, err
	}

	totalFrames := len(w.pcm) / w.numChannels
	if end > totalFrames {
		err := fmt.Errorf("%w: end frame %d must not exceed the total number of frames %d",
			common.ErrInvalidArgument, end, totalFrames)
		logging.Error(err, "unable to get the frame data")
		return nil, err
	}

	out := make([]float64, (end-start)*w.numChannels)
	copy(out, w.pcm[start*w.numChannels:end*w.numChannels])
	return out, nil
}

// FrameRangeByTime returns the interleaved samples between two timestamps
// in seconds, converted to frames at the wave's sample rate
func (w *SoundWave) FrameRangeByTime(startTime, endTime float64) ([]float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if startTime < 0 || startTime >= endTime {
		err := fmt.Errorf("%w: start time is %v, expected >= 0 and < %v", common.ErrInvalidArgument, startTime, endTime)
		logging.Error(err, "unable to get the frame data")
		return nil, err
	}

	duration := float64(len(w.pcm)/w.numChannels) / float64(w.sampleRate)
	if endTime > duration {
		err := fmt.Errorf("%w: end time %v must not exceed the sound wave duration %v",
			common.ErrInvalidArgument, endTime, duration)
		logging.Error(err, "unable to get the frame data")
		return nil, err
	}

	start := int(startTime * float64(w.sampleRate))
	end := int(endTime * float64(w.sampleRate))

	return w.frameRangeLocked(start, end)
}

// NextFrame returns frameSize frames of interleaved samples starting at the
// playback cursor, without moving the cursor
func (w *SoundWave) NextFrame(frameSize int) ([]float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frameRangeLocked(w.playedFrames, w.playedFrames+frameSize)
}

// MonoFrameRange returns frames [start, end) downmixed to mono by averaging
// channels, ready for the analysis stage
func (w *SoundWave) MonoFrameRange(start, end int) ([]float64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	interleaved, err := w.frameRangeLocked(start, end)
	if err != nil {
		return nil, err
	}

	if w.numChannels == 1 {
		return interleaved, nil
	}

	frames := len(interleaved) / w.numChannels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < w.numChannels; c++ {
			sum += interleaved[i*w.numChannels+c]
		}
		mono[i] = sum / float64(w.numChannels)
	}

	return mono, nil
}

// NextMonoFrame returns frameSize mono frames at the playback cursor
func (w *SoundWave) NextMonoFrame(frameSize int) ([]float64, error) {
	start := w.PlayedFrames()
	return w.MonoFrameRange(start, start+frameSize)
}
