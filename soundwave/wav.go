package soundwave

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-pulse/algorithms/common"
)

// LoadWAV decodes a WAV file into a SoundWave, rescaling integer samples to
// [-1, 1] by the source bit depth
func LoadWAV(path string) (*SoundWave, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", common.ErrInvalidArgument, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return FromIntBuffer(buf)
}

// FromIntBuffer converts a decoded go-audio PCM buffer into a SoundWave
func FromIntBuffer(buf *audio.IntBuffer) (*SoundWave, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: PCM buffer has no decodable data", common.ErrInvalidArgument)
	}

	scale := 1.0
	if buf.SourceBitDepth > 0 && buf.SourceBitDepth < 64 {
		scale = float64(int64(1) << (buf.SourceBitDepth - 1))
	}

	pcm := make([]float64, len(buf.Data))
	for i, sample := range buf.Data {
		pcm[i] = float64(sample) / scale
	}

	return New(pcm, buf.Format.NumChannels, buf.Format.SampleRate)
}
