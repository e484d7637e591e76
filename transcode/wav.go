package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mjibson/go-dsp/wav"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// wavChunk is the number of interleaved samples read per call.
const wavChunk = 1 << 14

// loadWav decodes a PCM (8/16-bit) or IEEE float WAV file, downmixes it to
// mono and resamples it to the target rate.
func (d *Decoder) loadWav(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	w, err := wav.New(f)
	if err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if w.NumChannels == 0 || w.SampleRate == 0 {
		return nil, fmt.Errorf("wav header has no channels or sample rate")
	}

	interleaved := make([]float64, 0, w.Samples)
	for remaining := w.Samples; remaining > 0; {
		n := min(remaining, wavChunk)
		raw, err := w.ReadSamples(n)
		if err != nil {
			return nil, fmt.Errorf("read wav samples: %w", err)
		}
		interleaved = appendNormalized(interleaved, raw)
		remaining -= n
	}

	// The header's sample count is rounded down to a multiple of 8; read
	// whole frames until the data chunk is exhausted.
	channels := int(w.NumChannels)
	for {
		raw, err := w.ReadSamples(channels)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read wav samples: %w", err)
		}
		interleaved = appendNormalized(interleaved, raw)
	}
	if len(interleaved) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", path)
	}

	mono := common.Downmix(interleaved, int(w.NumChannels))
	mono = common.ResampleLinear(mono, int(w.SampleRate), d.config.TargetSampleRate)
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(d.config.TargetSampleRate))
		if limit < len(mono) {
			mono = mono[:limit]
		}
	}

	return newAudioData(mono, d.config.TargetSampleRate, path, "wav"), nil
}

// appendNormalized converts go-dsp sample slices to [-1, 1] floats.
func appendNormalized(dst []float64, raw any) []float64 {
	switch s := raw.(type) {
	case []uint8:
		for _, v := range s {
			dst = append(dst, (float64(v)-128)/128)
		}
	case []int16:
		for _, v := range s {
			dst = append(dst, float64(v)/32768)
		}
	case []float32:
		for _, v := range s {
			dst = append(dst, float64(v))
		}
	}
	return dst
}
