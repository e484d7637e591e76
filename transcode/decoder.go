package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-band/logging"
)

// ErrUnsupportedFormat is returned when no decode path can read the file.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AudioData represents a decoded mono signal. It is not modified after
// Load returns.
type AudioData struct {
	PCM        []float64     `json:"-"` // Raw PCM data
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Decoder    string        `json:"decoder"` // "ffmpeg" or "wav"
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FFmpegPath       string        `json:"ffmpeg_path"`   // Path to ffmpeg binary
	PreferFFmpeg     bool          `json:"prefer_ffmpeg"` // use ffmpeg for WAV too
	Timeout          time.Duration `json:"timeout"`       // Timeout for ffmpeg operations
	MaxDuration      time.Duration `json:"max_duration"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
		FFmpegPath:       "ffmpeg", // Assume in PATH
		PreferFFmpeg:     false,
		Timeout:          30 * time.Second,
		MaxDuration:      0, // No limit
	}
}

// Decoder loads audio files as mono PCM at the target sample rate.
// WAV files are read natively; everything else goes through ffmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Load decodes the file at path.
func (d *Decoder) Load(ctx context.Context, path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "Load",
		"filename":  path,
	})

	isWav := strings.EqualFold(filepath.Ext(path), ".wav")
	if isWav && !d.config.PreferFFmpeg {
		audio, err := d.loadWav(path)
		if err == nil {
			return audio, nil
		}
		logger.Debug("Native WAV decode failed, trying ffmpeg", logging.Fields{"error": err.Error()})
		if d.checkFFmpegAvailability() != nil {
			return nil, err
		}
	}

	if err := d.checkFFmpegAvailability(); err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrUnsupportedFormat, filepath.Ext(path), err)
	}
	return d.decodeFileWithFFmpeg(ctx, path, logger)
}

// decodeFileWithFFmpeg pipes the file through ffmpeg as mono f64le
func (d *Decoder) decodeFileWithFFmpeg(ctx context.Context, filename string, logger logging.Logger) (*AudioData, error) {
	args := append([]string{"-i", filename}, d.buildFFmpegArgs()...)
	args = append(args, "pipe:1")

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Debug("Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	return newAudioData(samples, d.config.TargetSampleRate, filename, "ffmpeg"), nil
}

// buildFFmpegArgs builds the ffmpeg output arguments
func (d *Decoder) buildFFmpegArgs() []string {
	args := []string{
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error")

	return args
}

func newAudioData(samples []float64, sampleRate int, source, decoder string) *AudioData {
	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   time.Duration(len(samples)) * time.Second / time.Duration(sampleRate),
		Source:     source,
		Decoder:    decoder,
	}
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	if d.config.PreferFFmpeg {
		if err := d.checkFFmpegAvailability(); err != nil {
			return fmt.Errorf("ffmpeg not available: %w", err)
		}
	}
	return nil
}

// checkFFmpegAvailability checks if ffmpeg can be found
func (d *Decoder) checkFFmpegAvailability() error {
	if d.config.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path not configured")
	}
	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	return nil
}
