package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writePCM16 writes a minimal 16-bit PCM WAV file.
func writePCM16(t *testing.T, path string, sampleRate, channels int, samples []int16) {
	t.Helper()
	var buf bytes.Buffer
	dataSize := uint32(len(samples) * 2)
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	buf.WriteString("RIFF")
	write(uint32(36) + dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(channels))
	write(uint32(sampleRate))
	write(uint32(sampleRate * channels * 2))
	write(uint16(channels * 2))
	write(uint16(16))
	buf.WriteString("data")
	write(dataSize)
	if len(samples) > 0 {
		write(samples)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func noFFmpegConfig() *DecoderConfig {
	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = "/nonexistent/ffmpeg"
	return cfg
}

func TestLoadWavMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := []int16{0, 16384, -16384, 32767}
	writePCM16(t, path, 16000, 1, samples)

	audio, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if audio.SampleRate != 16000 || audio.Decoder != "wav" {
		t.Fatalf("unexpected audio meta: %+v", audio)
	}
	want := []float64{0, 0.5, -0.5, 32767.0 / 32768}
	if len(audio.PCM) != len(want) {
		t.Fatalf("got %d samples, want %d", len(audio.PCM), len(want))
	}
	for i := range want {
		if math.Abs(audio.PCM[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d = %v, want %v", i, audio.PCM[i], want[i])
		}
	}
}

func TestLoadWavKeepsTrailingSamples(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		frames   int
	}{
		{"four mono", 1, 4},
		{"seven mono", 1, 7},
		{"odd mono", 1, 1005},
		{"second plus three", 1, 16003},
		{"odd stereo", 2, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "clip.wav")
			samples := make([]int16, tt.frames*tt.channels)
			for i := range samples {
				samples[i] = int16(i%100 + 1)
			}
			writePCM16(t, path, 16000, tt.channels, samples)

			audio, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(audio.PCM) != tt.frames {
				t.Fatalf("got %d samples, want %d", len(audio.PCM), tt.frames)
			}
			last := float64(samples[len(samples)-1]) / 32768
			if tt.channels == 1 && audio.PCM[tt.frames-1] != last {
				t.Errorf("last sample = %v, want %v", audio.PCM[tt.frames-1], last)
			}
		})
	}
}

func TestLoadWavWithoutSamplesFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	writePCM16(t, path, 16000, 1, nil)

	if _, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path); err == nil {
		t.Fatal("expected an error for a wav with an empty data chunk")
	}
}

func TestLoadWavDownmixAndResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// 8 kHz stereo, left = right = constant
	samples := make([]int16, 2*800)
	for i := range samples {
		samples[i] = 8192
	}
	writePCM16(t, path, 8000, 2, samples)

	audio, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(audio.PCM) != 1600 {
		t.Fatalf("got %d samples, want 1600 after resampling to 16 kHz", len(audio.PCM))
	}
	for i, v := range audio.PCM {
		if math.Abs(v-0.25) > 1e-12 {
			t.Fatalf("sample %d = %v, want 0.25", i, v)
		}
	}
}

func TestLoadUnsupportedWithoutFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.mp3")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadCorruptWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("RIFFxxxxJUNK"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDecoder(noFFmpegConfig()).Load(context.Background(), path); err == nil {
		t.Fatal("expected decode error for corrupt wav")
	}
}

func TestBytesToFloat64TrimsPartialSample(t *testing.T) {
	buf := make([]byte, 8+3)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(0.75))
	got := bytesToFloat64(buf)
	if len(got) != 1 || got[0] != 0.75 {
		t.Fatalf("got %v, want [0.75]", got)
	}
}
