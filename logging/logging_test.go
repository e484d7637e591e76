package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{"WARN", WarnLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriterLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf).WithFields(Fields{"sample": "a.wav", "component": "scorer"})
	logger.Warn("decode failed", Fields{"attempt": 1})

	got := strings.TrimSpace(buf.String())
	want := "[WARN] decode failed attempt=1 component=scorer sample=a.wav"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)
	logger.SetLevel(ErrorLevel)
	logger.Info("hidden")
	logger.Error(errors.New("boom"), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message leaked through error level: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown: boom") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestWithContextPicksUpFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithFields(context.Background(), Fields{"run_id": "r1"})
	NewWriterLogger(&buf).WithContext(ctx).Info("started")

	if !strings.Contains(buf.String(), "run_id=r1") {
		t.Fatalf("context fields not applied: %q", buf.String())
	}
}

func TestLogrusLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithWriter(&buf, true)
	logger.WithFields(Fields{"sample": "x"}).Info("scored")

	out := buf.String()
	if !strings.Contains(out, `"sample":"x"`) || !strings.Contains(out, `"msg":"scored"`) {
		t.Fatalf("unexpected json output: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New("xml", InfoLevel); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
