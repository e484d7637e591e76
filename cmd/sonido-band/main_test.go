package main

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHalfSteps(t *testing.T) {
	nan := math.NaN()
	truth := []float64{6.5, nan, 7, 5.5}
	pred := []float64{6, 7, nan, 5.5}

	tr, pr := halfSteps(truth, pred)
	if len(tr) != 2 || len(pr) != 2 {
		t.Fatalf("expected 2 kept rows, got %d/%d", len(tr), len(pr))
	}
	if tr[0] != 13 || pr[0] != 12 || tr[1] != 11 || pr[1] != 11 {
		t.Errorf("unexpected ratings %v %v", tr, pr)
	}
}

func TestKappaCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bands.csv")
	csv := "band_true,band_calibrated\n5,5\n6,6\n7,7\n8.5,8.5\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	out, err := run(t, "kappa", "--file", path)
	if err != nil {
		t.Fatalf("kappa: %v", err)
	}
	if !strings.Contains(out, "qwk=1.0000 n=4") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sonido-band.yaml")

	if _, err := run(t, "config", "init", "--out", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "calibration:") {
		t.Errorf("default config missing calibration section:\n%s", data)
	}

	if _, err := run(t, "config", "init", "--out", path); err == nil {
		t.Error("expected an error when the file exists")
	}
}

func TestScoreRequiresInput(t *testing.T) {
	if _, err := run(t, "score"); err == nil {
		t.Error("expected an error without --text or --audio")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func column(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q missing from %v", name, header)
	return -1
}

// writeToneWav writes 16 kHz mono PCM16 with tone bursts separated by silence.
func writeToneWav(t *testing.T, path string) {
	t.Helper()
	const rate = 16000
	var pcm []int16
	for range 3 {
		for i := range rate / 2 {
			pcm = append(pcm, int16(0.5*32767*math.Sin(2*math.Pi*180*float64(i)/rate)))
		}
		pcm = append(pcm, make([]int16, rate*6/10)...)
	}

	var buf bytes.Buffer
	put := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	put(uint32(36 + 2*len(pcm)))
	buf.WriteString("WAVEfmt ")
	put(uint32(16))
	put(uint16(1))
	put(uint16(1))
	put(uint32(rate))
	put(uint32(rate * 2))
	put(uint16(2))
	put(uint16(16))
	buf.WriteString("data")
	put(uint32(2 * len(pcm)))
	put(pcm)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCalibrateCommandModes(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	scores := filepath.Join(dir, "scores.csv")
	table := "id,overall_01,band_true\n" +
		"a,0.10,4.5\nb,0.30,5.5\nc,0.45,6\nd,0.60,6.5\ne,0.80,7.5\nf,0.95,8.5\n"
	if err := os.WriteFile(scores, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mode  string
		curve string
	}{
		{"linear", "linear_curve.json"},
		{"quantile", "quantile_map.json"},
		{"isotonic", "isotonic_curve.json"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			out := filepath.Join(dir, tt.mode+".csv")
			curves := filepath.Join(dir, "curves")
			_, err := run(t, "calibrate", "--scores", scores, "--out", out,
				"--mode", tt.mode, "--labels", scores, "--curve-dir", curves)
			if err != nil {
				t.Fatalf("calibrate: %v", err)
			}

			rows := readCSV(t, out)
			if len(rows) != 7 {
				t.Fatalf("got %d rows, want header + 6", len(rows))
			}
			col := column(t, rows[0], "band_calibrated")
			for _, row := range rows[1:] {
				if row[col] == "" {
					t.Errorf("row %s has no band", row[0])
				}
			}
			if _, err := os.Stat(filepath.Join(curves, tt.curve)); err != nil {
				t.Errorf("curve file: %v", err)
			}
		})
	}
}

func TestBatchCommandKeepsFailedRows(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	audio := filepath.Join(dir, "good.wav")
	writeToneWav(t, audio)

	manifest := filepath.Join(dir, "manifest.csv")
	body := "id,audio_path,transcript\n" +
		"good," + audio + ",um I think this is fine\n" +
		"bad," + filepath.Join(dir, "missing.wav") + ",\n"
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "results.csv")
	if _, err := run(t, "batch", "--manifest", manifest, "--out", out, "--workers", "2"); err != nil {
		t.Fatalf("batch: %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	header := rows[0]
	id, fluency, band, errCol := column(t, header, "id"), column(t, header, "fluency_01"),
		column(t, header, "band_estimate"), column(t, header, "error")

	good, bad := rows[1], rows[2]
	if good[id] != "good" || bad[id] != "bad" {
		t.Fatalf("rows out of manifest order: %v, %v", good[id], bad[id])
	}
	if good[fluency] == "" || good[band] == "" || good[errCol] != "" {
		t.Errorf("good row not fully scored: %v", good)
	}
	if !strings.Contains(bad[errCol], "no scoreable input") || bad[band] != "" {
		t.Errorf("failed row = %v, want its error kept", bad)
	}
}
