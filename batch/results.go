package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/scoring"
)

// ResultColumns returns the result CSV header.
func ResultColumns() []string {
	cols := []string{
		"id", "audio_path", "transcript",
		"content_01", "fluency_01", "pronunciation_01",
		"overall_01", "overall_std", "band_estimate",
	}
	cols = append(cols, scoring.FeatureColumnNames...)
	return append(cols, "fluency_std", "pronunciation_std", "error")
}

// ResultRow renders one result in ResultColumns order. Missing values are
// blank.
func ResultRow(res scoring.Result) []string {
	f := calibration.FormatCell
	row := []string{
		res.Request.ID,
		res.Request.AudioPath,
		res.Request.SpokenTranscript(),
		f(res.SubScores.Content.Float()),
		f(res.SubScores.Fluency.Float()),
		f(res.SubScores.Pronunciation.Float()),
		f(res.Fused.Overall01),
		f(res.Fused.OverallStd),
		f(res.Fused.Band.Float()),
	}
	for _, c := range res.Features.Columns() {
		row = append(row, f(c.Value))
	}
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	return append(row,
		f(res.Uncertainty.FluencyStd),
		f(res.Uncertainty.PronunciationStd),
		errText,
	)
}

// WriteResults writes the header and one row per result.
func WriteResults(w io.Writer, results []scoring.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultColumns()); err != nil {
		return err
	}
	for _, res := range results {
		if err := cw.Write(ResultRow(res)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the results CSV, creating parent directories.
func WriteResultsFile(path string, results []scoring.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteResults(f, results); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
