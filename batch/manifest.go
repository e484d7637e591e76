package batch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/scoring"
)

// ReadManifest reads a CSV with an audio_path column and optional id,
// transcript and text columns. A positive limit keeps only the first rows.
func ReadManifest(path string, limit int) ([]scoring.Request, error) {
	t, err := calibration.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return manifestRequests(t, limit)
}

func manifestRequests(t *calibration.Table, limit int) ([]scoring.Request, error) {
	audioIdx := t.Index("audio_path")
	if audioIdx < 0 {
		return nil, fmt.Errorf("manifest: %w: audio_path", calibration.ErrMissingColumn)
	}
	idIdx, txIdx, textIdx := t.Index("id"), t.Index("transcript"), t.Index("text")

	rows := t.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	reqs := make([]scoring.Request, len(rows))
	for i, row := range rows {
		req := scoring.Request{
			AudioPath:  strings.TrimSpace(row[audioIdx]),
			Transcript: cell(row, txIdx),
			Text:       cell(row, textIdx),
		}
		req.ID = cell(row, idIdx)
		if req.ID == "" {
			req.ID = req.AudioPath
		}
		if req.ID == "" {
			req.ID = "row-" + strconv.Itoa(i+1)
		}
		reqs[i] = req
	}
	return reqs, nil
}

// cell returns a trimmed text cell; pandas-style "nan" reads as empty.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	if f, err := strconv.ParseFloat(v, 64); err == nil && math.IsNaN(f) {
		return ""
	}
	return v
}
