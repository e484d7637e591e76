package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/scoring"
)

type scoreOutput struct {
	Inputs           scoreInputs                 `json:"inputs"`
	Subscores        scoring.SubScores           `json:"subscores_01"`
	SpeakingFeatures map[string]*float64         `json:"speaking_features"`
	Uncertainty      scoring.UncertaintyEstimate `json:"uncertainty"`
	Overall01        float64                     `json:"overall_01"`
	OverallStd       float64                     `json:"overall_std"`
	BandEstimate     scoring.Optional            `json:"band_estimate"`
	CalibrationMode  calibration.Mode            `json:"calibration_mode"`
}

type scoreInputs struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

func newScoreCmd(a *app) *cobra.Command {
	var req scoring.Request
	var out string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single sample",
		Long: "Score one writing or speaking sample. --text is scored for content; " +
			"--audio is analyzed for fluency and pronunciation using --transcript " +
			"(or --text) for disfluency counts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ContentText() == "" && req.AudioPath == "" {
				return errors.New("at least one of --text or --audio is required")
			}
			if err := a.load(cmd, nil); err != nil {
				return err
			}

			bands, err := calibration.Build(a.cfg.Calibration.Spec, nil)
			if err != nil {
				return err
			}
			scorer, err := newScorer(a.cfg, bands)
			if err != nil {
				return err
			}

			req.ID = "cli"
			res, err := scorer.Score(cmd.Context(), req)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(newScoreOutput(res, bands.Mode()), "", "  ")
			if err != nil {
				return err
			}
			if out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Text, "text", "", "essay text or spoken transcript to score for content")
	cmd.Flags().StringVar(&req.AudioPath, "audio", "", "speech recording (wav natively, other formats via ffmpeg)")
	cmd.Flags().StringVar(&req.Transcript, "transcript", "", "transcript of the recording when --text holds the prompt")
	cmd.Flags().StringVar(&out, "out", "", "also write the JSON result to this file")
	return cmd
}

func newScoreOutput(res scoring.Result, mode calibration.Mode) scoreOutput {
	text := res.Request.ContentText()
	if r := []rune(text); len(r) > 60 {
		text = string(r[:60]) + "..."
	}

	features := make(map[string]*float64)
	if res.Features.Speech != nil || res.Request.AudioPath != "" {
		for _, c := range res.Features.Columns() {
			if math.IsNaN(c.Value) {
				features[c.Name] = nil
				continue
			}
			v := c.Value
			features[c.Name] = &v
		}
	}

	return scoreOutput{
		Inputs:           scoreInputs{Text: text, Audio: res.Request.AudioPath},
		Subscores:        res.SubScores,
		SpeakingFeatures: features,
		Uncertainty:      res.Uncertainty,
		Overall01:        res.Fused.Overall01,
		OverallStd:       res.Fused.OverallStd,
		BandEstimate:     res.Fused.Band,
		CalibrationMode:  mode,
	}
}
