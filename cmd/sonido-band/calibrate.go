package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/logging"
)

func newCalibrateCmd(a *app) *cobra.Command {
	var scores, out string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Add band_calibrated to a scores CSV and export the calibration curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scores == "" || out == "" {
				return errors.New("--scores and --out are required")
			}
			if err := a.load(cmd, map[string]string{
				"calibration.mode":          "mode",
				"calibration.low":           "low",
				"calibration.high":          "high",
				"calibration.quantile_spec": "quantile-spec",
				"calibration.labels":        "labels",
				"calibration.curve_dir":     "curve-dir",
			}); err != nil {
				return err
			}

			table, err := calibration.ReadTable(scores)
			if err != nil {
				return err
			}
			overall, err := table.Floats("overall_01")
			if err != nil {
				return fmt.Errorf("scores %s: %w", scores, err)
			}

			spec := a.cfg.Calibration.Spec
			spec.CurvePath = ""
			cal, err := calibration.Build(spec, overall)
			if err != nil {
				return err
			}
			if err := calibration.ApplyBands(table, cal); err != nil {
				return err
			}
			if err := table.WriteFile(out); err != nil {
				return err
			}

			curvePath, err := calibration.WriteCurveFile(a.cfg.Calibration.CurveDir, calibration.ExportCurve(cal))
			if err != nil {
				return err
			}

			lo, hi := cal.Bounds()
			logging.Info(fmt.Sprintf("Calibrated %s", out), logging.Fields{
				"mode":  string(cal.Mode()),
				"rows":  len(table.Rows),
				"low":   lo,
				"high":  hi,
				"curve": curvePath,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&scores, "scores", "", "input CSV with an overall_01 column")
	cmd.Flags().StringVar(&out, "out", "", "output CSV with band_calibrated added")
	cmd.Flags().String("mode", "", "linear, quantile or isotonic")
	cmd.Flags().Float64("low", 4.0, "lowest band in linear mode")
	cmd.Flags().Float64("high", 9.0, "highest band in linear mode")
	cmd.Flags().String("quantile-spec", calibration.DefaultQuantileSpec, "band:percentile cut list for quantile mode")
	cmd.Flags().String("labels", "", "CSV with overall_01 and band_true for isotonic mode")
	cmd.Flags().String("curve-dir", "", "directory for the exported curve JSON")
	return cmd
}
