package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-band/batch"
	"github.com/RyanBlaney/sonido-band/logging"
)

func newBatchCmd(a *app) *cobra.Command {
	var manifest, out string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score every row of a manifest CSV",
		Long: "Score a manifest with columns audio_path and transcript (optionally id " +
			"and text). Every row appears in the output; rows that cannot be scored " +
			"carry their error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest == "" || out == "" {
				return errors.New("--manifest and --out are required")
			}
			if err := a.load(cmd, map[string]string{
				"batch.limit":   "limit",
				"batch.workers": "workers",
			}); err != nil {
				return err
			}

			reqs, err := batch.ReadManifest(manifest, a.cfg.Batch.Limit)
			if err != nil {
				return err
			}
			bands, err := newBandBuilder(a.cfg.Calibration.Spec)
			if err != nil {
				return err
			}
			scorer, err := newScorer(a.cfg, nil)
			if err != nil {
				return err
			}

			report, err := batch.NewRunner(scorer, a.cfg.Batch.Workers, bands).Run(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			if err := batch.WriteResultsFile(out, report.Results); err != nil {
				return err
			}

			logging.Info(fmt.Sprintf("Wrote %s", out), logging.Fields{
				"rows":   len(report.Results),
				"failed": report.Failed,
				"run_id": report.RunID,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "manifest CSV: audio_path,transcript")
	cmd.Flags().StringVar(&out, "out", "", "result CSV")
	cmd.Flags().Int("limit", 0, "score only the first N rows (0 = all)")
	cmd.Flags().Int("workers", 0, "parallel rows (default from config)")
	return cmd
}
