package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-band/algorithms/stats"
	"github.com/RyanBlaney/sonido-band/calibration"
)

func newKappaCmd(a *app) *cobra.Command {
	var file, trueCol, predCol string

	cmd := &cobra.Command{
		Use:   "kappa",
		Short: "Quadratic weighted kappa between true and predicted bands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			if err := a.load(cmd, nil); err != nil {
				return err
			}

			table, err := calibration.ReadTable(file)
			if err != nil {
				return err
			}
			truth, err := table.Floats(trueCol)
			if err != nil {
				return err
			}
			pred, err := table.Floats(predCol)
			if err != nil {
				return err
			}

			t, p := halfSteps(truth, pred)
			if len(t) == 0 {
				return errors.New("no rows with both bands present")
			}
			lo, hi := stats.RatingBounds(t, p)
			k, err := stats.QuadraticWeightedKappa(t, p, lo, hi)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "qwk=%.4f n=%d\n", k, len(t))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV holding both band columns")
	cmd.Flags().StringVar(&trueCol, "true-col", "band_true", "column with the reference bands")
	cmd.Flags().StringVar(&predCol, "pred-col", "band_calibrated", "column with the predicted bands")
	return cmd
}

// halfSteps converts band pairs to integer half-band ratings, skipping rows
// where either side is missing.
func halfSteps(truth, pred []float64) ([]int, []int) {
	var t, p []int
	for i := range truth {
		if math.IsNaN(truth[i]) || math.IsNaN(pred[i]) {
			continue
		}
		t = append(t, int(math.Round(truth[i]*2)))
		p = append(p, int(math.Round(pred[i]*2)))
	}
	return t, p
}
