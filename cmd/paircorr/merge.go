package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TrevorS/paircorr"
)

var (
	mergeOutput    string
	mergeRandoms   []string
	mergePrecision int
)

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] FILE...",
	Short: "Sum correlations computed on separate shards",
	Long: `Adds the raw sums of saved correlations of the same kind and binning and
writes the result, finalized with the variances pooled from all inputs.
Inputs built with different coordinate systems or metrics are merged with
a warning.`,
	Args: cobra.MinimumNArgs(1),
	RunE: mergeCorrelations,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "output file")
	mergeCmd.Flags().StringSliceVar(&mergeRandoms, "randoms", nil, "saved random results passed to the estimator, in order (RR,DR,RD for NN)")
	mergeCmd.Flags().IntVar(&mergePrecision, "precision", 0, "digits after the decimal point in text output")
	mergeCmd.MarkFlagRequired("output")
}

func mergeCorrelations(_ *cobra.Command, files []string) error {
	log, err := newLogger("")
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := paircorr.DefaultConfig()
	cfg.Logger = log

	total, err := paircorr.ReadCorrelation(files[0], cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", files[0], err)
	}
	for _, path := range files[1:] {
		c, err := paircorr.ReadCorrelation(path, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := total.Add(c); err != nil {
			var mismatch *paircorr.MismatchError
			if !errors.As(err, &mismatch) {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	var randoms []*paircorr.Correlation
	for _, path := range mergeRandoms {
		c, err := paircorr.ReadCorrelation(path, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		randoms = append(randoms, c)
	}

	if err := total.Write(mergeOutput, paircorr.WriteOptions{Precision: mergePrecision, Randoms: randoms}); err != nil {
		return err
	}
	log.Info("merged correlations", zap.Int("inputs", len(files)), zap.String("output", mergeOutput))
	return nil
}
