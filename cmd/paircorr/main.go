// Command paircorr computes two-point correlation functions of point
// catalogs and merges saved results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TrevorS/paircorr/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "paircorr",
	Short:         "Two-point correlation functions of point catalogs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default ./paircorr.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.AddCommand(runCmd, mergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paircorr:", err)
		os.Exit(1)
	}
}

// newLogger builds the command logger, preferring the --log-level flag
// over the configured level.
func newLogger(configured string) (*zap.Logger, error) {
	level := configured
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(level)
}
