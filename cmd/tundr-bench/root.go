package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/tundr-bench/internal/config"
	"github.com/copyleftdev/tundr-bench/internal/logging"
	"github.com/copyleftdev/tundr-bench/internal/suite"
)

var (
	suiteFile string
	logLevel  string

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tundr-bench",
	Short: "Benchmark objective functions for black-box optimizers",
	Long: `tundr-bench serves a suite of benchmark problems with known optima.
Problems are built from base functions wrapped in rotations, affine maps
and shifts, and can be listed, evaluated locally or served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("suite") {
			loaded.Suite.File = suiteFile
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevel
		}

		l, err := logging.NewLogger(&logging.Config{
			Level:  loaded.Logging.Level,
			Format: loaded.Logging.Format,
			Output: loaded.Logging.Output,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&suiteFile, "suite", "", "Suite definition file (overrides SUITE_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// loadSuite builds the configured suite, or the built-in one when no file
// is set.
func loadSuite() (*suite.Suite, error) {
	def := suite.DefaultDefinition()
	if cfg.Suite.File != "" {
		var err error
		if def, err = suite.LoadFile(cfg.Suite.File); err != nil {
			return nil, err
		}
	}

	zl := logging.NewZapLogger(logger)
	return suite.New(def, suite.Options{
		PoolSize:     cfg.Suite.PoolSize,
		MaxDimension: cfg.Suite.MaxDimension,
	}, zl)
}

func closeSuite(s *suite.Suite) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing suite: %v\n", err)
	}
}
