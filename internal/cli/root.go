// Package cli implements the ssbctf command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbl8/ssbctf/config"
	"github.com/sbl8/ssbctf/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	logJSON    bool
	outDir     string

	cfg    config.Config
	logger *zap.Logger
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "ssbctf",
		Short: "Single-sideband ptychography transfer functions",
		Long: `ssbctf simulates an aberrated electron probe and computes its
single-sideband (SSB) ptychographic contrast transfer function.

Parameters come from a YAML file (--config); without one a 300 kV,
20 mrad probe on a 64x64 grid is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "simulation config (YAML)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "emit JSON logs")
	cmd.PersistentFlags().StringVarP(&a.outDir, "out", "o", "", "output directory (overrides config)")

	cmd.AddCommand(
		chiCmd(a),
		probeCmd(a),
		ctfCmd(a),
		sweepCmd(a),
		versionCmd(),
	)
	return cmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		if err := cfg.ApplyEnvOverrides(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.outDir != "" {
		cfg.Output.Dir = a.outDir
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if a.logJSON {
		cfg.Logging.JSON = true
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("config loaded", zap.String("path", a.configPath), zap.Int("n", cfg.Grid.N))
	return nil
}
