package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"EquiSmart/internal/config"
	"EquiSmart/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *zap.SugaredLogger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}

	root := &cobra.Command{
		Use:          "averager",
		Short:        "Position averaging calculator and portfolio screener",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New()
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", defaultCfg, "config file path")

	root.AddCommand(
		newSolveCmd(a),
		newRiskCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)
	return root
}
