package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retronian/ndcat/internal/config"
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ndcat",
		Short:         "Catalog and verify game dumps against Redump and No-Intro",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newImportCmd())
	root.AddCommand(newSortCmd())
	return root
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func loadSettings() (string, config.Settings, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return "", config.Settings{}, err
	}
	settings, err := config.Load(dataDir)
	if err != nil {
		return "", config.Settings{}, err
	}
	return dataDir, settings, nil
}
