package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/retronian/ndcat/internal/dumpmanager"
)

func newSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Reconcile the catalog against Redump and No-Intro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			dataDir, settings, err := loadSettings()
			if err != nil {
				return err
			}

			ctx := context.Background()
			mgr, err := dumpmanager.Open(ctx, dataDir, settings, log)
			if err != nil {
				return err
			}
			defer mgr.Close()

			return mgr.Sync(ctx, time.Now().UnixMilli())
		},
	}
}
