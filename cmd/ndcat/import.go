package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retronian/ndcat/internal/dumpmanager"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [path]",
		Short: "Verify dumps under path against the catalog",
		Args:  cobra.ExactArgs(1),
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

			results, err := mgr.VerifyTree(ctx, args[0])
			if err != nil {
				return err
			}

			counts := map[string]int{}
			for path, status := range results {
				counts[status.String()]++
				fmt.Printf("%-10s %s\n", status, path)
			}
			fmt.Printf("verified=%d unverified=%d broken=%d\n", counts["verified"], counts["unverified"], counts["broken"])
			return nil
		},
	}
}
