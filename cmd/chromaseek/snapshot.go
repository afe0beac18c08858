package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/chromaseek/internal/config"
	"github.com/csheth/chromaseek/internal/page"
	"github.com/csheth/chromaseek/internal/telemetry"
)

// snapshotCMD loads the corpus once without a terminal and writes the page.
func snapshotCMD(cfgPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the current corpus as an HTML page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctrl := newController(cfg, telemetry.Nop{})
			ctrl.RestoreTheme()
			ctrl.Start(ctx)
			if err := page.WriteFile(out, ctrl.Snapshot(), time.Now()); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "chromaseek.html", "output file")
	return cmd
}
