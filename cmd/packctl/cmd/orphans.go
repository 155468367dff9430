package cmd

import (
	"fmt"
	"time"

	"github.com/packvault/packvault/internal/app"
	"github.com/packvault/packvault/internal/config"
	"github.com/packvault/packvault/internal/logger"
	"github.com/spf13/cobra"
)

func OrphansCmd() *cobra.Command {
	var dryRun bool
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Delete stored blobs that no file row references",
		Long: `Lists every blob under resources/ and deletes those without a file row.
Blobs younger than the grace period are skipped so uploads still in flight
are not touched. Defaults to ORPHAN_GRACE_PERIOD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

			if !cmd.Flags().Changed("grace") {
				grace = cfg.OrphanGracePeriod
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			orphans, err := a.FileService.SweepOrphans(cmd.Context(), grace, dryRun)
			for _, key := range orphans {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			if err != nil {
				return err
			}

			verb := "deleted"
			if dryRun {
				verb = "found"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d orphaned blobs %s\n", len(orphans), verb)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list orphaned blobs")
	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "Skip blobs modified within this period")

	return cmd
}
