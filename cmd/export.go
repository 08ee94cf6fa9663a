package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"travel-agency/config"
	"travel-agency/internal/reporting"
)

func newExportCommand(cfg *config.Config, bookings reporting.BookingLister) *cobra.Command {
	var (
		dsn   string
		since time.Duration
	)

	command := &cobra.Command{
		Use:          "export-bookings",
		Short:        "Copies bookings into the Postgres reporting database",
		SilenceUsage: true,
		RunE: func(command *cobra.Command, args []string) error {
			if dsn == "" {
				return errors.New("no reporting database configured, set REPORTING_DSN or --dsn")
			}

			ctx := command.Context()
			db, err := reporting.Connect(ctx, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			exporter := reporting.NewExporter(db, bookings)
			if err := exporter.EnsureSchema(ctx); err != nil {
				return err
			}

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			counts, err := exporter.Export(ctx, from)
			if err != nil {
				return err
			}

			total := 0
			for _, n := range counts {
				total += n
			}
			fmt.Fprintf(command.OutOrStdout(), "exported %d bookings\n", total)
			return nil
		},
	}

	command.Flags().StringVar(&dsn, "dsn", cfg.ReportingDSN, "postgres connection string")
	command.Flags().DurationVar(&since, "since", 0, "only export bookings updated within this window (0 exports everything)")
	return command
}
