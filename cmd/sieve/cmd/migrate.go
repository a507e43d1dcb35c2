package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/sieve/internal/core/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	var showStatus bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			database, err := db.Open(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if showStatus {
				statuses, err := db.MigrateStatus(ctx, database)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MIGRATION\tSTATUS\tAPPLIED AT")
				for _, s := range statuses {
					state, at := "pending", "-"
					if s.Applied {
						state = "applied"
						if s.AppliedAt != nil {
							at = s.AppliedAt.Format("2006-01-02 15:04:05Z07:00")
						}
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, state, at)
				}
				return tw.Flush()
			}

			applied, err := db.MigrateUp(ctx, database)
			if err != nil {
				return err
			}
			for _, id := range applied {
				a.logger.Info("migration applied", "id", id)
				fmt.Fprintf(out, "applied %s\n", id)
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStatus, "status", false, "list migrations and whether each is applied")
	return cmd
}
