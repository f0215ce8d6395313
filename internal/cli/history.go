package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"employerexport/internal/config"
	"employerexport/internal/storage"
)

func historyCmd(getenv func(string) string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export runs from EXPORT_HISTORY_DB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, getenv)
			if err != nil {
				return err
			}
			if cfg.HistoryDB == "" {
				return fmt.Errorf("%w: %s is not set", config.ErrInvalid, config.EnvHistoryDB)
			}
			db, err := storage.New(cfg.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer db.Close()

			store := storage.NewHistoryStore(db)
			logs, err := store.ListRunLogs(limit)
			if err != nil {
				return err
			}
			lastSuccess, err := store.LastSuccess()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tSTATUS\tREGIONS\tINDUSTRIES\tDATEPOSTED\tERROR")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					l.StartedAt.Local().Format(time.DateTime),
					l.FinishedAt.Sub(l.StartedAt).Round(time.Millisecond),
					l.Status, l.Regions, l.Industries, l.DatePosted, l.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if lastSuccess.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), "Last success: never")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Last success: %s (%s ago)\n",
					lastSuccess.Local().Format(time.DateTime), time.Since(lastSuccess).Round(time.Second))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}
