package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(client *Client, output *string) *cobra.Command {
	var (
		statementType string
		status        string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List executed statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := client.History(cmd.Context(), statementType, status, limit)
			if err != nil {
				return err
			}

			if *output == "json" {
				return PrintJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]any, len(entries))
			for i, e := range entries {
				errMsg := ""
				if e.ErrorMessage != nil {
					errMsg = *e.ErrorMessage
				}
				rows[i] = []any{
					e.ID, e.StatementType, e.Status, e.RowsReturned,
					e.DurationMs, e.CreatedAt.Format("2006-01-02 15:04:05"), errMsg,
				}
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"id", "type", "status", "rows", "ms", "created", "error"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&statementType, "type", "", "Filter by statement type (SELECT, UPDATE_FORM, ...)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (success, error)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to return")
	return cmd
}
