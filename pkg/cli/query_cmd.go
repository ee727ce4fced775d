package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(client *Client, output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query [statement]",
		Short: "Execute a query statement",
		Long: `Execute a statement batch against the API.

The statement is taken from the argument, or read from stdin when no
argument is given. Multiple statements can be separated by semicolons.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var statement string
			if len(args) == 1 {
				statement = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				statement = string(data)
			}
			if strings.TrimSpace(statement) == "" {
				return fmt.Errorf("no statement given")
			}

			result, err := client.Query(cmd.Context(), statement)
			if err != nil {
				return err
			}

			if *output == "json" {
				return PrintJSON(cmd.OutOrStdout(), result)
			}

			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
				}
				return fmt.Errorf("query failed")
			}

			renderTable(cmd.OutOrStdout(), result.Columns, result.Rows)
			fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", len(result.Rows))
			return nil
		},
	}
}
