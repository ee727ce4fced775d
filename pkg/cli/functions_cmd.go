package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFunctionsCmd(client *Client, output *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "Manage user-defined functions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fns, err := client.Functions(cmd.Context())
			if err != nil {
				return err
			}

			if *output == "json" {
				return PrintJSON(cmd.OutOrStdout(), fns)
			}

			rows := make([][]any, len(fns))
			for i, fn := range fns {
				rows[i] = []any{fn.Name, strings.Join(fn.Params, ", "), fn.ReturnType}
			}
			renderTable(cmd.OutOrStdout(), []string{"name", "params", "returns"}, rows)
			return nil
		},
	}

	drop := &cobra.Command{
		Use:   "drop <name>",
		Short: "Remove a registered function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DropFunction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "function %s dropped\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, drop)
	return cmd
}
