package cli

import (
	"github.com/spf13/cobra"
)

func newFieldsCmd(client *Client, output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <form-id>",
		Short: "List the fields of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := client.Fields(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if *output == "json" {
				return PrintJSON(cmd.OutOrStdout(), fields)
			}

			rows := make([][]any, len(fields))
			for i, f := range fields {
				rows[i] = []any{f.ID, f.Label, f.Type, f.Weightage}
			}
			renderTable(cmd.OutOrStdout(), []string{"id", "label", "type", "weightage"}, rows)
			return nil
		},
	}
}
