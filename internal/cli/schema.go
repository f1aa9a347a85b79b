package cli

import (
	"fmt"

	"github.com/lacquerai/taxfn/internal/schema"
	"github.com/spf13/cobra"
)

// schemaCmd prints the JSON Schema of the wire documents
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the request, response, order and output documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.Generate()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
