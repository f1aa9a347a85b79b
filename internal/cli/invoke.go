package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/lacquerai/taxfn/internal/invoke"
	"github.com/lacquerai/taxfn/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errConflictingRequest = errors.New("--body and --raw cannot be combined")

// invokeCmd sends a single request to a handler
var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Send one request envelope to a handler",
	Long: `Build a request envelope, hand it to a handler the way a function runner host
does, and print the response.

By default the request carries the order given by --id and --value. --body
replaces the payload text verbatim (it may be any string, valid JSON or not)
and --raw sends a complete envelope as-is.`,
	Example: `
  taxfn invoke --id A1 --value 100
  taxfn invoke --body 'not json'
  taxfn invoke --raw '{"body":"{\"id\":\"A1\",\"value\":100}"}' --output json
  taxfn invoke --exec ./bin/handler --id B7 --value 19.99`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := buildInvokeRequest()
		if err != nil {
			return err
		}

		result, err := invoke.Do(commandContext(cmd), newInvoker("invoke"), request)
		if err != nil {
			return fmt.Errorf("invoke %s: %w", handlerName("invoke"), err)
		}

		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), result)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), result)
		default:
			printInvokeText(cmd.OutOrStdout(), result, viper.GetBool("verbose"))
		}
		return nil
	},
}

func init() {
	invokeCmd.Flags().String("id", "1", "order id")
	invokeCmd.Flags().Float64("value", 100, "order value")
	invokeCmd.Flags().String("body", "", "payload text to send instead of an order")
	invokeCmd.Flags().String("raw", "", "complete request envelope to send as-is")
	addExecFlags(invokeCmd)
	bindFlags(invokeCmd, "invoke")

	rootCmd.AddCommand(invokeCmd)
}

func buildInvokeRequest() ([]byte, error) {
	body := viper.GetString("invoke.body")
	raw := viper.GetString("invoke.raw")

	switch {
	case body != "" && raw != "":
		return nil, errConflictingRequest
	case raw != "":
		return []byte(raw), nil
	case body != "":
		return invoke.NewRequestWithBody(body)
	default:
		return invoke.NewRequest(viper.GetString("invoke.id"), viper.GetFloat64("invoke.value"))
	}
}

func printInvokeText(w io.Writer, result *invoke.Result, verbose bool) {
	if verbose {
		fmt.Fprintf(w, "%s\n\n", result.Raw)
	}

	headers := make([]string, 0, len(result.Response.Headers))
	for name := range result.Response.Headers {
		headers = append(headers, name)
	}
	sort.Strings(headers)

	rows := [][]string{
		{"status", fmt.Sprintf("%d", result.Response.Status)},
	}
	for _, name := range headers {
		rows = append(rows, []string{"header " + name, result.Response.Headers[name]})
	}
	rows = append(rows,
		[]string{"order_id", result.Output.OrderID},
		[]string{"total_final", fmt.Sprintf("%g", result.Output.TotalFinal)},
		[]string{"engine", result.Output.Engine},
	)
	style.PrintTable(w, []string{"Field", "Value"}, rows)
}
