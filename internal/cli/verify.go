package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lacquerai/taxfn/internal/conformance"
	"github.com/lacquerai/taxfn/internal/order"
	"github.com/lacquerai/taxfn/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// verifyCmd runs the conformance catalogue against a handler
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a handler against the protocol conformance cases",
	Long: `Run every conformance case against a handler and compare the response with
the expected output. Each case is sent twice and both replies must match
byte for byte.

The in-process handler is held to the engine literal "` + order.Engine + `". A handler given
with --exec is only held to an engine literal when --engine is set, which lets
the same catalogue check other implementations of the protocol.`,
	Example: `
  taxfn verify
  taxfn verify --exec ./bin/handler --engine gojinn-rust
  taxfn verify --cases extra-cases.yaml --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := loadCases(viper.GetString("verify.cases"))
		if err != nil {
			return err
		}

		opts := conformance.Options{
			Engine: viper.GetString("verify.engine"),
			Cases:  cases,
		}
		if opts.Engine == "" && viper.GetString("verify.exec") == "" {
			opts.Engine = order.Engine
		}

		format := viper.GetString("output")

		var spin style.Spinner
		if format == "text" && !viper.GetBool("quiet") {
			spin = style.NewSpinner(cmd.ErrOrStderr())
			spin.SetSuffix(" Verifying " + handlerName("verify"))
			spin.Start()
		}

		report, err := conformance.Run(commandContext(cmd), newInvoker("verify"), opts)
		if spin != nil {
			spin.Stop()
		}
		if err != nil {
			return err
		}

		switch format {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), report)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), report)
		default:
			printVerifyText(cmd.OutOrStdout(), report, viper.GetBool("verbose"))
		}

		if !report.OK() {
			return fmt.Errorf("%d of %d conformance cases failed", report.Failed, report.Passed+report.Failed)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().String("engine", "", "engine literal every response must carry")
	verifyCmd.Flags().String("cases", "", "YAML case catalogue to run instead of the built-in one")
	addExecFlags(verifyCmd)
	bindFlags(verifyCmd, "verify")

	rootCmd.AddCommand(verifyCmd)
}

func loadCases(path string) ([]conformance.Case, error) {
	if path == "" {
		return conformance.BuiltinCases()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	return conformance.ParseCases(data)
}

func printVerifyText(w io.Writer, report *conformance.Report, verbose bool) {
	for _, res := range report.Results {
		if res.Passed {
			fmt.Fprintf(w, "%s %s\n", style.SuccessIcon(), res.Name)
			continue
		}

		fmt.Fprintf(w, "%s %s\n", style.ErrorIcon(), res.Name)
		for _, failure := range res.Failures {
			fmt.Fprintf(w, "    %s\n", style.MutedStyle.Render(failure))
		}
		if diff := res.PrettyDiff(); verbose && diff != "" {
			fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(diff, "\n", "\n    "))
		}
	}
	fmt.Fprintln(w)

	total := report.Passed + report.Failed
	engine := report.Engine
	if engine == "" {
		engine = "any engine"
	}
	if report.OK() {
		style.Success(w, fmt.Sprintf("%d/%d cases passed (%s)", report.Passed, total, engine))
		return
	}
	style.Error(w, fmt.Sprintf("%d/%d cases failed (%s)", report.Failed, total, engine))
}
