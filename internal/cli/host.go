package cli

import (
	"time"

	"github.com/lacquerai/taxfn/internal/invoke"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// addExecFlags registers the flags that pick the handler under test.
func addExecFlags(cmd *cobra.Command) {
	cmd.Flags().String("exec", "", "handler binary to run as a subprocess (default: this binary's handler, in-process)")
	cmd.Flags().Duration("timeout", invoke.DefaultTimeout, "per-invocation timeout for --exec")
}

// bindFlags exposes every local flag of cmd to viper as "<section>.<flag>",
// so the same settings can come from the config file or TAXFN_<SECTION>_<FLAG>.
func bindFlags(cmd *cobra.Command, section string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(section+"."+f.Name, f)
	})
}

// newInvoker returns the invoker selected by the "<section>.exec" setting.
func newInvoker(section string) invoke.Invoker {
	path := viper.GetString(section + ".exec")
	if path == "" {
		return invoke.LocalInvoker{}
	}

	inv := invoke.NewExecInvoker(path)
	if timeout := viper.GetDuration(section + ".timeout"); timeout > 0 {
		inv.Timeout = timeout
	}
	log.Debug().Str("path", path).Dur("timeout", inv.Timeout).Msg("Using subprocess handler")
	return inv
}

func handlerName(section string) string {
	if path := viper.GetString(section + ".exec"); path != "" {
		return path
	}
	return "local"
}

func durationMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
