package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// EnvTestLog re-enables logging in tests when set to any non-empty value.
const EnvTestLog = "TAXFN_TEST_LOG"

// init disables logging for tests unless explicitly enabled
func init() {
	if testing.Testing() && os.Getenv(EnvTestLog) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

// Logger returns a logger that writes through t.Log. It stays silent until
// EnableLogging (or TAXFN_TEST_LOG) lifts the global level.
func Logger(t testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.TraceLevel)
}

// EnableLogging lifts the global disable for the duration of t. Tests that
// call it must not run in parallel.
func EnableLogging(t testing.TB) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prev)
	})
}
