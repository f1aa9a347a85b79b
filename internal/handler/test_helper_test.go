package handler

import (
	"os"
	"testing"

	// Import shared test helper for logging configuration
	_ "github.com/lacquerai/taxfn/internal/testhelper"
)

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
