package style

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"Metric", "Value"}, [][]string{
		{"Min", "12.00 µs"},
		{"Requests/sec", "9000.00"},
	})

	out := buf.String()
	assert.Contains(t, out, "Metric")
	assert.Contains(t, out, "Requests/sec  9000.00")
	assert.Contains(t, out, "Min           12.00 µs")
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"A"}, nil)
	assert.Empty(t, buf.String())
}

func TestPrintJSONAndYAML(t *testing.T) {
	data := map[string]int{"passed": 3}

	var js bytes.Buffer
	PrintJSON(&js, data)
	assert.Equal(t, "{\n  \"passed\": 3\n}\n", js.String())

	var ym bytes.Buffer
	PrintYAML(&ym, data)
	assert.Equal(t, "passed: 3\n", ym.String())
}

func TestTestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewTestSpinner(&buf)
	s.SetFinalMSG("done")
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	assert.Equal(t, "[SPINNER START]\n[SPINNER STOP]\n[FINAL MSG] done\n", buf.String())
}

func TestNewSpinner_TestMode(t *testing.T) {
	t.Setenv(EnvTest, "true")

	_, ok := NewSpinner(&bytes.Buffer{}).(*TestSpinner)
	assert.True(t, ok)
}
