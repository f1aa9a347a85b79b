package invoke

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lacquerai/taxfn/internal/handler"
	"github.com/lacquerai/taxfn/internal/order"
	_ "github.com/lacquerai/taxfn/internal/testhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envHelperMode switches the test binary into a stand-in handler process.
const envHelperMode = "TAXFN_HELPER_MODE"

func TestMain(m *testing.M) {
	switch os.Getenv(envHelperMode) {
	case "":
		os.Exit(m.Run())
	case "handler":
		if err := handler.Handle(context.Background(), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	case "crash":
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(3)
	case "silent":
		os.Exit(0)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	default:
		os.Exit(2)
	}
}

func helper(mode string) *ExecInvoker {
	inv := NewExecInvoker(os.Args[0])
	inv.Env = []string{envHelperMode + "=" + mode}
	return inv
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("A1", 100)
	require.NoError(t, err)
	assert.Equal(t, `{"body":"{\"id\":\"A1\",\"value\":100}"}`, string(req))
}

func TestNewRequestWithBody(t *testing.T) {
	req, err := NewRequestWithBody("{}")
	require.NoError(t, err)
	assert.Equal(t, `{"body":"{}"}`, string(req))
}

func TestLocalInvoker(t *testing.T) {
	req, err := NewRequest("A1", 100)
	require.NoError(t, err)

	res, err := Do(context.Background(), LocalInvoker{}, req)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Response.Status)
	assert.Equal(t, order.Output{OrderID: "A1", TotalFinal: 115, Engine: order.Engine}, res.Output)
	assert.NotEmpty(t, res.Raw)
}

func TestExecInvoker(t *testing.T) {
	req, err := NewRequest("P-2", 2.5)
	require.NoError(t, err)

	res, err := Do(context.Background(), helper("handler"), req)
	require.NoError(t, err)
	assert.Equal(t, "P-2", res.Output.OrderID)
	assert.Equal(t, 2.875, res.Output.TotalFinal)
}

func TestExecInvoker_MatchesLocal(t *testing.T) {
	inputs := []string{
		`{"body":"{\"id\":\"A1\",\"value\":100}"}`,
		`not json`,
		`{"body":"{}"}`,
	}

	for _, in := range inputs {
		local, err := LocalInvoker{}.Invoke(context.Background(), []byte(in))
		require.NoError(t, err)

		remote, err := helper("handler").Invoke(context.Background(), []byte(in))
		require.NoError(t, err)

		assert.Equal(t, string(local), string(remote), in)
	}
}

func TestExecInvoker_Errors(t *testing.T) {
	ctx := context.Background()
	req := []byte(`{"body":"{}"}`)

	_, err := (&ExecInvoker{}).Invoke(ctx, req)
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = NewExecInvoker("/nonexistent/taxfn").Invoke(ctx, req)
	assert.ErrorIs(t, err, ErrHandlerFault)

	_, err = helper("crash").Invoke(ctx, req)
	require.ErrorIs(t, err, ErrHandlerFault)
	assert.Contains(t, err.Error(), "boom")

	_, err = helper("silent").Invoke(ctx, req)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestExecInvoker_Timeout(t *testing.T) {
	inv := helper("hang")
	inv.Timeout = 200 * time.Millisecond

	_, err := inv.Invoke(context.Background(), []byte(`{"body":"{}"}`))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("garbage"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"status":200,"headers":{},"body":"nope"}`))
	assert.ErrorIs(t, err, order.ErrMalformedOutput)
}
