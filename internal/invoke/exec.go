package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single subprocess invocation.
const DefaultTimeout = 30 * time.Second

var (
	ErrEmptyPath    = errors.New("invoke: handler path is empty")
	ErrEmptyOutput  = errors.New("invoke: handler wrote nothing to stdout")
	ErrTimeout      = errors.New("invoke: handler timed out")
	ErrHandlerFault = errors.New("invoke: handler exited abnormally")
)

// ExecInvoker runs a handler binary once per request, feeding the envelope on
// stdin and reading the reply from stdout.
type ExecInvoker struct {
	Path    string
	Args    []string
	Env     []string // appended to the current environment
	Dir     string
	Timeout time.Duration
}

// NewExecInvoker creates an ExecInvoker for the binary at path.
func NewExecInvoker(path string, args ...string) *ExecInvoker {
	return &ExecInvoker{
		Path:    path,
		Args:    args,
		Timeout: DefaultTimeout,
	}
}

// Invoke implements Invoker
func (e *ExecInvoker) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	if strings.TrimSpace(e.Path) == "" {
		return nil, ErrEmptyPath
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Stdin = bytes.NewReader(request)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	zerolog.Ctx(ctx).Debug().
		Str("path", e.Path).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("Handler process finished")

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: %v; stderr=%s", ErrHandlerFault, err, strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w; stderr=%s", ErrEmptyOutput, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}
