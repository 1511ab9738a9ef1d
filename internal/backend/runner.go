// Package backend runs the cluster accounting tools and hands their raw text
// output to the parsers.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/j-veylop/hpc-usage-report/internal/logger"
)

// ErrUnavailable is returned when an accounting tool cannot be run or
// produces no output.
var ErrUnavailable = errors.New("accounting backend unavailable")

var execCommand = exec.CommandContext

// Error describes a failed accounting query.
type Error struct {
	Command string
	Month   string
	Group   string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Command)
	if e.Group != "" {
		fmt.Fprintf(&b, " for group %s", e.Group)
	}
	if e.Month != "" {
		fmt.Fprintf(&b, " for %s", e.Month)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands as local processes.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner returns a runner that kills commands running longer than
// timeout. A zero timeout means no limit.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes name with args. A non-zero exit, a timeout or blank output is
// reported as ErrUnavailable.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := execCommand(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logger.Debug("ran accounting command", "command", name, "args", args, "duration", time.Since(start))

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, name, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrUnavailable, name, err, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s returned no output", ErrUnavailable, name)
	}
	return out, nil
}
