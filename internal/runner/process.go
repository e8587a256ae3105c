// Package runner executes analyzer invocations as child processes under a
// wall-clock budget and reports how they ended.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

const (
	// defaultTimeout applies when a spec carries no budget of its own.
	defaultTimeout = 30 * time.Second
	// defaultWaitDelay bounds how long Wait keeps draining pipes after the
	// child has been killed or has exited.
	defaultWaitDelay = 2 * time.Second
	// maxOutputBytes caps each captured stream.
	maxOutputBytes = 4 << 20
)

// State is the terminal state of one child process.
type State string

const (
	Completed    State = "completed"
	TimedOut     State = "timed_out"
	LaunchFailed State = "launch_failed"
	// Canceled means the caller's context ended first. It is never a
	// budget expiry.
	Canceled State = "canceled"
)

// Outcome describes how a child process ended. TimedOut outcomes never
// carry output: a killed analyzer's streams are not trustworthy.
type Outcome struct {
	State    State
	ExitCode int
	Stdout   string
	Stderr   string
	// Reason explains TimedOut, LaunchFailed and Canceled outcomes.
	Reason   string
	Duration time.Duration
}

// Succeeded reports a Completed outcome with exit code 0.
func (o Outcome) Succeeded() bool {
	return o.State == Completed && o.ExitCode == 0
}

// Spec is the part of an invocation the runner needs.
type Spec interface {
	Args() []string
	Env() map[string]string
	Timeout() time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithWaitDelay sets how long to wait for output pipes to close after the
// process exits or is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// WithMaxOutput caps the bytes captured per stream.
func WithMaxOutput(n int) Option {
	return func(r *Runner) {
		r.maxOutput = n
	}
}

// Runner starts exactly one child per Run call and never retries.
type Runner struct {
	waitDelay time.Duration
	maxOutput int
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		waitDelay: defaultWaitDelay,
		maxOutput: maxOutputBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes spec and blocks until the child exits or its budget expires.
// A non-zero exit is a normal Completed outcome. The returned error is only
// set when ctx itself was canceled by the caller.
func (r *Runner) Run(ctx context.Context, spec Spec) (Outcome, error) {
	args := spec.Args()
	if len(args) == 0 || args[0] == "" {
		return Outcome{State: LaunchFailed, ExitCode: -1, Reason: "empty command line"}, nil
	}
	timeout := spec.Timeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	if env := spec.Env(); env != nil {
		cmd.Env = MergeEnv(os.Environ(), env)
	}
	cmd.Stdin = nil
	cmd.WaitDelay = r.waitDelay
	killProcessGroup(cmd)

	stdout := &capBuffer{limit: r.maxOutput}
	stderr := &capBuffer{limit: r.maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return Outcome{State: Canceled, ExitCode: -1, Reason: "canceled"}, ctx.Err()
		}
		return Outcome{
			State:    LaunchFailed,
			ExitCode: -1,
			Reason:   err.Error(),
			Duration: time.Since(start),
		}, nil
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	if waitErr != nil && ctx.Err() != nil {
		return Outcome{State: Canceled, ExitCode: -1, Reason: "canceled", Duration: duration}, ctx.Err()
	}
	if waitErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Outcome{
			State:    TimedOut,
			ExitCode: -1,
			Reason:   fmt.Sprintf("exceeded %s budget", timeout),
			Duration: duration,
		}, nil
	}

	code := 0
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	} else if waitErr != nil {
		code = -1
	}
	return Outcome{
		State:    Completed,
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// MergeEnv returns base with overrides applied. Overridden keys are removed
// from base and re-added in sorted order so the result is deterministic.
func MergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// capBuffer keeps the first limit bytes written and silently drops the rest
// so a chatty child cannot exhaust memory.
type capBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *capBuffer) Write(p []byte) (int, error) {
	room := c.limit - c.buf.Len()
	if room <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.truncated = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *capBuffer) String() string {
	if c.truncated {
		return c.buf.String() + "\n... output truncated"
	}
	return c.buf.String()
}
