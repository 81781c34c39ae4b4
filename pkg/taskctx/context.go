// Package taskctx carries per-invocation tracing and timing through the
// stages of a compilation.
//
// Tracing is observational: nothing recorded here changes the control flow of
// a stage or the artifacts it produces.
package taskctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kbuilder/pkg/compiler"
)

// Timing records one executed stage
type Timing struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Failed   bool
}

// Context is created once per invocation and discarded afterwards
type Context struct {
	id      string
	label   string
	verbose bool
	out     io.Writer
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	stack    []string
	timings  []Timing
	deferred []deferredOutput
}

type deferredOutput struct {
	stage string
	lines []string
}

// Option configures a Context
type Option func(*Context)

// WithClock replaces the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.now = now
	}
}

// New creates a context for the invocation identified by label. Compiler
// output is written to out; tracing goes to logger and is only emitted when
// verbose is set.
func New(label string, verbose bool, out io.Writer, logger *slog.Logger, opts ...Option) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		id:      uuid.NewString(),
		label:   label,
		verbose: verbose,
		out:     out,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.With("invocation", c.id, "label", label)
	return c
}

// ID returns the unique id of this invocation
func (c *Context) ID() string {
	return c.id
}

// Verbose reports whether tracing is enabled
func (c *Context) Verbose() bool {
	return c.verbose
}

// Logger returns the invocation logger
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Stage executes body exactly once as the named stage and returns its result
// unchanged. Timing is recorded whether or not body fails, and a failure is
// propagated as is.
func Stage[T any](c *Context, name string, body func() (T, error)) (T, error) {
	path := c.push(name)
	start := c.now()
	c.trace("stage started", "stage", path)

	result, err := body()

	elapsed := c.now().Sub(start)
	c.pop(Timing{Name: path, Start: start, Duration: elapsed, Failed: err != nil})
	if err != nil {
		c.trace("stage failed", "stage", path, "duration", elapsed, "error", err)
	} else {
		c.trace("stage finished", "stage", path, "duration", elapsed)
	}
	return result, err
}

// Run executes a stage that produces no value
func (c *Context) Run(name string, body func() error) error {
	_, err := Stage(c, name, func() (struct{}, error) {
		return struct{}{}, body()
	})
	return err
}

// CurrentStage returns the slash separated path of the running stage
func (c *Context) CurrentStage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.stack, "/")
}

// RunCompiler invokes the compiler and returns its output lines. When
// printOutput is set the lines are written to the output before returning;
// otherwise surfacing them is left to the caller. A non-zero exit code is
// returned as a *compiler.StagedError carrying the lines.
func (c *Context) RunCompiler(ctx context.Context, args []string, printOutput bool, comp compiler.Compiler) ([]string, error) {
	c.trace("compiler arguments", "stage", c.CurrentStage(), "args", strings.Join(args, " "))

	result, err := comp.Compile(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.CurrentStage(), err)
	}
	if printOutput {
		c.PrintCompilerOutput(result.Lines)
	}
	if result.ExitCode != 0 {
		return result.Lines, &compiler.StagedError{
			Stage:    c.CurrentStage(),
			ExitCode: result.ExitCode,
			Lines:    result.Lines,
		}
	}
	return result.Lines, nil
}

// PrintCompilerOutput writes compiler output lines verbatim
func (c *Context) PrintCompilerOutput(lines []string) {
	if c.out == nil {
		return
	}
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

// WhenTracing runs fn only when tracing is enabled
func (c *Context) WhenTracing(fn func()) {
	if c.verbose {
		fn()
	}
}

// TraceLines logs a block of lines under a header when tracing is enabled
func (c *Context) TraceLines(header string, lines []string) {
	c.WhenTracing(func() {
		c.logger.Debug(header, "stage", c.CurrentStage(), "lines", len(lines))
		for _, line := range lines {
			c.logger.Debug(header, "line", line)
		}
	})
}

// DeferOutput holds compiler output that a later stage is expected to
// reproduce. It is surfaced by FlushDeferred unless SupersedeDeferred sees the
// same lines first.
func (c *Context) DeferOutput(lines []string) {
	if len(lines) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deferred = append(c.deferred, deferredOutput{
		stage: strings.Join(c.stack, "/"),
		lines: append([]string(nil), lines...),
	})
}

// SupersedeDeferred discards held lines that appear in output, which has
// already been surfaced. Lines output does not reproduce stay held.
func (c *Context) SupersedeDeferred(output []string) {
	reproduced := make(map[string]bool, len(output))
	for _, line := range output {
		reproduced[line] = true
	}

	c.mu.Lock()
	dropped := 0
	kept := c.deferred[:0]
	for _, block := range c.deferred {
		var remaining []string
		for _, line := range block.lines {
			if reproduced[line] {
				dropped++
				continue
			}
			remaining = append(remaining, line)
		}
		if len(remaining) > 0 {
			kept = append(kept, deferredOutput{stage: block.stage, lines: remaining})
		}
	}
	c.deferred = kept
	c.mu.Unlock()

	if dropped > 0 {
		c.trace("deferred output superseded", "lines", dropped)
	}
}

// FlushDeferred prints any held output
func (c *Context) FlushDeferred() {
	c.mu.Lock()
	pending := c.deferred
	c.deferred = nil
	c.mu.Unlock()

	for _, block := range pending {
		c.PrintCompilerOutput(block.lines)
	}
}

// Timings returns the recorded stage timings in completion order
func (c *Context) Timings() []Timing {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Timing, len(c.timings))
	copy(out, c.timings)
	return out
}

// Finish flushes deferred output and, when tracing, logs the timing summary
func (c *Context) Finish() {
	c.FlushDeferred()
	c.WhenTracing(func() {
		for _, timing := range c.Timings() {
			c.logger.Debug("task timing", "stage", timing.Name, "duration", timing.Duration, "failed", timing.Failed)
		}
	})
}

func (c *Context) push(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = append(c.stack, name)
	return strings.Join(c.stack, "/")
}

func (c *Context) pop(timing Timing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = c.stack[:len(c.stack)-1]
	c.timings = append(c.timings, timing)
}

func (c *Context) trace(msg string, args ...any) {
	if c.verbose {
		c.logger.Debug(msg, args...)
	}
}
