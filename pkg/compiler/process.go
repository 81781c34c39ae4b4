package compiler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"kbuilder/pkg/ctxlog"
)

// Process runs a compiler as a subprocess
type Process struct {
	path    string
	leading []string
	dir     string
}

// NewProcess creates a compiler that executes path with the leading
// arguments placed before the arguments of every invocation
func NewProcess(path string, leading ...string) *Process {
	return &Process{
		path:    path,
		leading: leading,
	}
}

// WithDir returns a copy of the process that runs in dir
func (p *Process) WithDir(dir string) *Process {
	next := *p
	next.dir = dir
	return &next
}

// Compile runs the compiler to completion. The context is not used to cancel
// the subprocess: once started, a compilation is never interrupted.
func (p *Process) Compile(ctx context.Context, args []string) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	cmdArgs := make([]string, 0, len(p.leading)+len(args))
	cmdArgs = append(cmdArgs, p.leading...)
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(p.path, cmdArgs...)
	cmd.Dir = p.dir

	// A single writer for both streams keeps their interleaving
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	logger.Debug("invoking compiler", "path", p.path, "args", len(cmdArgs))

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("failed to run %s: %w", p.path, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return Result{
		ExitCode: exitCode,
		Lines:    splitLines(output.String()),
	}, nil
}

func splitLines(output string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
