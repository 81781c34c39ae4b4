// Package compiler defines the contract of the external compilers invoked by
// the pipeline and the classification of their exit codes.
package compiler

import (
	"context"
	"fmt"
	"strings"
)

// Result is the fully captured outcome of one compiler invocation
type Result struct {
	ExitCode int
	// Lines holds stdout and stderr in emission order
	Lines []string
}

// Compiler is an external compiler service. An error is returned only when
// the compiler could not be invoked at all; a failed compilation is reported
// through Result.ExitCode.
type Compiler interface {
	Compile(ctx context.Context, args []string) (Result, error)
}

// Func adapts an ordinary function to the Compiler interface
type Func func(ctx context.Context, args []string) (Result, error)

// Compile calls f(ctx, args)
func (f Func) Compile(ctx context.Context, args []string) (Result, error) {
	return f(ctx, args)
}

// Status classifies a Kotlin compiler exit code
type Status int

const (
	StatusOK Status = iota
	// StatusCompilationError is a standard compilation diagnostic (exit code 1)
	StatusCompilationError
	// StatusInternalError is an internal compiler error (exit code 2)
	StatusInternalError
	// StatusScriptError is a script execution error (exit code 3)
	StatusScriptError
	// StatusUnexpected is any other exit code
	StatusUnexpected
)

// Classify maps a Kotlin compiler exit code to its status
func Classify(exitCode int) Status {
	switch exitCode {
	case 0:
		return StatusOK
	case 1:
		return StatusCompilationError
	case 2:
		return StatusInternalError
	case 3:
		return StatusScriptError
	default:
		return StatusUnexpected
	}
}

// Terminal reports whether the status must abort the pipeline immediately
func (s Status) Terminal() bool {
	return s == StatusInternalError || s == StatusUnexpected
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCompilationError:
		return "compilation error"
	case StatusInternalError:
		return "internal compiler error"
	case StatusScriptError:
		return "script execution error"
	default:
		return "unexpected exit code"
	}
}

// StagedError is a compiler failure tagged with the stage that produced it
type StagedError struct {
	Stage    string
	ExitCode int
	Lines    []string
}

func (e *StagedError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d (%s)", e.Stage, e.ExitCode, Classify(e.ExitCode))
}

// Output returns the captured compiler output as a single string
func (e *StagedError) Output() string {
	return strings.Join(e.Lines, "\n")
}
