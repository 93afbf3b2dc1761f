// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain runs the external programs tikz-convert depends on: the
// LaTeX engines, latexmk, pdftops and ImageMagick. Every program is started
// from an argument vector, never through a shell.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolMissing means an external program could not be started.
	ErrToolMissing = errors.New("external tool not available")

	// ErrCompileFailed means the LaTeX engine ran and exited nonzero.
	ErrCompileFailed = errors.New("compilation failed")
)

// waitDelay bounds how long Run waits for a cancelled process to exit after
// it has been sent an interrupt.
const waitDelay = 5 * time.Second

// Command describes one external program invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command for log output.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// ExitError reports that a program started but exited with a nonzero code.
// Any other error returned by Executor.Run is a launch failure.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

// Executor abstracts process execution so tests never launch real tools.
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, c Command) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	// SIGINT on cancellation; WaitDelay escalates to a kill.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExitError{Name: c.Name, Code: ee.ExitCode()}
	}
	return err
}

// DefaultExecutor runs real processes.
var DefaultExecutor Executor = osExecutor{}

// Available reports whether bin can be found on PATH.
func Available(e Executor, bin string) bool {
	_, err := e.LookPath(bin)
	return err == nil
}

// IsLaunchFailure reports whether err means the program never ran, as
// opposed to running and exiting nonzero.
func IsLaunchFailure(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExitError
	return !errors.As(err, &ee)
}

// Runner runs a single external tool and folds its stderr into the error.
type Runner struct {
	Bin  string
	exec Executor
}

// NewRunner returns a Runner for bin. A nil executor means DefaultExecutor.
func NewRunner(bin string, e Executor) *Runner {
	if e == nil {
		e = DefaultExecutor
	}
	return &Runner{Bin: bin, exec: e}
}

// Available reports whether the runner's binary is on PATH.
func (r *Runner) Available() bool {
	return Available(r.exec, r.Bin)
}

// Run executes the tool in dir with args. Standard output is discarded
// unless stdout is non-nil.
func (r *Runner) Run(ctx context.Context, dir string, stdout io.Writer, args ...string) error {
	var errBuf bytes.Buffer
	cmd := Command{Name: r.Bin, Args: args, Dir: dir, Stdout: stdout, Stderr: &errBuf}
	if err := r.exec.Run(ctx, cmd); err != nil {
		if IsLaunchFailure(err) {
			return fmt.Errorf("%w: %s: %v", ErrToolMissing, r.Bin, err)
		}
		if msg := strings.TrimSpace(errBuf.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", cmd, err, msg)
		}
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}
