// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/wannesvl/tikz-convert/pkg/types"
)

// Outcome is the result of one compiler invocation.
type Outcome struct {
	// Engine is the binary that ran, or "" when none could be started.
	Engine string
	Status types.Status
	// ExitCode is the engine's exit code when it ran.
	ExitCode int
	// Output holds everything the engine wrote to stdout and stderr.
	Output []byte
}

// Compiler runs a LaTeX engine once over a wrapper document. The primary
// engine runs with -shell-escape; the fallback engine runs without it and
// is tried only when the primary cannot be launched at all. A primary that
// starts and exits nonzero is a compile failure, not a reason to fall back.
type Compiler struct {
	Primary  string
	Fallback string
	exec     Executor
	logger   *log.Logger
}

// NewCompiler returns a Compiler for the configured engines. A nil executor
// means DefaultExecutor; a nil logger means log.Default().
func NewCompiler(tools types.ToolsConfig, e Executor, logger *log.Logger) *Compiler {
	tools = tools.WithDefaults()
	if e == nil {
		e = DefaultExecutor
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Compiler{
		Primary:  tools.Engine,
		Fallback: tools.FallbackEngine,
		exec:     e,
		logger:   logger,
	}
}

func primaryArgs(job string) []string {
	return []string{"-halt-on-error", "-shell-escape", "-jobname=" + job, job + ".tex"}
}

func fallbackArgs(job string) []string {
	return []string{"-halt-on-error", "-jobname=" + job, job + ".tex"}
}

// Compile typesets <job>.tex in dir into <job>.pdf. The returned error wraps
// ErrCompileFailed when an engine ran and failed, or ErrToolMissing when
// neither engine could be started.
func (c *Compiler) Compile(ctx context.Context, dir, job string) (Outcome, error) {
	out := Outcome{Status: types.StatusCompiling}

	var buf bytes.Buffer
	err := c.run(ctx, c.Primary, dir, primaryArgs(job), &buf)
	engine := c.Primary
	if IsLaunchFailure(err) {
		c.logger.Warn("primary engine unavailable, falling back", "engine", c.Primary, "fallback", c.Fallback, "err", err)
		buf.Reset()
		fbErr := c.run(ctx, c.Fallback, dir, fallbackArgs(job), &buf)
		if IsLaunchFailure(fbErr) {
			out.Status = types.StatusFailed
			return out, fmt.Errorf("%w: neither %s nor %s could be started: %v", ErrToolMissing, c.Primary, c.Fallback, fbErr)
		}
		err, engine = fbErr, c.Fallback
	}

	out.Engine = engine
	out.Output = buf.Bytes()
	if err != nil {
		out.Status = types.StatusFailed
		var ee *ExitError
		if errors.As(err, &ee) {
			out.ExitCode = ee.Code
		}
		return out, fmt.Errorf("%s on %s.tex: %w: %v", engine, job, ErrCompileFailed, err)
	}
	out.Status = types.StatusSuccess
	return out, nil
}

func (c *Compiler) run(ctx context.Context, bin, dir string, args []string, w io.Writer) error {
	cmd := Command{Name: bin, Args: args, Dir: dir, Stdout: w, Stderr: w}
	c.logger.Debug("running", "cmd", cmd.String(), "dir", dir)
	return c.exec.Run(ctx, cmd)
}
