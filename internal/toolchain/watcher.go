// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package toolchain

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/wannesvl/tikz-convert/pkg/types"
)

// Watcher runs latexmk in preview-continuous mode: it rebuilds the PDF each
// time a source changes and keeps a viewer open until stopped.
type Watcher struct {
	Bin    string
	exec   Executor
	logger *log.Logger
}

// NewWatcher returns a Watcher for the configured tool. A nil executor
// means DefaultExecutor; a nil logger means log.Default().
func NewWatcher(tools types.ToolsConfig, e Executor, logger *log.Logger) *Watcher {
	tools = tools.WithDefaults()
	if e == nil {
		e = DefaultExecutor
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{Bin: tools.Watcher, exec: e, logger: logger}
}

// Available reports whether the watch tool is on PATH.
func (w *Watcher) Available() bool {
	return Available(w.exec, w.Bin)
}

// Watch blocks until ctx is cancelled or the watcher exits on its own.
// Cancellation is the normal way to stop and yields a nil error. The
// watcher's output goes straight to stdout and stderr.
func (w *Watcher) Watch(ctx context.Context, dir, job string, stdout, stderr io.Writer) error {
	cmd := Command{
		Name:   w.Bin,
		Args:   []string{"-pdf", "-pvc", job},
		Dir:    dir,
		Stdout: stdout,
		Stderr: stderr,
	}
	w.logger.Debug("running", "cmd", cmd.String(), "dir", dir)

	err := w.exec.Run(ctx, cmd)
	if ctx.Err() != nil {
		w.logger.Info("Continuous compilation stopped")
		return nil
	}
	if err == nil {
		return nil
	}
	if IsLaunchFailure(err) {
		return fmt.Errorf("%w: %s: %v", ErrToolMissing, w.Bin, err)
	}
	return fmt.Errorf("%s: %w", cmd, err)
}
