// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns TikZ fragments into PDF, EPS and PNG images. For
// each fragment it writes a wrapper document, runs the LaTeX toolchain,
// derives the extra formats and removes the temporary files, reporting
// every failure and moving on rather than aborting the run.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wannesvl/tikz-convert/internal/toolchain"
	"github.com/wannesvl/tikz-convert/internal/wrapper"
	"github.com/wannesvl/tikz-convert/pkg/types"
)

// Options configures a Converter. Only Config is required.
type Options struct {
	Config types.Config

	// Exec runs external programs; nil means toolchain.DefaultExecutor.
	Exec toolchain.Executor

	// Logger receives progress messages; nil means log.Default().
	Logger *log.Logger

	// Stdout receives the compiler log on failure and the watcher's output.
	// Nil means os.Stdout.
	Stdout io.Writer

	// Stderr receives the watcher's error stream. Nil means os.Stderr.
	Stderr io.Writer
}

// Converter runs the per-fragment pipeline. It holds no state between
// fragments besides its configuration.
type Converter struct {
	cfg       types.Config
	dir       string
	compiler  *toolchain.Compiler
	watcher   *toolchain.Watcher
	exporters []PostProcessor
	logger    *log.Logger
	stdout    io.Writer
	stderr    io.Writer
}

// New builds a Converter from opts.
func New(opts Options) (*Converter, error) {
	cfg := opts.Config.WithDefaults()

	dir := cfg.WorkDir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving work directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	ex := opts.Exec
	if ex == nil {
		ex = toolchain.DefaultExecutor
	}

	c := &Converter{
		cfg:      cfg,
		dir:      dir,
		compiler: toolchain.NewCompiler(cfg.Tools, ex, logger),
		watcher:  toolchain.NewWatcher(cfg.Tools, ex, logger),
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
	}
	// Exporters run in this fixed order: eps, then png.
	if cfg.Formats.Has(types.FormatEPS) {
		c.exporters = append(c.exporters, NewEPSExporter(cfg.Tools.PDFToPS, ex))
	}
	if cfg.Formats.Has(types.FormatPNG) {
		c.exporters = append(c.exporters, NewPNGExporter(cfg.Tools.Convert, cfg.Density, cfg.Fuzz, ex))
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Converter) Config() types.Config {
	return c.cfg
}

// Dir returns the absolute work directory.
func (c *Converter) Dir() string {
	return c.dir
}

// ConvertFile runs the whole pipeline for one fragment in the given mode.
// Temporary files are removed before it returns, whatever the outcome.
func (c *Converter) ConvertFile(ctx context.Context, fragment string, mode types.Mode) types.Result {
	res := types.Result{
		Fragment: fragment,
		Job:      wrapper.JobName(fragment),
		Mode:     mode,
		Status:   types.StatusNotStarted,
	}
	c.logger.Info("Processing file", "file", fragment)
	defer c.cleanup(res.Job)

	doc, err := wrapper.Synthesize(fragment, c.cfg.Root)
	if err != nil {
		c.fail(&res, "Could not build wrapper document", err)
		return res
	}
	res.Fragment = doc.Fragment
	res.PreambleFrom = string(doc.PreambleFrom)
	c.logger.Debug("Wrapper synthesized", "job", doc.Job, "preamble", doc.PreambleFrom, "root", doc.Root)

	if _, err := doc.Write(c.dir); err != nil {
		c.fail(&res, "Could not write wrapper document", err)
		return res
	}

	res.Status = types.StatusCompiling
	switch mode {
	case types.ModeContinuous:
		c.watch(ctx, &res)
		// The session ends by cancellation; exports still run afterwards.
		ctx = context.WithoutCancel(ctx)
	default:
		c.compile(ctx, &res)
	}

	if res.Status != types.StatusSuccess {
		return res
	}
	res.Outputs = append(res.Outputs, res.Job+".pdf")
	c.export(ctx, &res)
	return res
}

func (c *Converter) compile(ctx context.Context, res *types.Result) {
	c.logger.Info("Converting tikz to pdf")
	out, err := c.compiler.Compile(ctx, c.dir, res.Job)
	res.Engine = out.Engine
	res.Status = out.Status
	if err != nil {
		if len(out.Output) > 0 {
			_, _ = c.stdout.Write(out.Output)
		}
		c.fail(res, "ERROR generating pdf file", err)
		return
	}
	c.logger.Info("Successfully generated pdf", "file", res.Job+".pdf", "engine", out.Engine)
}

func (c *Converter) watch(ctx context.Context, res *types.Result) {
	if !c.watcher.Available() {
		c.logger.Warn("Continuous compilation requires " + c.watcher.Bin + " to be on your PATH")
	}
	pdf := filepath.Join(c.dir, res.Job+".pdf")
	if err := os.Remove(pdf); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.fail(res, "Could not remove previous pdf", err)
		return
	}
	c.logger.Info("Watching for changes, press Ctrl-C to stop", "job", res.Job)
	res.Engine = c.watcher.Bin
	if err := c.watcher.Watch(ctx, c.dir, res.Job, c.stdout, c.stderr); err != nil {
		c.fail(res, "ERROR in continuous compilation", err)
		return
	}
	if _, err := os.Stat(pdf); err != nil {
		res.Status = types.StatusSkipped
		c.logger.Warn("No pdf was produced during the session", "job", res.Job)
		return
	}
	res.Status = types.StatusSuccess
}

// export runs every requested post-processor. A failure is recorded and the
// next format is still attempted.
func (c *Converter) export(ctx context.Context, res *types.Result) {
	for _, x := range c.exporters {
		if res.Exports == nil {
			res.Exports = make(map[types.Format]types.Status)
		}
		f := x.Format()
		if ctx.Err() != nil {
			res.Exports[f] = types.StatusSkipped
			continue
		}
		c.logger.Info("Converting pdf to " + string(f))
		if !x.Available() {
			c.logger.Warn("Conversion to " + string(f) + " requires " + x.Tool() + " to be on your PATH")
		}
		name, err := x.Process(ctx, c.dir, res.Job)
		if err != nil {
			res.Exports[f] = types.StatusFailed
			c.record(res, "ERROR generating "+string(f)+" file", err)
			continue
		}
		res.Exports[f] = types.StatusSuccess
		res.Outputs = append(res.Outputs, name)
		c.logger.Info("Successfully generated "+string(f)+" file", "file", name)
	}
}

func (c *Converter) cleanup(job string) {
	c.logger.Info("Deleting temporary files")
	removed, err := Cleanup(c.dir, job)
	if err != nil {
		c.logger.Warn("Could not delete all temporary files", "err", err)
	}
	c.logger.Debug("Temporary files removed", "files", removed)
	c.logger.Info("Done!")
}

func (c *Converter) fail(res *types.Result, msg string, err error) {
	res.Status = types.StatusFailed
	c.record(res, msg, err)
}

func (c *Converter) record(res *types.Result, msg string, err error) {
	res.Errors = append(res.Errors, err.Error())
	c.logger.Error(msg, "file", res.Fragment, "err", err)
}

// Run converts path. A file is converted in the configured mode. A
// directory is walked recursively and every file ending in the configured
// extension is converted once, one after the other. Per-file failures are
// recorded in the result; the error is non-nil only when path itself
// cannot be used.
func (c *Converter) Run(ctx context.Context, path string) (BatchResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return BatchResult{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return BatchResult{}, fmt.Errorf("input %s: %w", path, err)
	}

	if !info.IsDir() {
		var b BatchResult
		b.add(c.ConvertFile(ctx, abs, c.cfg.Mode))
		return b, nil
	}

	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return BatchResult{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	files, err := c.Scan(root)
	if err != nil {
		return BatchResult{}, err
	}
	if c.cfg.Mode == types.ModeContinuous && len(files) > 0 {
		c.logger.Debug("Directory input, compiling each file once")
	}
	c.logger.Info("Scanned directory", "dir", abs, "fragments", len(files))

	var b BatchResult
	for _, f := range files {
		if ctx.Err() != nil {
			c.logger.Warn("Interrupted, skipping remaining files", "remaining", len(files)-b.Total())
			break
		}
		b.add(c.ConvertFile(ctx, f, types.ModeOnce))
	}
	return b, nil
}

// Scan returns the absolute paths of every regular file below dir whose
// name ends in the configured extension, in lexical walk order.
// Unreadable subdirectories are logged and skipped.
func (c *Converter) Scan(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			c.logger.Warn("Skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), c.cfg.Extension) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return files, nil
}

// BatchResult holds the outcome of a run.
type BatchResult struct {
	Converted int
	Failed    int
	Skipped   int
	Results   []types.Result
}

func (r *BatchResult) add(res types.Result) {
	switch {
	case res.Failed():
		r.Failed++
	case res.Status == types.StatusSuccess:
		r.Converted++
	default:
		r.Skipped++
	}
	r.Results = append(r.Results, res)
}

// Total returns the number of fragments processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed + r.Skipped
}

// HasFailures reports whether any fragment failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Summary renders a one-line summary, e.g.
// "2 converted, 1 skipped, 1 failed (total: 4)".
func (r BatchResult) Summary() string {
	return fmt.Sprintf("%d converted, %d skipped, %d failed (total: %d)",
		r.Converted, r.Skipped, r.Failed, r.Total())
}

// FailedFragments lists the fragments that failed, in processing order.
func (r BatchResult) FailedFragments() []string {
	var out []string
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res.Fragment)
		}
	}
	return out
}
