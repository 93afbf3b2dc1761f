// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/wannesvl/tikz-convert/internal/toolchain"
	"github.com/wannesvl/tikz-convert/internal/wrapper"
	"github.com/wannesvl/tikz-convert/pkg/types"
)

const (
	fragmentBody = "\\begin{tikzpicture}\n\\draw (0,0) circle (1);\n\\end{tikzpicture}\n"
	epsProducer  = "%Produced by poppler pdftops version: 22.02.0 (http://poppler.freedesktop.org)\n"
)

// fakeToolchain implements toolchain.Executor by simulating the files each
// external program would write into the command's directory.
type fakeToolchain struct {
	missing map[string]bool   // binary -> LookPath fails and Run cannot launch
	exit    map[string]int    // binary -> nonzero exit code
	output  map[string]string // binary -> text written to stdout
	onWatch func(ctx context.Context)
	// watchNoPDF makes latexmk exit without producing a pdf.
	watchNoPDF bool

	calls    []toolchain.Command
	wrappers map[string]string // job -> wrapper text seen by the engine
}

func (f *fakeToolchain) LookPath(file string) (string, error) {
	if f.missing[file] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeToolchain) Run(ctx context.Context, c toolchain.Command) error {
	f.calls = append(f.calls, c)
	if f.missing[c.Name] {
		return &exec.Error{Name: c.Name, Err: exec.ErrNotFound}
	}
	if out := f.output[c.Name]; out != "" && c.Stdout != nil {
		_, _ = io.WriteString(c.Stdout, out)
	}
	if code := f.exit[c.Name]; code != 0 {
		return &toolchain.ExitError{Name: c.Name, Code: code}
	}

	touch := func(name, content string) error {
		return os.WriteFile(filepath.Join(c.Dir, name), []byte(content), 0o644)
	}
	switch c.Name {
	case "lualatex", "pdflatex":
		job := jobArg(c.Args)
		text, err := os.ReadFile(filepath.Join(c.Dir, c.Args[len(c.Args)-1]))
		if err != nil {
			return err
		}
		if f.wrappers == nil {
			f.wrappers = make(map[string]string)
		}
		f.wrappers[job] = string(text)
		for _, ext := range []string{"pdf", "aux", "log"} {
			if err := touch(job+"."+ext, ext); err != nil {
				return err
			}
		}
	case "latexmk":
		job := c.Args[len(c.Args)-1]
		for _, ext := range []string{"pdf", "aux", "log", "fls", "fdb_latexmk"} {
			if ext == "pdf" && f.watchNoPDF {
				continue
			}
			if err := touch(job+"."+ext, ext); err != nil {
				return err
			}
		}
		if f.onWatch != nil {
			f.onWatch(ctx)
		}
	case "pdftops":
		eps := c.Args[len(c.Args)-1]
		return touch(eps, "%!PS-Adobe-3.0 EPSF-3.0\n"+epsProducer+"%%Creator: test\n%%EOF\n")
	case "convert":
		png := strings.TrimPrefix(c.Args[len(c.Args)-1], "PNG32:")
		return touch(png, "png")
	}
	return nil
}

func (f *fakeToolchain) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

func (f *fakeToolchain) ran(bin string) bool {
	for _, c := range f.calls {
		if c.Name == bin {
			return true
		}
	}
	return false
}

func jobArg(args []string) string {
	for _, a := range args {
		if job, ok := strings.CutPrefix(a, "-jobname="); ok {
			return job
		}
	}
	return ""
}

type harness struct {
	conv   *Converter
	tools  *fakeToolchain
	work   string
	src    string
	log    *bytes.Buffer
	stdout *bytes.Buffer
}

func newHarness(t *testing.T, cfg types.Config, tools *fakeToolchain) *harness {
	t.Helper()
	src, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	h := &harness{
		tools:  tools,
		work:   t.TempDir(),
		src:    src,
		log:    &bytes.Buffer{},
		stdout: &bytes.Buffer{},
	}
	cfg.WorkDir = h.work
	if cfg.Mode == "" {
		cfg.Mode = types.ModeOnce
	}
	conv, err := New(Options{
		Config: cfg,
		Exec:   tools,
		Logger: log.New(h.log),
		Stdout: h.stdout,
		Stderr: io.Discard,
	})
	require.NoError(t, err)
	h.conv = conv
	return h
}

func (h *harness) fragment(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(h.src, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) exists(name string) bool {
	_, err := os.Stat(filepath.Join(h.work, name))
	return err == nil
}

func TestConvertFile_Once(t *testing.T) {
	h := newHarness(t, types.Config{}, &fakeToolchain{})
	frag := h.fragment(t, "fig.tikz", fragmentBody)
	require.NoError(t, os.WriteFile(filepath.Join(h.work, "notes.txt"), []byte("keep"), 0o644))

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, "fig_tikz", res.Job)
	assert.Equal(t, "lualatex", res.Engine)
	assert.Equal(t, string(wrapper.FromDefault), res.PreambleFrom)
	assert.Equal(t, []string{"fig_tikz.pdf"}, res.Outputs)
	assert.Empty(t, res.Errors)
	assert.False(t, res.Failed())

	assert.True(t, h.exists("fig_tikz.pdf"))
	assert.True(t, h.exists("notes.txt"))
	for _, name := range wrapper.TempFiles("fig_tikz") {
		assert.False(t, h.exists(name), "%s should be removed", name)
	}

	assert.Equal(t, []string{"lualatex -halt-on-error -shell-escape -jobname=fig_tikz fig_tikz.tex"}, h.tools.commands())
	assert.Empty(t, h.stdout.String(), "successful compile must not dump the compiler log")

	logged := h.log.String()
	for _, msg := range []string{"Processing file", "Converting tikz to pdf", "Successfully generated pdf", "Deleting temporary files", "Done!"} {
		assert.Contains(t, logged, msg)
	}
}

func TestConvertFile_WrapperContent(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)
	require.Equal(t, types.StatusSuccess, res.Status)

	text := tools.wrappers["fig_tikz"]
	assert.True(t, strings.HasPrefix(text, "\\documentclass{article}\n"))
	assert.Contains(t, text, `\input{"`+filepath.ToSlash(frag)+`"}`)
	assert.False(t, h.exists("fig_tikz.tex"), "wrapper must be removed after the run")
}

func TestConvertFile_CompileFailure(t *testing.T) {
	tools := &fakeToolchain{
		exit:   map[string]int{"lualatex": 1},
		output: map[string]string{"lualatex": "! LaTeX Error: File `tikz-3dplot.sty' not found.\n"},
	}
	h := newHarness(t, types.Config{Formats: types.NewFormatSet(types.FormatEPS, types.FormatPNG)}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.True(t, res.Failed())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "compilation failed")
	assert.Contains(t, h.stdout.String(), "tikz-3dplot.sty' not found")
	assert.Contains(t, h.log.String(), "ERROR generating pdf file")

	// No fallback on a compile error, and no exports without a pdf.
	assert.False(t, tools.ran("pdflatex"))
	assert.False(t, tools.ran("pdftops"))
	assert.False(t, tools.ran("convert"))
	assert.Empty(t, res.Exports)
	assert.False(t, h.exists("fig_tikz.tex"))
	assert.False(t, h.exists("fig_tikz.log"))
}

func TestConvertFile_FallbackEngine(t *testing.T) {
	tools := &fakeToolchain{missing: map[string]bool{"lualatex": true}}
	h := newHarness(t, types.Config{}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, "pdflatex", res.Engine)
	assert.Equal(t, []string{
		"lualatex -halt-on-error -shell-escape -jobname=fig_tikz fig_tikz.tex",
		"pdflatex -halt-on-error -jobname=fig_tikz fig_tikz.tex",
	}, tools.commands())
}

func TestConvertFile_Exports(t *testing.T) {
	tools := &fakeToolchain{}
	cfg := types.Config{Formats: types.NewFormatSet(types.FormatEPS, types.FormatPNG), Density: 600, Fuzz: 5}
	h := newHarness(t, cfg, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, []string{"fig_tikz.pdf", "fig_tikz.eps", "fig_tikz.png"}, res.Outputs)
	assert.Equal(t, map[types.Format]types.Status{
		types.FormatEPS: types.StatusSuccess,
		types.FormatPNG: types.StatusSuccess,
	}, res.Exports)

	assert.Equal(t, []string{
		"lualatex -halt-on-error -shell-escape -jobname=fig_tikz fig_tikz.tex",
		"pdftops -eps fig_tikz.pdf fig_tikz.eps",
		"convert -alpha on -channel rgba -fuzz 5% -transparent white -density 600 fig_tikz.pdf PNG32:fig_tikz.png",
	}, tools.commands())

	eps, err := os.ReadFile(filepath.Join(h.work, "fig_tikz.eps"))
	require.NoError(t, err)
	assert.NotContains(t, string(eps), "Produced by")
	assert.Equal(t, "%!PS-Adobe-3.0 EPSF-3.0\n%%Creator: test\n%%EOF\n", string(eps))
	assert.True(t, h.exists("fig_tikz.png"))
}

func TestConvertFile_EPSFailureDoesNotStopPNG(t *testing.T) {
	tools := &fakeToolchain{missing: map[string]bool{"pdftops": true}}
	cfg := types.Config{Formats: types.NewFormatSet(types.FormatEPS, types.FormatPNG)}
	h := newHarness(t, cfg, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, types.StatusFailed, res.Exports[types.FormatEPS])
	assert.Equal(t, types.StatusSuccess, res.Exports[types.FormatPNG])
	assert.True(t, res.Failed())
	assert.Equal(t, []string{"fig_tikz.pdf", "fig_tikz.png"}, res.Outputs)

	logged := h.log.String()
	assert.Contains(t, logged, "requires pdftops")
	assert.Contains(t, logged, "ERROR generating eps file")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "format conversion failed")
}

func TestConvertFile_MalformedRoot(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	root := h.fragment(t, "main.tex", "\\documentclass{article}\n")
	frag := h.fragment(t, "fig.tikz", "%root="+root+"\n"+fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusFailed, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "incorrect template file")
	assert.Empty(t, tools.calls)
	assert.False(t, h.exists("fig_tikz.tex"))
}

func TestConvertFile_RootOverride(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	root := h.fragment(t, "main.tex", "\\documentclass{book}\n\\begin{document}\n")
	h.conv.cfg.Root = root
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeOnce)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, string(wrapper.FromOverride), res.PreambleFrom)
}

func TestConvertFile_Continuous(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tools := &fakeToolchain{onWatch: func(context.Context) { cancel() }}
	h := newHarness(t, types.Config{Formats: types.NewFormatSet(types.FormatPNG)}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(ctx, frag, types.ModeContinuous)

	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, types.ModeContinuous, res.Mode)
	assert.Equal(t, "latexmk", res.Engine)
	assert.Empty(t, res.Errors)
	// The png export still runs after the session is cancelled.
	assert.Equal(t, types.StatusSuccess, res.Exports[types.FormatPNG])
	assert.Equal(t, []string{
		"latexmk -pdf -pvc fig_tikz",
		"convert -alpha on -channel rgba -fuzz 0% -transparent white -density 300 fig_tikz.pdf PNG32:fig_tikz.png",
	}, tools.commands())
	assert.False(t, h.exists("fig_tikz.fdb_latexmk"))
	assert.False(t, h.exists("fig_tikz.fls"))
	assert.True(t, h.exists("fig_tikz.pdf"))
}

func TestConvertFile_ContinuousIgnoresPreviousPDF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tools := &fakeToolchain{watchNoPDF: true, onWatch: func(context.Context) { cancel() }}
	h := newHarness(t, types.Config{Formats: types.NewFormatSet(types.FormatPNG)}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)
	require.NoError(t, os.WriteFile(filepath.Join(h.work, "fig_tikz.pdf"), []byte("old"), 0o644))

	res := h.conv.ConvertFile(ctx, frag, types.ModeContinuous)

	assert.Equal(t, types.StatusSkipped, res.Status)
	assert.Empty(t, res.Outputs)
	assert.Empty(t, res.Exports)
	assert.False(t, tools.ran("convert"), "a pdf left from an earlier run must not be exported")
	assert.False(t, h.exists("fig_tikz.pdf"))
}

func TestConvertFile_ContinuousMissingWatcher(t *testing.T) {
	tools := &fakeToolchain{missing: map[string]bool{"latexmk": true}}
	h := newHarness(t, types.Config{}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	res := h.conv.ConvertFile(context.Background(), frag, types.ModeContinuous)

	assert.Equal(t, types.StatusFailed, res.Status)
	assert.Contains(t, h.log.String(), "requires latexmk")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "external tool not available")
}

func TestRun_Directory(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{Mode: types.ModeContinuous}, tools)
	h.fragment(t, "a.tikz", fragmentBody)
	h.fragment(t, "b.tikz", fragmentBody)
	h.fragment(t, "c.txt", "not a figure")
	h.fragment(t, "sub/d.tikz", fragmentBody)

	result, err := h.conv.Run(context.Background(), h.src)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Converted)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, result.Total())
	require.Len(t, result.Results, 3)
	for _, r := range result.Results {
		assert.Equal(t, types.ModeOnce, r.Mode, "directory scans always compile once")
		assert.True(t, filepath.IsAbs(r.Fragment))
	}
	assert.False(t, tools.ran("latexmk"))
	assert.Equal(t, []string{
		"lualatex -halt-on-error -shell-escape -jobname=a_tikz a_tikz.tex",
		"lualatex -halt-on-error -shell-escape -jobname=b_tikz b_tikz.tex",
		"lualatex -halt-on-error -shell-escape -jobname=d_tikz d_tikz.tex",
	}, tools.commands())
}

func TestRun_DirectoryContinuesAfterFailure(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	root := h.fragment(t, "bad-root.tex", "\\documentclass{article}\n")
	h.fragment(t, "a.tikz", "%root="+root+"\n"+fragmentBody)
	h.fragment(t, "b.tikz", fragmentBody)

	result, err := h.conv.Run(context.Background(), h.src)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{filepath.Join(h.src, "a.tikz")}, result.FailedFragments())
	assert.Equal(t, "1 converted, 0 skipped, 1 failed (total: 2)", result.Summary())
}

func TestRun_DirectoryStopsWhenCancelled(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	h.fragment(t, "a.tikz", fragmentBody)
	h.fragment(t, "b.tikz", fragmentBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := h.conv.Run(ctx, h.src)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Empty(t, tools.calls)
}

func TestRun_SingleFileUsesConfiguredMode(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{Mode: types.ModeOnce}, tools)
	frag := h.fragment(t, "fig.tikz", fragmentBody)

	result, err := h.conv.Run(context.Background(), frag)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, types.ModeOnce, result.Results[0].Mode)
	assert.Equal(t, 1, result.Converted)
}

func TestRun_RelativePathMadeAbsolute(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	h.fragment(t, "fig.tikz", fragmentBody)
	chdir(t, h.src)

	result, err := h.conv.Run(context.Background(), "fig.tikz")
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, filepath.IsAbs(result.Results[0].Fragment))
	assert.Equal(t, 1, result.Converted)
}

func TestRun_SymlinkedDirectory(t *testing.T) {
	tools := &fakeToolchain{}
	h := newHarness(t, types.Config{}, tools)
	h.fragment(t, "a.tikz", fragmentBody)
	link := filepath.Join(t.TempDir(), "figs")
	if err := os.Symlink(h.src, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	for _, arg := range []string{link, link + string(filepath.Separator)} {
		result, err := h.conv.Run(context.Background(), arg)
		require.NoError(t, err, arg)
		assert.Equal(t, 1, result.Converted, arg)
		assert.Equal(t, 1, result.Total(), arg)
	}
	assert.Len(t, tools.calls, 2)
}

func TestRun_MissingPath(t *testing.T) {
	h := newHarness(t, types.Config{}, &fakeToolchain{})

	_, err := h.conv.Run(context.Background(), filepath.Join(h.src, "missing.tikz"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScan_CustomExtension(t *testing.T) {
	h := newHarness(t, types.Config{Extension: ".pgf"}, &fakeToolchain{})
	h.fragment(t, "a.pgf", fragmentBody)
	h.fragment(t, "b.tikz", fragmentBody)

	files, err := h.conv.Scan(h.src)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(h.src, "a.pgf")}, files)
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	for _, name := range wrapper.TempFiles("fig_tikz") {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	keep := []string{"fig_tikz.pdf", "fig_tikz.eps", "fig_tikz.png", "other_tikz.log", "fig.tikz"}
	for _, name := range keep {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	removed, err := Cleanup(dir, "fig_tikz")
	require.NoError(t, err)
	assert.Equal(t, wrapper.TempFiles("fig_tikz"), removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	assert.ElementsMatch(t, keep, left)
}

func TestCleanup_MissingFilesSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fig_tikz.aux"), nil, 0o644))

	removed, err := Cleanup(dir, "fig_tikz")
	require.NoError(t, err)
	assert.Equal(t, []string{"fig_tikz.aux"}, removed)
}

func TestStripProducerLine(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		want        string
		wantChanged bool
	}{
		{
			name:        "producer line removed",
			content:     "%!PS-Adobe-3.0 EPSF-3.0\n" + epsProducer + "%%BoundingBox: 0 0 10 10\n",
			want:        "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: 0 0 10 10\n",
			wantChanged: true,
		},
		{
			name:    "no producer line",
			content: "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: 0 0 10 10\n%Produced by later line\n",
			want:    "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: 0 0 10 10\n%Produced by later line\n",
		},
		{
			name:        "producer on unterminated last line",
			content:     "%!PS-Adobe-3.0 EPSF-3.0\n%Produced by pdftops",
			want:        "%!PS-Adobe-3.0 EPSF-3.0\n",
			wantChanged: true,
		},
		{
			name:    "single line",
			content: "%!PS-Adobe-3.0 EPSF-3.0",
			want:    "%!PS-Adobe-3.0 EPSF-3.0",
		},
		{
			name:    "empty",
			content: "",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fig_tikz.eps")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			changed, err := StripProducerLine(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestPNGExporterArgs(t *testing.T) {
	x := NewPNGExporter("magick", 150, 10, &fakeToolchain{})
	assert.Equal(t, types.FormatPNG, x.Format())
	assert.Equal(t, "magick", x.Tool())
	assert.Equal(t, []string{
		"-alpha", "on", "-channel", "rgba", "-fuzz", "10%", "-transparent", "white",
		"-density", "150", "fig_tikz.pdf", "PNG32:fig_tikz.png",
	}, x.Args("fig_tikz"))
}

func TestWriteReport(t *testing.T) {
	tools := &fakeToolchain{exit: map[string]int{"lualatex": 1}}
	h := newHarness(t, types.Config{Formats: types.NewFormatSet(types.FormatEPS)}, tools)
	h.fragment(t, "a.tikz", fragmentBody)

	result, err := h.conv.Run(context.Background(), h.src)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	require.NoError(t, WriteReport(path, NewReport(result, h.conv.Config(), h.conv.Dir())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.Equal(t, h.work, got.WorkDir)
	assert.Equal(t, []types.Format{types.FormatPDF, types.FormatEPS}, got.Formats)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "a_tikz", got.Results[0].Job)
	assert.Equal(t, types.StatusFailed, got.Results[0].Status)
	assert.NotEmpty(t, got.GeneratedAt)
	assert.Len(t, got.RunID, 36)
	assert.Contains(t, string(data), "status: failed")
	assert.Contains(t, fmt.Sprint(got.Results[0].Errors), "compilation failed")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
