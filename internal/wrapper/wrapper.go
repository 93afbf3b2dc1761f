// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wrapper synthesizes the LaTeX document that compiles a TikZ
// fragment on its own, and derives the job name shared by every file the
// compiler writes for it.
package wrapper

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wannesvl/tikz-convert/internal/preamble"
)

// jobSuffix is appended to the fragment base name to form the job name.
const jobSuffix = "_tikz"

// packages is the fixed block appended to every preamble. It loads enough
// of TikZ/PGFPlots to typeset arbitrary figures and crops the page to the
// picture.
var packages = []string{
	`\usepackage{tikz,pgfplots,amsmath,amssymb,siunitx}`,
	`\usetikzlibrary{arrows,decorations,backgrounds,patterns,matrix,shapes,fit,calc,shadows,plotmarks,intersections,positioning,through,pgfplots.groupplots,3d}`,
	`\pgfplotsset{compat=newest}`,
	`\usepackage[graphics, tightpage, active]{preview}`,
	`\usepackage{tikz-3dplot}`,
	`\PreviewEnvironment{tikzpicture}`,
}

// tempExtensions lists the auxiliary files the compiler and latexmk may
// leave behind, plus the wrapper itself.
var tempExtensions = []string{
	"tex", "aux", "bcf", "fls", "idx", "ind", "lof", "lot",
	"out", "toc", "fdb_latexmk", "run.xml", "log", "pyg",
}

// Source says where a document's preamble came from.
type Source string

const (
	FromOverride  Source = "override"
	FromDirective Source = "directive"
	FromDefault   Source = "default"
)

// Document is a synthesized wrapper ready to be written and compiled.
type Document struct {
	// Job is the compiler job name, e.g. "fig_tikz".
	Job string
	// Fragment is the absolute path of the wrapped fragment.
	Fragment string
	// Root is the root document the preamble came from, if any.
	Root         string
	PreambleFrom Source
	// Text is the complete LaTeX source.
	Text string
}

// TexFile returns the wrapper file name, "<job>.tex".
func (d Document) TexFile() string {
	return d.Job + ".tex"
}

// Write stores the document as <job>.tex in dir and returns its path.
func (d Document) Write(dir string) (string, error) {
	path := filepath.Join(dir, d.TexFile())
	if err := os.WriteFile(path, []byte(d.Text), 0o644); err != nil {
		return "", fmt.Errorf("writing wrapper %s: %w", path, err)
	}
	return path, nil
}

// JobName derives the job name from a fragment path: the base name up to
// its first dot, plus "_tikz". "/figs/fig.tikz" becomes "fig_tikz".
func JobName(fragment string) string {
	base, _, _ := strings.Cut(filepath.Base(fragment), ".")
	return base + jobSuffix
}

// TempFiles returns the names of all temporary files for job, the wrapper
// included.
func TempFiles(job string) []string {
	names := make([]string, len(tempExtensions))
	for i, ext := range tempExtensions {
		names[i] = job + "." + ext
	}
	return names
}

// Synthesize builds the wrapper document for fragment. The preamble comes
// from, in order: rootOverride when non-empty, a %root= directive on the
// fragment's first line, or the default article class. Relative root paths
// are resolved against the process working directory.
func Synthesize(fragment, rootOverride string) (Document, error) {
	abs, err := filepath.Abs(fragment)
	if err != nil {
		return Document{}, fmt.Errorf("resolving %s: %w", fragment, err)
	}

	doc := Document{
		Job:          JobName(abs),
		Fragment:     abs,
		PreambleFrom: FromDefault,
	}

	root := rootOverride
	if root != "" {
		doc.PreambleFrom = FromOverride
	} else {
		first, err := firstLine(abs)
		if err != nil {
			return Document{}, err
		}
		if r, ok := preamble.ParseRootDirective(first); ok {
			root = r
			doc.PreambleFrom = FromDirective
		}
	}

	head := preamble.Default
	if root != "" {
		if doc.Root, err = filepath.Abs(root); err != nil {
			return Document{}, fmt.Errorf("resolving root %s: %w", root, err)
		}
		if head, err = preamble.Resolve(doc.Root); err != nil {
			return Document{}, err
		}
	}

	doc.Text = Render(head, abs)
	return doc, nil
}

// Render assembles the wrapper text from a preamble and the fragment path.
// Backslashes in the path become forward slashes and the path is quoted.
func Render(head, fragment string) string {
	lines := make([]string, 0, len(packages)+5)
	if head != "" {
		lines = append(lines, head)
	}
	lines = append(lines, packages...)
	lines = append(lines,
		preamble.BeginDocument,
		fmt.Sprintf(`\input{"%s"}`, strings.ReplaceAll(fragment, `\`, "/")),
		`\end{document}`,
	)
	return strings.Join(lines, "\n") + "\n"
}

func firstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening fragment %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading fragment %s: %w", path, err)
	}
	return line, nil
}
