// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wannesvl/tikz-convert/internal/toolchain"
	"github.com/wannesvl/tikz-convert/pkg/types"
)

// ErrConversion wraps every EPS or PNG export failure.
var ErrConversion = errors.New("format conversion failed")

// producerSignature marks the metadata line some pdftops versions put on
// the second line of an EPS file.
var producerSignature = []byte("Produced by")

// PostProcessor derives another format from <job>.pdf once it exists.
type PostProcessor interface {
	// Format is the format this step produces.
	Format() types.Format
	// Tool is the external program the step needs.
	Tool() string
	// Available reports whether Tool is on PATH.
	Available() bool
	// Process writes the derived file into dir and returns its name.
	Process(ctx context.Context, dir, job string) (string, error)
}

// EPSExporter converts the PDF with pdftops and strips its producer line.
type EPSExporter struct {
	runner *toolchain.Runner
}

// NewEPSExporter returns an exporter that runs bin (normally pdftops).
func NewEPSExporter(bin string, e toolchain.Executor) *EPSExporter {
	return &EPSExporter{runner: toolchain.NewRunner(bin, e)}
}

func (x *EPSExporter) Format() types.Format { return types.FormatEPS }
func (x *EPSExporter) Tool() string         { return x.runner.Bin }
func (x *EPSExporter) Available() bool      { return x.runner.Available() }

// Process runs pdftops -eps <job>.pdf <job>.eps in dir.
func (x *EPSExporter) Process(ctx context.Context, dir, job string) (string, error) {
	pdf, eps := job+".pdf", job+".eps"
	if err := x.runner.Run(ctx, dir, nil, "-eps", pdf, eps); err != nil {
		return "", fmt.Errorf("%w: eps: %w", ErrConversion, err)
	}
	if _, err := StripProducerLine(filepath.Join(dir, eps)); err != nil {
		return "", fmt.Errorf("%w: eps: %w", ErrConversion, err)
	}
	return eps, nil
}

// StripProducerLine deletes the second line of the file at path when it
// contains "Produced by", so repeated exports of the same figure are
// byte-identical. Any other file is left untouched. It reports whether the
// file was rewritten.
func StripProducerLine(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	first := bytes.IndexByte(data, '\n')
	if first < 0 {
		return false, nil
	}
	rest := data[first+1:]
	end := bytes.IndexByte(rest, '\n') + 1
	if end == 0 {
		end = len(rest)
	}
	if !bytes.Contains(rest[:end], producerSignature) {
		return false, nil
	}

	out := make([]byte, 0, len(data)-end)
	out = append(out, data[:first+1]...)
	out = append(out, rest[end:]...)
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// PNGExporter rasterizes the PDF with ImageMagick into a 32-bit RGBA PNG,
// turning white (within Fuzz percent) transparent.
type PNGExporter struct {
	runner  *toolchain.Runner
	Density int
	Fuzz    int
}

// NewPNGExporter returns an exporter that runs bin (normally convert).
func NewPNGExporter(bin string, density, fuzz int, e toolchain.Executor) *PNGExporter {
	return &PNGExporter{runner: toolchain.NewRunner(bin, e), Density: density, Fuzz: fuzz}
}

func (x *PNGExporter) Format() types.Format { return types.FormatPNG }
func (x *PNGExporter) Tool() string         { return x.runner.Bin }
func (x *PNGExporter) Available() bool      { return x.runner.Available() }

// Args returns the convert arguments for job.
func (x *PNGExporter) Args(job string) []string {
	return []string{
		"-alpha", "on",
		"-channel", "rgba",
		"-fuzz", strconv.Itoa(x.Fuzz) + "%",
		"-transparent", "white",
		"-density", strconv.Itoa(x.Density),
		job + ".pdf",
		"PNG32:" + job + ".png",
	}
}

// Process runs convert in dir.
func (x *PNGExporter) Process(ctx context.Context, dir, job string) (string, error) {
	if err := x.runner.Run(ctx, dir, nil, x.Args(job)...); err != nil {
		return "", fmt.Errorf("%w: png: %w", ErrConversion, err)
	}
	return job + ".png", nil
}
