// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Format identifies an output image format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatEPS Format = "eps"
	FormatPNG Format = "png"
)

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatEPS, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want pdf, eps or png)", s)
}

// FormatSet is the set of requested output formats. PDF is always produced;
// the set records the extra formats derived from it.
type FormatSet map[Format]bool

// NewFormatSet returns a set holding pdf plus the given formats.
func NewFormatSet(extra ...Format) FormatSet {
	s := FormatSet{FormatPDF: true}
	for _, f := range extra {
		s[f] = true
	}
	return s
}

// Has reports whether f was requested.
func (s FormatSet) Has(f Format) bool {
	return s[f]
}

// List returns the requested formats in pdf, eps, png order.
func (s FormatSet) List() []Format {
	var out []Format
	for _, f := range []Format{FormatPDF, FormatEPS, FormatPNG} {
		if s[f] {
			out = append(out, f)
		}
	}
	return out
}

// String implements fmt.Stringer, e.g. "pdf,eps".
func (s FormatSet) String() string {
	list := s.List()
	parts := make([]string, len(list))
	for i, f := range list {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// Mode selects single-shot or continuous compilation.
type Mode string

const (
	// ModeOnce compiles once, post-processes and cleans up.
	ModeOnce Mode = "once"
	// ModeContinuous runs a watch-and-rebuild loop until cancelled.
	ModeContinuous Mode = "continuous"
)

// Status is the state of one step of a conversion.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusCompiling  Status = "compiling"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)
