// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preamble extracts the LaTeX preamble from a root document and
// recognizes the %root= directive that lets a fragment borrow one.
package preamble

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// BeginDocument marks the start of the document body. It is matched as a
	// plain substring, not parsed.
	BeginDocument = `\begin{document}`

	// Default is used when a fragment names no root document.
	Default = `\documentclass{article}`

	directive = "%root="
)

// ErrMalformedRoot is returned when a root document has no body marker.
var ErrMalformedRoot = errors.New("incorrect template file: no " + BeginDocument)

// Resolve reads the root document at path and returns its preamble: every
// line before the one holding \begin{document}, with comments stripped,
// surrounding whitespace trimmed and empty lines dropped, joined by "\n".
func Resolve(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening root document %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(StripComment(sc.Text()))
		if strings.Contains(line, BeginDocument) {
			return strings.Join(lines, "\n"), nil
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading root document %s: %w", path, err)
	}
	return "", fmt.Errorf("%s: %w", path, ErrMalformedRoot)
}

// StripComment removes a LaTeX line comment: everything from the first
// unescaped % to the end of the line. An escaped \% is kept.
func StripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++ // skip the escaped character
		case '%':
			return line[:i]
		}
	}
	return line
}

// ParseRootDirective looks for a %root=<path> directive in the first line of
// a fragment. Spaces anywhere in the directive keyword are ignored, so
// "% root = ../main.tex" is accepted. It returns the trimmed path and true
// when a directive is present.
func ParseRootDirective(line string) (string, bool) {
	compact := strings.Join(strings.Fields(line), "")
	if !strings.Contains(compact, directive) {
		return "", false
	}
	_, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
