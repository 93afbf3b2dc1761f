// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/wannesvl/tikz-convert/internal/convert"
)

var (
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorDim   = lipgloss.Color("240")

	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
)

// printSummary writes the produced files and a one-line summary of the run.
// Failed fragments are listed by path.
func printSummary(w io.Writer, r convert.BatchResult) {
	for _, res := range r.Results {
		for _, out := range res.Outputs {
			fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+out)
		}
	}
	for _, frag := range r.FailedFragments() {
		fmt.Fprintln(w, styleError.Render(iconError)+" "+frag)
	}
	icon := styleSuccess.Render(iconSuccess)
	if r.HasFailures() {
		icon = styleError.Render(iconError)
	}
	fmt.Fprintln(w, icon+" "+r.Summary())
}
