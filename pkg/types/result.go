// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Result records the outcome of converting one fragment.
type Result struct {
	// Fragment is the absolute path of the input file.
	Fragment string `json:"fragment" yaml:"fragment"`

	// Job is the compiler job name derived from the fragment (e.g. "fig_tikz").
	Job string `json:"job" yaml:"job"`

	Mode Mode `json:"mode" yaml:"mode"`

	// PreambleFrom says where the preamble came from: override, directive or default.
	PreambleFrom string `json:"preamble_from,omitempty" yaml:"preamble_from,omitempty"`

	// Engine is the LaTeX binary that actually ran.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Status is the PDF compilation status.
	Status Status `json:"status" yaml:"status"`

	// Exports holds the status of each derived format (eps, png).
	Exports map[Format]Status `json:"exports,omitempty" yaml:"exports,omitempty"`

	// Outputs lists the image files produced, relative to the work directory.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	// Errors holds one message per failed step.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Failed reports whether compilation or any requested export failed.
func (r Result) Failed() bool {
	if r.Status == StatusFailed {
		return true
	}
	for _, s := range r.Exports {
		if s == StatusFailed {
			return true
		}
	}
	return false
}
