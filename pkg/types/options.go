// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

const (
	DefaultDensity   = 300
	DefaultFuzz      = 5
	DefaultExtension = ".tikz"
)

// ToolsConfig names the external executables. Empty fields fall back to the
// defaults returned by DefaultTools.
type ToolsConfig struct {
	// Engine is the primary LaTeX engine, run with -shell-escape.
	Engine string `json:"engine" yaml:"engine"`

	// FallbackEngine is used only when Engine cannot be launched.
	FallbackEngine string `json:"fallback_engine" yaml:"fallback_engine"`

	// Watcher is the continuous-build tool (latexmk).
	Watcher string `json:"watcher" yaml:"watcher"`

	// PDFToPS converts PDF to EPS.
	PDFToPS string `json:"pdftops" yaml:"pdftops"`

	// Convert is the ImageMagick raster converter.
	Convert string `json:"convert" yaml:"convert"`
}

// DefaultTools returns the stock tool names.
func DefaultTools() ToolsConfig {
	return ToolsConfig{
		Engine:         "lualatex",
		FallbackEngine: "pdflatex",
		Watcher:        "latexmk",
		PDFToPS:        "pdftops",
		Convert:        "convert",
	}
}

// WithDefaults fills empty fields from DefaultTools.
func (t ToolsConfig) WithDefaults() ToolsConfig {
	d := DefaultTools()
	if t.Engine == "" {
		t.Engine = d.Engine
	}
	if t.FallbackEngine == "" {
		t.FallbackEngine = d.FallbackEngine
	}
	if t.Watcher == "" {
		t.Watcher = d.Watcher
	}
	if t.PDFToPS == "" {
		t.PDFToPS = d.PDFToPS
	}
	if t.Convert == "" {
		t.Convert = d.Convert
	}
	return t
}

// Config holds everything one conversion run needs. It is built once by the
// CLI and passed down explicitly.
type Config struct {
	// Mode selects once or continuous compilation. Directory scans always
	// use ModeOnce.
	Mode Mode `json:"mode" yaml:"mode"`

	// Formats lists the requested outputs; pdf is always included.
	Formats FormatSet `json:"-" yaml:"-"`

	// Density is the PNG raster density in dpi (default 300).
	Density int `json:"density" yaml:"density"`

	// Fuzz is the color-key tolerance in percent used to make white
	// transparent in PNG output. The CLI defaults it to 5; a negative value
	// also means 5.
	Fuzz int `json:"fuzz" yaml:"fuzz"`

	// Root is an explicit root document overriding any %root= directive.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Extension is the fragment suffix matched during directory scans.
	Extension string `json:"extension" yaml:"extension"`

	// WorkDir is where the wrapper, auxiliary files and outputs are written.
	// Empty means the process working directory.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`

	Tools ToolsConfig `json:"tools" yaml:"tools"`
}

// WithDefaults returns a copy of c with unset fields replaced by defaults.
// Density is unset when not positive. Fuzz is unset only when negative;
// 0 keeps only exact white transparent.
func (c Config) WithDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeContinuous
	}
	formats := NewFormatSet()
	for f, on := range c.Formats {
		if on {
			formats[f] = true
		}
	}
	c.Formats = formats
	if c.Density <= 0 {
		c.Density = DefaultDensity
	}
	if c.Fuzz < 0 {
		c.Fuzz = DefaultFuzz
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	c.Tools = c.Tools.WithDefaults()
	return c
}
