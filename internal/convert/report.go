// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/wannesvl/tikz-convert/pkg/types"
)

// Report is the YAML document written by WriteReport.
type Report struct {
	RunID       string         `yaml:"run_id"`
	GeneratedAt string         `yaml:"generated_at"`
	WorkDir     string         `yaml:"work_dir"`
	Formats     []types.Format `yaml:"formats"`
	Converted   int            `yaml:"converted"`
	Skipped     int            `yaml:"skipped"`
	Failed      int            `yaml:"failed"`
	Results     []types.Result `yaml:"results"`
}

// NewReport builds a Report for a finished run.
func NewReport(b BatchResult, cfg types.Config, workDir string) Report {
	return Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		WorkDir:     workDir,
		Formats:     cfg.Formats.List(),
		Converted:   b.Converted,
		Skipped:     b.Skipped,
		Failed:      b.Failed,
		Results:     b.Results,
	}
}

// WriteReport marshals r as YAML to path, creating parent directories.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
