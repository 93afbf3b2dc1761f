// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wannesvl/tikz-convert/pkg/types"
)

const envPrefix = "TIKZ_CONVERT"

// flagKeys maps command-line flags to their viper keys.
var flagKeys = map[string]string{
	"once":    "once",
	"eps":     "eps",
	"png":     "png",
	"density": "density",
	"fuzz":    "fuzz",
	"root":    "root",
	"ext":     "extension",
	"report":  "report",
	"strict":  "strict",
	"verbose": "verbose",
}

func addConvertFlags(f *pflag.FlagSet) {
	f.BoolP("once", "o", false, "only convert once, then clean up temporary files and quit")
	f.BoolP("eps", "e", false, "also produce an EPS image (requires pdftops)")
	f.BoolP("png", "p", false, "also produce a transparent PNG image (requires ImageMagick convert)")
	f.IntP("density", "d", types.DefaultDensity, "resolution of the PNG image in dpi")
	f.StringP("root", "r", "", "root document whose preamble the fragment uses")
	f.Int("fuzz", types.DefaultFuzz, "tolerance in percent when making white transparent in PNG output")
	f.String("ext", types.DefaultExtension, "fragment extension matched when scanning a directory")
	f.String("report", "", "write a YAML report of the run to this file")
	f.Bool("strict", false, "exit with an error when any file fails")
}

// bindFlags binds every known flag found in sets to its viper key.
func bindFlags(v *viper.Viper, sets ...*pflag.FlagSet) error {
	for name, key := range flagKeys {
		for _, set := range sets {
			fl := set.Lookup(name)
			if fl == nil {
				continue
			}
			if err := v.BindPFlag(key, fl); err != nil {
				return fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}
	return nil
}

// configureViper sets up the config file search and environment lookup, then
// reads the config. It returns the file used, or "" when none was found.
func configureViper(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tikz-convert")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tikz-convert"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

// loadConfig assembles the run configuration from v. Flags win over the
// environment, which wins over the config file.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		Mode:      types.ModeContinuous,
		Density:   v.GetInt("density"),
		Fuzz:      v.GetInt("fuzz"),
		Root:      v.GetString("root"),
		Extension: v.GetString("extension"),
		WorkDir:   v.GetString("work_dir"),
	}
	if v.GetBool("once") {
		cfg.Mode = types.ModeOnce
	}

	var extra []types.Format
	for _, name := range v.GetStringSlice("formats") {
		f, err := types.ParseFormat(name)
		if err != nil {
			return cfg, fmt.Errorf("config key formats: %w", err)
		}
		extra = append(extra, f)
	}
	if v.GetBool("eps") {
		extra = append(extra, types.FormatEPS)
	}
	if v.GetBool("png") {
		extra = append(extra, types.FormatPNG)
	}
	cfg.Formats = types.NewFormatSet(extra...)

	cfg.Tools = types.ToolsConfig{
		Engine:         v.GetString("tools.engine"),
		FallbackEngine: v.GetString("tools.fallback_engine"),
		Watcher:        v.GetString("tools.watcher"),
		PDFToPS:        v.GetString("tools.pdftops"),
		Convert:        v.GetString("tools.convert"),
	}

	if cfg.Density <= 0 {
		return cfg, fmt.Errorf("density must be positive, got %d", cfg.Density)
	}
	if cfg.Fuzz < 0 || cfg.Fuzz > 100 {
		return cfg, fmt.Errorf("fuzz must be between 0 and 100, got %d", cfg.Fuzz)
	}
	if cfg.Extension == "" {
		cfg.Extension = types.DefaultExtension
	}
	return cfg, nil
}
