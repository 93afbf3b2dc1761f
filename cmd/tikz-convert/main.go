// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tikz-convert CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wannesvl/tikz-convert/internal/convert"
	"github.com/wannesvl/tikz-convert/internal/toolchain"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd converts the file or directory given as its only argument.
var rootCmd = &cobra.Command{
	Use:   "tikz-convert [flags] <file-or-directory>",
	Short: "Compile TikZ fragments into PDF, EPS and PNG images",
	Long: `tikz-convert wraps a standalone TikZ fragment in a LaTeX document,
compiles it and crops the result to the picture. The preamble comes from
--root, from a "%root=<path>" directive on the fragment's first line, or
defaults to the article class.

Given a file, tikz-convert watches it with latexmk and recompiles on every
change until interrupted; pass --once to compile a single time. Given a
directory, every *.tikz file below it is compiled once.

--eps and --png additionally derive EPS (pdftops) and transparent PNG
(ImageMagick convert) images from the PDF.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: tikz-convert.yaml in . or ~/.config/tikz-convert)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	addConvertFlags(rootCmd.Flags())

	if err := bindFlags(viper.GetViper(), rootCmd.Flags(), rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := configureViper(viper.GetViper(), cfgFile)
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "warning: could not read config: %v\n", err)
	case used != "":
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

// executor runs the external tools.
var executor toolchain.Executor = toolchain.DefaultExecutor

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return convertPath(ctx, viper.GetViper(), cmd.OutOrStdout(), args[0])
}

// convertPath converts path with the configuration held in v and prints the
// summary to out. Per-file failures are an error only with --strict.
func convertPath(ctx context.Context, v *viper.Viper, out io.Writer, path string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if v.GetBool("verbose") {
		level = log.DebugLevel
	}
	logger := newLogger(os.Stderr, level)

	conv, err := convert.New(convert.Options{Config: cfg, Exec: executor, Logger: logger})
	if err != nil {
		return err
	}

	p := newProgress(logger)
	result, err := conv.Run(ctx, path)
	if err != nil {
		return err
	}
	p.done("Finished")
	printSummary(out, result)

	if report := v.GetString("report"); report != "" {
		if err := convert.WriteReport(report, convert.NewReport(result, conv.Config(), conv.Dir())); err != nil {
			return err
		}
		logger.Info("Wrote report", "file", report)
	}

	if v.GetBool("strict") && result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
