package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/wiauxb/sigh/pkg/sigh"
)

// Config holds the application configuration.
type Config struct {
	Debug   bool
	NoColor bool
	File    string
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "sigh [flags] file",
		Short: "Sigh language interpreter",
		Long: `Sigh is a small statically-typed scripting language with first-class
matrices, generic functions, implicit vectorization and pattern matching.`,
		Example: `  # Run a Sigh script
  sigh script.si

  # Run with debug logging enabled
  sigh --debug script.si`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.File = args[0]
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&cfg.NoColor, "no-color", false, "Disable ANSI styling of diagnostics")

	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	// Resolve project configuration, walking up from the current working
	// directory; flags take precedence.
	cwd, _ := os.Getwd()
	configPath, project, err := sigh.FindProjectConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", configPath, err)
	}

	debug := cfg.Debug || (project != nil && project.Debug)
	color := project.ColorEnabled() && !cfg.NoColor

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	if configPath != "" {
		slog.Debug("using project config", "path", configPath)
	}

	return sigh.RunFile(cfg.File, color)
}
