package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jpalmerr/senzai"
	"github.com/jpalmerr/senzai/config"
)

const (
	usageLine       = "usage: senzai -t <interval in seconds> -u <url>"
	defaultLogLevel = "warn"
)

// newLogger creates a JSON logger for CLI diagnostics. Measurements go to
// stdout; everything logged here goes to w (stderr).
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func bindMeasureFlags(fs *pflag.FlagSet) {
	fs.IntP("intervals", "t", 0, "number of measurements to print after the warm-up (required)")
	fs.StringP("url", "u", "", "absolute URL to send HEAD requests to (required)")
	fs.StringP("config", "c", "", "path to a YAML run file; flags override its values")
	fs.Duration("timeout", 0, "per-request timeout, 0 waits for the server indefinitely")
	fs.String("log-level", defaultLogLevel, "diagnostics level on stderr: debug, info, warn or error")
}

// printUsage reports a missing required argument on stdout.
func printUsage(cmd *cobra.Command, msg string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "error: %s\n", msg)
	fmt.Fprintln(out, usageLine)
	return &usageError{msg: msg}
}

// applyFlags overlays flags given on the command line onto cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("intervals") {
		n, err := fs.GetInt("intervals")
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("invalid interval %d: must be a positive integer", n)
		}
		cfg.Intervals = n
	}

	if fs.Changed("url") {
		u, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.URL = u
	}

	if fs.Changed("timeout") {
		d, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("invalid timeout %s: cannot be negative", d)
		}
		cfg.Timeout = config.Duration(d)
	}

	if fs.Changed("log-level") || cfg.LogLevel == "" {
		level, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		if _, err := config.ParseLogLevel(level); err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	return nil
}

func runMeasure(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return err
	}

	if cfg.Intervals == 0 {
		return printUsage(cmd, "missing interval argument")
	}
	if cfg.URL == "" {
		return printUsage(cmd, "missing url argument")
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	opts := append(config.Options(cfg),
		senzai.WithOutput(cmd.OutOrStdout()),
		senzai.WithLogger(logger),
	)

	checker, err := senzai.New(cfg.URL, cfg.Intervals, opts...)
	if err != nil {
		return err
	}

	logger.Debug("configuration resolved",
		"url", checker.URL(),
		"intervals", checker.Intervals(),
		"timeout", checker.Timeout().String(),
	)

	return checker.Run(cmd.Context())
}
