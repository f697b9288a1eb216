package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/senzai/config"
)

// newValidateCmd validates a run file without sending any request.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run file",
		Long: `Validate a senzai run file without measuring anything.

This command parses the YAML, expands environment variables in the url, and
validates all fields.

Exit codes:
  0 - Run file is valid
  1 - Run file is invalid (error details printed to stderr)

Example:
  senzai validate -c run.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to run file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  URL:       %s\n", valueOr(cfg.URL, "(not set, use -u)"))
	fmt.Fprintf(out, "  Intervals: %s\n", valueOr(intString(cfg.Intervals), "(not set, use -t)"))
	fmt.Fprintf(out, "  Timeout:   %s\n", valueOr(durationString(cfg.Timeout), "none"))
	fmt.Fprintf(out, "  Log level: %s\n", valueOr(cfg.LogLevel, defaultLogLevel))

	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func intString(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}

func durationString(d config.Duration) string {
	if d == 0 {
		return ""
	}
	return d.Duration().String()
}
