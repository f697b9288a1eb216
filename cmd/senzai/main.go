// Package main is the entry point for the senzai CLI.
//
// senzai sends one HTTP HEAD request per second to a URL and prints the
// round-trip latency of each, after discarding a warm-up request.
//
// Usage:
//
//	senzai -t 10 -u https://example.com     # print ten latency samples
//	senzai -c run.yaml                      # take url/intervals from a file
//	senzai validate -c run.yaml             # check a run file
//	senzai version                          # show version info
//
// Exit codes:
//
//	0 - all measurements printed
//	1 - invalid argument, config error or request failure
//	2 - a required argument is missing
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError reports a missing required argument. Its message and the usage
// line have already been printed when it is returned.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

// newRootCmd builds the command tree. A fresh tree per invocation keeps flag
// state from leaking between runs in tests.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "senzai",
		Short: "Sample the HTTP HEAD latency of a URL",
		Long: `senzai measures the round-trip latency of HTTP HEAD requests to a URL.

Once per second it sends a HEAD request and times it. The first request only
warms up the connection (DNS, TCP and TLS setup) and is not reported. Each of
the next <interval> requests prints one line:

  latency: 42 ms

Any HTTP status counts as a measurement. A transport failure (DNS error,
refused connection, TLS error, timeout) stops the run with exit code 1.

Example:
  senzai -t 10 -u https://example.com
  senzai -t 5 -u https://example.com --timeout 3s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMeasure,
	}

	bindMeasureFlags(root.Flags())

	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this senzai binary.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "senzai %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return reportError(stderr, err)
	}
	return exitOK
}

// reportError prints err (unless it was already reported) and maps it to an
// exit code.
func reportError(w io.Writer, err error) int {
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return exitFailure
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
