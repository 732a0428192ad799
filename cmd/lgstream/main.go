// Command lgstream parses a recorded graph runtime stream and prints the
// normalized events.
//
// Usage:
//
//	lgstream parse run.jsonl
//	cat run.jsonl | lgstream parse --mode multi --format json
//	lgstream parse --config lgstream.yaml --state-updates run.jsonl
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lgstream",
		Short: "Normalize graph runtime streams",
		Long: `lgstream reads the chunks a graph runtime streamed, one JSON value per line,
and prints the content, tool call, interrupt and usage events they describe.`,
		SilenceUsage: true,
	}
	root.AddCommand(newParseCmd(), newChatCmd())
	return root
}

// newLogger returns a text logger on w. Debug records are kept only when
// verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
