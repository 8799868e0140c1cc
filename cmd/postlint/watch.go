package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/report"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-lint the site whenever a post changes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runWatch(ctx, cmd.OutOrStdout(), args); err != nil {
			fatal("Error watching posts", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "", "Only react to files matching this glob (e.g. _posts/**)")
}

func runWatch(ctx context.Context, w io.Writer, args []string) error {
	path, err := sitePath(args)
	if err != nil {
		return err
	}
	onError := func(err error) {
		slog.Warn("watcher error", "error", err)
	}

	fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", path)
	return postlint.WatchLint(ctx, path, watchPattern, func(r core.Report, err error) {
		fmt.Fprintf(w, "\n[%s]\n", time.Now().Format(time.TimeOnly))
		if err != nil {
			fmt.Fprintf(w, "lint failed: %v\n", err)
			return
		}
		if err := report.Text(w, r, report.Options{}); err != nil {
			slog.Error("failed to print report", "error", err)
		}
	}, siteOptions(postlint.WithWatcherErrorHandler(onError))...)
}
