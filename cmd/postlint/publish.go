package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
)

var publishCmd = &cobra.Command{
	Use:   "publish [path]",
	Short: "Mark the current posts as published",
	Long: `Record the content hash of every post without errors in the publish
ledger (.postlint/published.json). Later checks warn when a published post
changes. Posts already in the ledger keep their original entry.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPublish(cmd.Context(), cmd.OutOrStdout(), args); err != nil {
			fatal("Error publishing posts", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(ctx context.Context, w io.Writer, args []string) error {
	path, err := sitePath(args)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	added, err := postlint.Publish(ctx, path, siteOptions()...)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		fmt.Fprintln(w, "No new posts to publish.")
		return nil
	}
	for _, id := range added {
		fmt.Fprintf(w, "published %s\n", id)
	}
	fmt.Fprintf(w, "Recorded %d posts.\n", len(added))
	return nil
}
