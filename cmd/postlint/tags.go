package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
	"github.com/aretw0/postlint/pkg/report"
)

var tagsJSON bool

var tagsCmd = &cobra.Command{
	Use:   "tags [path]",
	Short: "List posts grouped by category and tag",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTags(cmd.Context(), cmd.OutOrStdout(), args); err != nil {
			fatal("Error indexing posts", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Output in JSON format")
}

func runTags(ctx context.Context, w io.Writer, args []string) error {
	path, err := sitePath(args)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := postlint.New(path, siteOptions()...)
	if err != nil {
		return err
	}
	idx, err := svc.Index(ctx)
	if err != nil {
		return err
	}
	if tagsJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(idx)
	}
	return report.Index(w, idx)
}
