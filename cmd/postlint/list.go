package main

import (
	"context"
	"encoding/json"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/report"
)

var (
	listJSON       bool
	filterTag      string
	filterCategory string
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the posts of the site",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(cmd.Context(), cmd.OutOrStdout(), args); err != nil {
			fatal("Error listing posts", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterTag, "tag", "", "Only posts with this tag")
	listCmd.Flags().StringVar(&filterCategory, "category", "", "Only posts in this category")
}

func runList(ctx context.Context, w io.Writer, args []string) error {
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
	posts, err := svc.Posts(ctx)
	if err != nil {
		return err
	}

	filtered := make([]core.Post, 0, len(posts))
	for _, p := range posts {
		if filterTag != "" && !slices.Contains(p.FrontMatter.Tags, filterTag) {
			continue
		}
		if filterCategory != "" && !slices.Contains(p.FrontMatter.Categories, filterCategory) {
			continue
		}
		filtered = append(filtered, p)
	}

	if listJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(filtered)
	}
	return report.Posts(w, filtered)
}
