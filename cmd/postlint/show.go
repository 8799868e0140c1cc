package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/report"
)

var (
	showJSON bool
	showPath string
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one post's front matter, links and findings",
	Long: `Show one post by its ID: the path relative to the site root, with or
without the file extension (e.g. _posts/2024-05-01-hello).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runShow(cmd.Context(), cmd.OutOrStdout(), args[0]); err != nil {
			fatal("Error showing post", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().StringVar(&showPath, "path", "", "Site directory (default: the site root above the working directory)")
}

type shownPost struct {
	Post     core.Post      `json:"post"`
	Findings []core.Finding `json:"findings"`
}

func runShow(ctx context.Context, w io.Writer, id string) error {
	var args []string
	if showPath != "" {
		args = []string{showPath}
	}
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

	p, err := svc.Post(ctx, id)
	if err != nil {
		return err
	}
	// Duplicates are only visible across posts, so lint the whole site.
	r, err := svc.Lint(ctx)
	if err != nil {
		return err
	}
	findings := r.ForPost(p.ID)

	if showJSON {
		if findings == nil {
			findings = []core.Finding{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(shownPost{Post: p, Findings: findings})
	}
	return report.Post(w, p, findings)
}
