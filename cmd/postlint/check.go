package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
	"github.com/aretw0/postlint/pkg/core"
	"github.com/aretw0/postlint/pkg/report"
)

var (
	checkFormat  string
	checkFailOn  string
	checkNoCache bool
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Lint every post of the site",
	Long: `Lint every post of the site and print the findings.
Exits with status 1 when a finding at or above --fail-on is reported.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runCheck(cmd.Context(), cmd.OutOrStdout(), args)
		if err != nil {
			fatal("Error checking posts", err)
		}
		if failed {
			exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "Output format: text or json")
	checkCmd.Flags().StringVar(&checkFailOn, "fail-on", "error", "Lowest severity that fails the check: error, warning or info")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "Parse every file, ignoring the cache")
}

// runCheck lints the site and reports whether the --fail-on threshold was hit.
func runCheck(ctx context.Context, w io.Writer, args []string) (bool, error) {
	threshold, err := core.ParseSeverity(checkFailOn)
	if err != nil {
		return false, err
	}
	if checkFormat != "text" && checkFormat != "json" {
		return false, fmt.Errorf("unknown format %q", checkFormat)
	}

	path, err := sitePath(args)
	if err != nil {
		return false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := postlint.Lint(ctx, path, siteOptions(postlint.WithNoCache(checkNoCache))...)
	if err != nil {
		return false, err
	}

	if checkFormat == "json" {
		err = report.JSON(w, r)
	} else {
		err = report.Text(w, r, report.Options{})
	}
	if err != nil {
		return false, err
	}
	return r.AtLeast(threshold), nil
}
