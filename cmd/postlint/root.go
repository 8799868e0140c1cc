package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postlint",
	Short: "Check a static blog's Markdown posts before they are published",
	Long: `postlint reads every post of a static site, parses its front matter and
links, and reports what would break or degrade the generated blog: missing
titles, invalid dates, empty link targets, duplicate posts and more.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .postlint.yaml at the site root)")
}

// sitePath resolves the site directory from the optional positional argument.
// Without one, the site root is searched upwards from the working directory.
func sitePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := postlint.FindRoot(wd)
	if err != nil {
		slog.Debug("no site root marker found, using working directory", "dir", wd)
		return wd, nil
	}
	return root, nil
}

// siteOptions returns the options shared by every command.
func siteOptions(extra ...postlint.Option) []postlint.Option {
	opts := []postlint.Option{postlint.WithLogger(slog.Default())}
	if configPath != "" {
		opts = append(opts, postlint.WithConfig(configPath))
	}
	return append(opts, extra...)
}
