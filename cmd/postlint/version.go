package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/postlint"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of postlint",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "postlint version %s\n", strings.TrimSpace(postlint.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
