package main

import (
	"fmt"
	"runtime"

	"github.com/Harshitk-cp/proofstream/internal/buildconfig"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "proofctl %s (%s) %s %s/%s\n",
			buildconfig.Version(), buildconfig.Commit(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
