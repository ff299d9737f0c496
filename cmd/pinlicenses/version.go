package main

import (
	"fmt"
	runtimeDebug "runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
)

func init() {
	if version == "" {
		if buildInfo, ok := runtimeDebug.ReadBuildInfo(); ok {
			version = buildInfo.Main.Version
		}
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "CommitSHA: %s\n", commit)
			return nil
		},
	}
}
