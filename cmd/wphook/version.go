package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/wphook"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of wphook",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wphook version %s\n", strings.TrimSpace(wphook.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
