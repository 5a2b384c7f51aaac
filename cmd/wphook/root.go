package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/wphook/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wphook",
	Short: "wphook turns metaWeblog XML-RPC posts into webhooks",
	Long: `wphook pretends to be a WordPress XML-RPC endpoint. Posts sent by blog clients
are routed to handlers by "cat:<name>" categories and relayed to the URL they carry.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "wphook.yaml", "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// newLogger builds the logger selected by the persistent flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewFormat(format, level)
}
