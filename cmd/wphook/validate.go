package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/wphook/internal/config"
	"github.com/aretw0/wphook/internal/logging"
	"github.com/spf13/cobra"
)

const pingTimeout = 3 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Long: `Loads the configuration file, builds every handler it declares and prints how posts will be routed.
With --ping the Redis servers used by redis handlers must also answer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		ping, _ := cmd.Flags().GetBool("ping")
		if err := runValidate(cmd.Context(), cmd.OutOrStdout(), path, ping); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("ping", false, "Also check that the Redis servers answer")
}

func runValidate(ctx context.Context, out io.Writer, path string, ping bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Redis clients connect lazily, so building does not need the servers.
	built, err := config.Build(cfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer built.Close()

	if ping {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := built.Ping(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Config %s is valid\n", path)
	fmt.Fprintf(out, "  listen:  %s\n", cfg.Listen)
	fmt.Fprintf(out, "  path:    %s\n", cfg.Path)
	fmt.Fprintf(out, "  relay:   %s\n", describeRelay(cfg))
	fmt.Fprintf(out, "  default: %s (auth: %s)\n", describe(cfg.Default, "pass-through"), describe(cfg.Auth, "none"))
	if len(cfg.Categories) > 0 {
		names := cfg.CategoryNames()
		fmt.Fprintf(out, "  categories (auth: %s):\n", describe(cfg.CategoryAuth, "none"))
		for _, name := range names {
			comp := cfg.Categories[name]
			fmt.Fprintf(out, "    cat:%s -> %s\n", name, describe(&comp, ""))
		}
	}
	return nil
}

func describe(comp *config.Component, fallback string) string {
	if comp == nil {
		return fallback
	}
	return comp.Type
}

func describeRelay(cfg *config.Config) string {
	if cfg.Relay.Disabled {
		return "disabled"
	}
	var b strings.Builder
	b.WriteString("enabled")
	if cfg.Relay.Timeout > 0 {
		fmt.Fprintf(&b, ", timeout %s", cfg.Relay.Timeout)
	}
	return b.String()
}
