// Command gawin-cli is the command-line tool for managing a Gawin gateway
// deployment: config validation, plugin inspection, and version info.
package main

import (
	"fmt"
	"os"
	"strings"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/version"
	"github.com/gawin-ai/gateway/plugin"
	"github.com/spf13/cobra"

	// Register built-in plugins so they appear in the plugin list.
	_ "github.com/gawin-ai/gateway/internal/plugins/cache"
	_ "github.com/gawin-ai/gateway/internal/plugins/history"
	_ "github.com/gawin-ai/gateway/internal/plugins/maxtoken"
	_ "github.com/gawin-ai/gateway/internal/plugins/schemaguard"
)

func main() {
	root := &cobra.Command{
		Use:           "gawin-cli",
		Short:         "Gawin gateway command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(validateCmd(), pluginsCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a gateway configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gawin.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if err := gawin.ValidateConfig(*cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Config is valid")
			fmt.Fprintf(out, "  Chain:        %s\n", strings.Join(cfg.Providers, " -> "))
			mode := cfg.DegradeMode
			if mode == "" {
				mode = gawin.DegradeGraceful
			}
			fmt.Fprintf(out, "  Degrade mode: %s\n", mode)
			if len(cfg.Aliases) > 0 {
				fmt.Fprintf(out, "  Aliases:      %d\n", len(cfg.Aliases))
			}
			if cfg.History.Enabled {
				driver := cfg.History.Driver
				if driver == "" {
					driver = "sqlite"
				}
				fmt.Fprintf(out, "  History:      %s\n", driver)
			}
			if len(cfg.Plugins) > 0 {
				var names []string
				for _, p := range cfg.Plugins {
					status := "disabled"
					if p.Enabled {
						status = "enabled"
					}
					names = append(names, fmt.Sprintf("%s (%s)", p.Name, status))
				}
				fmt.Fprintf(out, "  Plugins:      %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List all registered plugins",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			names := plugin.RegisteredPlugins()
			if len(names) == 0 {
				fmt.Fprintln(out, "No plugins registered.")
				return
			}
			fmt.Fprintln(out, "Registered plugins:")
			for _, name := range names {
				factory, _ := plugin.GetFactory(name)
				p := factory()
				fmt.Fprintf(out, "  %-22s type=%s\n", name, p.Type())
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gawin-cli %s\n", version.String())
		},
	}
}
