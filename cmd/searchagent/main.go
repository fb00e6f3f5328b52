package main

import (
	"fmt"
	"os"

	"github.com/m4xw311/searchagent/config"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "searchagent",
		Short: "Web search agent that answers queries with a synthesized summary",
		Long: `searchagent turns a free-text query into a readable answer by searching the
web and summarizing the top results with a language model.

Examples:
  searchagent serve                          # HTTP API on :8000
  searchagent ask "latest iPhone release"    # One-shot answer
  searchagent ask                            # Interactive REPL
  searchagent mcp                            # MCP tool server over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file applied after the default locations")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if err := setupLogging(cfg.Log, os.Stderr); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(serveCmd(load), askCmd(load), mcpCmd(load), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
