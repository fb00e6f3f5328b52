package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/mcpserver"
	"github.com/spf13/cobra"
)

func mcpCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the web_search_summary tool over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return mcpserver.Run(ctx, a.service, Version, cfg.Server.RequestTimeout)
		},
	}
}
