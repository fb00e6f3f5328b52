package main

import (
	"context"
	"strings"

	"github.com/m4xw311/searchagent/agent/terminal"
	"github.com/m4xw311/searchagent/config"
	"github.com/spf13/cobra"
)

func askCmd(load func() (*config.Config, error)) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a query, or start an interactive prompt when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			term := terminal.New(a.service, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Server.RequestTimeout, verbose)
			if len(args) > 0 {
				return term.Ask(ctx, strings.Join(args, " "))
			}
			return term.Run(ctx)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print run statistics after each answer")
	return cmd
}
