package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/m4xw311/searchagent/agent"
	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/llm"
	"github.com/m4xw311/searchagent/observability"
	"github.com/m4xw311/searchagent/search"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/task"
	"github.com/m4xw311/searchagent/tools"
)

// app holds the wired pipeline shared by every subcommand.
type app struct {
	cfg      *config.Config
	provider search.Provider
	service  *agent.Service
	obs      *observability.Observability
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	ready := false
	defer func() {
		if !ready {
			a.Close(context.Background())
		}
	}()

	var err error
	a.obs, err = observability.New(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return a.obs.Shutdown(context.Background()) })

	provider, closeSearch, err := search.FromConfig(ctx, &cfg.Search)
	if err != nil {
		return nil, errors.Wrapf(err, "error initializing search provider")
	}
	a.provider = provider
	a.closers = append(a.closers, closeSearch)

	filter, err := tools.NewDomainFilter(cfg.Search.BlockedDomains)
	if err != nil {
		return nil, err
	}
	registry := tools.NewToolRegistry(tools.NewWebSearchTool(provider, cfg.Prompt.ResultCount, filter))

	client, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	builder, err := task.New(cfg.Prompt.Template, cfg.Prompt.DefaultQuery, cfg.Prompt.ResultCount)
	if err != nil {
		return nil, err
	}

	var sess *session.Session
	if cfg.Agent.Mode == config.ModeShared && cfg.Agent.StateFile != "" {
		sess, err = session.Open("shared", cfg.Agent.StateFile)
		if err != nil {
			return nil, errors.Wrapf(err, "error loading agent state")
		}
		slog.Info("agent.state_loaded", "path", cfg.Agent.StateFile, "messages", sess.Len())
	}

	a.service = agent.NewService(builder, client, registry, agent.Options{
		Mode:       cfg.Agent.Mode,
		MaxSteps:   cfg.Agent.MaxSteps,
		MaxHistory: cfg.Agent.MaxHistoryMessages,
		Session:    sess,
		Recorder:   a.obs.Metrics,
	})
	a.closers = append(a.closers, func() error { a.service.Close(); return nil })

	slog.Info("app.ready",
		"llm", cfg.LLMClient,
		"model", cfg.Model,
		"search", provider.Name(),
		"mode", cfg.Agent.Mode,
		"template", cfg.Prompt.Template,
	)
	ready = true
	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.WarnContext(ctx, "app.close_failed", "error", err)
		}
	}
	a.closers = nil
}
