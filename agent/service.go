package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/llm"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/task"
	"github.com/m4xw311/searchagent/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/m4xw311/searchagent/agent"

// Recorder receives run measurements. observability.Metrics implements it.
type Recorder interface {
	RecordGateWait(ctx context.Context, wait time.Duration)
	RecordRun(ctx context.Context, steps int, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordGateWait(context.Context, time.Duration) {}
func (nopRecorder) RecordRun(context.Context, int, error)         {}

// Options configures a Service.
type Options struct {
	Mode       config.AgentMode
	MaxSteps   int
	MaxHistory int
	// Session is the long-lived state in shared mode. Nil starts empty.
	Session  *session.Session
	Recorder Recorder
}

// Answer is the reply to one query.
type Answer struct {
	Query string
	Result
}

// Service is the request pipeline: Task Builder, then Gate, then Runner.
type Service struct {
	builder  *task.Builder
	client   llm.LLMClient
	registry *tools.ToolRegistry
	opts     Options
	gate     Gate
	shared   *Runner
	recorder Recorder
	tracer   trace.Tracer
}

// NewService wires the pipeline. In shared mode one Runner owns one session
// and the gate admits a single run at a time; in per-request mode each call
// gets a fresh session and the gate is a pass-through.
func NewService(builder *task.Builder, client llm.LLMClient, registry *tools.ToolRegistry, opts Options) *Service {
	s := &Service{
		builder:  builder,
		client:   client,
		registry: registry,
		opts:     opts,
		recorder: opts.Recorder,
		tracer:   otel.Tracer(tracerName),
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if opts.Mode == config.ModePerRequest {
		s.gate = PassThrough{}
		return s
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New("shared")
	}
	s.gate = NewExclusiveGate()
	s.shared = NewRunner(client, registry, sess, opts.MaxSteps, opts.MaxHistory)
	return s
}

// Ask answers query. An empty query is replaced by the default topic.
func (s *Service) Ask(ctx context.Context, query string) (Answer, error) {
	t := s.builder.Build(query)
	ctx, span := s.tracer.Start(ctx, "agent.ask", trace.WithAttributes(
		attribute.String("searchagent.query", t.Query),
		attribute.String("searchagent.mode", string(s.mode())),
	))
	defer span.End()

	queued := time.Now()
	res, err := WithExclusiveAccess(ctx, s.gate, func() (Result, error) {
		s.recorder.RecordGateWait(ctx, time.Since(queued))
		r := s.runner()
		res, err := r.Run(ctx, t)
		if r == s.shared {
			if saveErr := r.Session().Save(); saveErr != nil {
				slog.WarnContext(ctx, "agent.state_save_failed", "error", saveErr)
			}
		}
		return res, err
	})
	s.recorder.RecordRun(ctx, res.Steps, err)
	span.SetAttributes(attribute.Int("searchagent.steps", res.Steps))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Answer{Query: t.Query, Result: res}, err
	}
	slog.InfoContext(ctx, "agent.answered",
		"query", t.Query,
		"steps", res.Steps,
		"tool_calls", res.ToolCalls,
		"duration", time.Since(queued),
	)
	return Answer{Query: t.Query, Result: res}, nil
}

func (s *Service) runner() *Runner {
	if s.shared != nil {
		return s.shared
	}
	return NewRunner(s.client, s.registry, session.New("request"), s.opts.MaxSteps, s.opts.MaxHistory)
}

func (s *Service) mode() config.AgentMode {
	if s.shared != nil {
		return config.ModeShared
	}
	return config.ModePerRequest
}

// DefaultQuery returns the topic used for empty queries.
func (s *Service) DefaultQuery() string { return s.builder.DefaultQuery() }

// Close stops admitting new runs. Queued callers fail with ErrGateClosed.
func (s *Service) Close() {
	if g, ok := s.gate.(*ExclusiveGate); ok {
		g.Close()
	}
}
