package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/llm"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/task"
	"github.com/m4xw311/searchagent/tools"
)

// DefaultMaxSteps bounds the reasoning steps of one run when none is configured.
const DefaultMaxSteps = 10

// State is a state of the run loop.
type State int

const (
	StateSynthesizing State = iota
	StateSearching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSynthesizing:
		return "synthesizing"
	case StateSearching:
		return "searching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is the outcome of one successful run.
type Result struct {
	Text      string
	Steps     int
	ToolCalls int
}

// Runner drives one Task through the reasoning loop against its session.
// A Runner is not safe for concurrent use; the gate serializes callers.
type Runner struct {
	client     llm.LLMClient
	registry   *tools.ToolRegistry
	session    *session.Session
	maxSteps   int
	maxHistory int
}

// NewRunner creates a Runner. maxSteps <= 0 selects DefaultMaxSteps and
// maxHistory <= 0 disables history trimming.
func NewRunner(client llm.LLMClient, registry *tools.ToolRegistry, sess *session.Session, maxSteps, maxHistory int) *Runner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Runner{
		client:     client,
		registry:   registry,
		session:    sess,
		maxSteps:   maxSteps,
		maxHistory: maxHistory,
	}
}

// Session returns the state the runner mutates.
func (r *Runner) Session() *session.Session { return r.session }

// Run executes t. A reasoning step is one model call; exceeding maxSteps
// fails with ErrStepLimit. Search and model failures abort the run without
// retry. On failure the messages added by this run are removed again, so
// the history never holds a half-finished turn.
func (r *Runner) Run(ctx context.Context, t task.Task) (Result, error) {
	start := r.session.Len()
	defer func() {
		if p := recover(); p != nil {
			r.session.Messages = r.session.Messages[:start]
			panic(p)
		}
	}()
	r.session.AddMessage(session.Message{Role: session.RoleUser, Content: t.Text})

	var (
		state   = StateSynthesizing
		res     Result
		pending []session.ToolCall
		runErr  error
	)
	for {
		switch state {
		case StateSynthesizing:
			if res.Steps >= r.maxSteps {
				runErr = errors.Wrapf(errors.ErrStepLimit, "no answer after %d steps", res.Steps)
				state = StateFailed
				continue
			}
			res.Steps++
			msg, err := r.client.Chat(ctx, r.session.Messages, r.registry.Tools())
			if err != nil {
				runErr = r.reasoningError(ctx, err, res.Steps)
				state = StateFailed
				continue
			}
			if msg.Role == "" {
				msg.Role = session.RoleAssistant
			}
			r.session.AddMessage(*msg)
			slog.DebugContext(ctx, "agent.step",
				"step", res.Steps,
				"tool_calls", len(msg.ToolCalls),
			)
			if len(msg.ToolCalls) > 0 {
				pending = msg.ToolCalls
				state = StateSearching
				continue
			}
			if strings.TrimSpace(msg.Content) == "" {
				runErr = errors.Capabilityf(errors.CapabilityReasoning,
					errors.New("model returned an empty answer"), "step %d", res.Steps)
				state = StateFailed
				continue
			}
			res.Text = msg.Content
			state = StateDone

		case StateSearching:
			for _, call := range pending {
				res.ToolCalls++
				out, err := r.execute(ctx, call)
				if err != nil {
					runErr = err
					break
				}
				r.session.AddMessage(session.Message{
					Role:      session.RoleTool,
					Content:   out,
					ToolCalls: []session.ToolCall{{ToolCallID: call.ToolCallID, Name: call.Name}},
				})
			}
			pending = nil
			if runErr != nil {
				state = StateFailed
				continue
			}
			state = StateSynthesizing

		case StateDone:
			if dropped := r.session.Trim(r.maxHistory); dropped > 0 {
				slog.DebugContext(ctx, "agent.history_trimmed", "dropped", dropped)
			}
			return res, nil

		case StateFailed:
			r.session.Messages = r.session.Messages[:start]
			slog.WarnContext(ctx, "agent.run_failed", "steps", res.Steps, "error", runErr)
			return res, runErr
		}
	}
}

// execute runs one tool call. Unknown tools and argument mistakes are
// returned as text for the model; only capability failures and context
// errors abort the run.
func (r *Runner) execute(ctx context.Context, call session.ToolCall) (string, error) {
	tool, ok := r.registry.GetTool(call.Name)
	if !ok {
		slog.WarnContext(ctx, "agent.unknown_tool", "tool", call.Name)
		return fmt.Sprintf("Error: tool '%s' is not available", call.Name), nil
	}
	out, err := tool.Execute(ctx, call.Args)
	if err == nil {
		return out, nil
	}
	var capErr *errors.CapabilityError
	if errors.As(err, &capErr) {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", errors.Wrapf(ctxErr, "tool '%s' interrupted", call.Name)
	}
	return fmt.Sprintf("Error executing tool '%s': %v", call.Name, err), nil
}

func (r *Runner) reasoningError(ctx context.Context, err error, step int) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "reasoning step %d interrupted: %v", step, err)
	}
	return errors.Capabilityf(errors.CapabilityReasoning, err, "reasoning step %d", step)
}
