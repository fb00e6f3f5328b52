// Package agent runs search tasks against a language model.
//
// # Architecture
//
// A request passes through three stages:
//
//   - Task Builder (package task): renders the instruction for a query
//   - Gate: serializes access to the agent state
//   - Runner: the reasoning loop between the LLM client and the tools
//
// Service wires the stages together and is what the HTTP server, the CLI
// and the MCP server call.
//
// # Runner
//
// The Runner is a finite state machine:
//
//	Synthesizing --tool calls--> Searching --results--> Synthesizing
//	Synthesizing --final text--> Done
//	any failure or step limit --> Failed
//
// Each Synthesizing step is one model call. The number of steps is capped;
// a run that hits the cap fails with errors.ErrStepLimit. Search and model
// failures end the run immediately and are not retried. Unknown tools and
// invalid arguments are reported back to the model as tool results so it
// can correct itself.
//
// # Modes
//
//   - config.ModeShared: one Runner and one session for the whole process.
//     The session keeps the conversation across requests and an
//     ExclusiveGate admits one run at a time.
//   - config.ModePerRequest: every request gets a fresh session, so runs are
//     independent and the gate is a PassThrough.
//
// # Usage
//
//	builder, _ := task.New("standard", config.DefaultQuery, 5)
//	svc := agent.NewService(builder, client, tools.NewToolRegistry(search), agent.Options{
//	    Mode:     config.ModeShared,
//	    MaxSteps: 10,
//	})
//	answer, err := svc.Ask(ctx, "latest iPhone release")
//
// # Subpackages
//
// agent/terminal: the interactive command-line mode used by `searchagent ask`.
package agent
