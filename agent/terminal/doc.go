// Package terminal implements the command-line mode of the search agent.
//
// It answers a single query given on the command line, or runs an
// interactive prompt that reads one query per line and prints each answer
// directly in the terminal.
//
// # Usage
//
//	svc := agent.NewService(builder, client, registry, agent.Options{Mode: config.ModeShared})
//	term := terminal.New(svc, os.Stdin, os.Stdout, 2*time.Minute, false)
//
//	// one-shot
//	err := term.Ask(ctx, "latest iPhone release")
//
//	// interactive
//	err = term.Run(ctx)
//
// # Features
//
//   - One-shot answers for scripting
//   - Interactive prompt with a per-question timeout
//   - Failed questions are reported and the prompt continues
//   - Verbose mode prints the effective query, step count and number of searches
//   - Exit commands (/quit, /exit) for graceful termination
//
// In shared agent mode consecutive questions see the earlier conversation,
// so follow-up questions can refer to previous answers.
package terminal
