package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m4xw311/searchagent/agent"
)

// Asker answers one query. *agent.Service implements it.
type Asker interface {
	Ask(ctx context.Context, query string) (agent.Answer, error)
}

// Terminal handles the command-line interaction mode.
type Terminal struct {
	asker   Asker
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	verbose bool
}

// New creates a new Terminal reading queries from in and writing answers to
// out. timeout bounds each question; zero means no limit.
func New(a Asker, in io.Reader, out io.Writer, timeout time.Duration, verbose bool) *Terminal {
	return &Terminal{
		asker:   a,
		in:      in,
		out:     out,
		timeout: timeout,
		verbose: verbose,
	}
}

// Ask answers a single query and prints the result.
func (t *Terminal) Ask(ctx context.Context, query string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	answer, err := t.asker.Ask(ctx, query)
	if err != nil {
		return err
	}
	if t.verbose {
		fmt.Fprintf(t.out, "[query: %s | steps: %d | searches: %d]\n", answer.Query, answer.Steps, answer.ToolCalls)
	}
	fmt.Fprintln(t.out, answer.Text)
	return nil
}

// Run starts the interactive session. It ends on EOF, /quit or /exit, or
// when ctx is cancelled. Failed questions are reported and the loop goes on.
func (t *Terminal) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(t.out, "Query: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "/quit" || query == "/exit" {
			break
		}

		if err := t.Ask(ctx, query); err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}
