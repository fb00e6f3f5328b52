package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/search"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/task"
	"github.com/m4xw311/searchagent/tools"
)

// trackingClient answers immediately but records how many calls overlap.
type trackingClient struct {
	delay       time.Duration
	failNext    atomic.Bool
	inFlight    int32
	maxInFlight int32
	calls       int32
	histories   []int
	mu          sync.Mutex
}

func (c *trackingClient) Chat(ctx context.Context, messages []session.Message, _ []tools.Tool) (*session.Message, error) {
	n := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	for {
		m := atomic.LoadInt32(&c.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&c.maxInFlight, m, n) {
			break
		}
	}
	atomic.AddInt32(&c.calls, 1)
	c.mu.Lock()
	c.histories = append(c.histories, len(messages))
	c.mu.Unlock()

	time.Sleep(c.delay)
	if c.failNext.CompareAndSwap(true, false) {
		return nil, fmt.Errorf("provider outage")
	}
	return &session.Message{Role: session.RoleAssistant, Content: "answer"}, nil
}

func newService(t *testing.T, client *trackingClient, mode config.AgentMode, sess *session.Session) *Service {
	t.Helper()
	b, err := task.New("standard", config.DefaultQuery, 5)
	if err != nil {
		t.Fatal(err)
	}
	reg := tools.NewToolRegistry(tools.NewWebSearchTool(&search.Static{Results: fixedResults()}, 5, nil))
	return NewService(b, client, reg, Options{Mode: mode, MaxSteps: 5, Session: sess})
}

func TestServiceSerializesSharedRuns(t *testing.T) {
	client := &trackingClient{delay: 5 * time.Millisecond}
	svc := newService(t, client, config.ModeShared, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Ask(context.Background(), fmt.Sprintf("query %d", i)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if client.maxInFlight != 1 {
		t.Errorf("max concurrency = %d, want 1", client.maxInFlight)
	}
	// History grows by one turn per run in shared mode.
	if got := svc.shared.Session().Len(); got != 16 {
		t.Errorf("shared session has %d messages, want 16", got)
	}
}

func TestServiceFailureDoesNotLockOut(t *testing.T) {
	client := &trackingClient{}
	client.failNext.Store(true)
	svc := newService(t, client, config.ModeShared, nil)

	if _, err := svc.Ask(context.Background(), "first"); err == nil {
		t.Fatal("expected reasoning failure")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	answer, err := svc.Ask(ctx, "second")
	if err != nil {
		t.Fatalf("request after failure did not succeed: %v", err)
	}
	if answer.Text != "answer" || answer.Query != "second" {
		t.Errorf("unexpected answer %+v", answer)
	}
}

func TestServiceDefaultQuery(t *testing.T) {
	svc := newService(t, &trackingClient{}, config.ModeShared, nil)
	answer, err := svc.Ask(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Query != config.DefaultQuery || svc.DefaultQuery() != config.DefaultQuery {
		t.Errorf("query = %q", answer.Query)
	}
}

func TestServicePerRequestIsolation(t *testing.T) {
	client := &trackingClient{}
	svc := newService(t, client, config.ModePerRequest, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Ask(context.Background(), "q"); err != nil {
			t.Fatal(err)
		}
	}
	for i, n := range client.histories {
		if n != 1 {
			t.Errorf("call %d saw %d messages, want a fresh history", i, n)
		}
	}
	if svc.shared != nil {
		t.Error("per-request service holds shared state")
	}
}

func TestServiceSavesSharedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	sess, err := session.Open("shared", path)
	if err != nil {
		t.Fatal(err)
	}
	svc := newService(t, &trackingClient{}, config.ModeShared, sess)
	if _, err := svc.Ask(context.Background(), "persist me"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := session.Open("shared", path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 || !strings.Contains(reloaded.Messages[0].Content, "persist me") {
		t.Errorf("state not saved: %+v", reloaded.Messages)
	}
}

type recordingRecorder struct {
	mu    sync.Mutex
	runs  []error
	waits int
}

func (r *recordingRecorder) RecordGateWait(context.Context, time.Duration) {
	r.mu.Lock()
	r.waits++
	r.mu.Unlock()
}

func (r *recordingRecorder) RecordRun(_ context.Context, _ int, err error) {
	r.mu.Lock()
	r.runs = append(r.runs, err)
	r.mu.Unlock()
}

func TestServiceRecordsRuns(t *testing.T) {
	client := &trackingClient{}
	client.failNext.Store(true)
	rec := &recordingRecorder{}
	b, _ := task.New("standard", config.DefaultQuery, 5)
	svc := NewService(b, client, tools.NewToolRegistry(), Options{Mode: config.ModeShared, Recorder: rec})

	svc.Ask(context.Background(), "a")
	svc.Ask(context.Background(), "b")
	if len(rec.runs) != 2 || rec.runs[0] == nil || rec.runs[1] != nil {
		t.Errorf("runs = %v", rec.runs)
	}
	if rec.waits != 2 {
		t.Errorf("waits = %d", rec.waits)
	}
}

func TestServiceCloseRejectsQueued(t *testing.T) {
	client := &trackingClient{delay: 100 * time.Millisecond}
	svc := newService(t, client, config.ModeShared, nil)

	go svc.Ask(context.Background(), "holder")
	time.Sleep(20 * time.Millisecond)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Ask(context.Background(), "queued")
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	svc.Close()

	select {
	case err := <-errc:
		if err == nil {
			t.Error("queued request ran after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("queued request not released")
	}
}
