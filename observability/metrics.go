package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/m4xw311/searchagent/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records request and agent measurements. It satisfies
// agent.Recorder.
type Metrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	agentSteps      metric.Int64Counter
	runFailures     metric.Int64Counter
	gateWait        metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.requestsTotal, err = meter.Int64Counter(
		"searchagent_requests_total",
		metric.WithDescription("Total number of search requests by HTTP status"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create requests counter")
	}

	m.requestDuration, err = meter.Float64Histogram(
		"searchagent_request_duration_seconds",
		metric.WithDescription("Search request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request duration histogram")
	}

	m.agentSteps, err = meter.Int64Counter(
		"searchagent_agent_steps_total",
		metric.WithDescription("Total number of reasoning steps taken by the agent"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create steps counter")
	}

	m.runFailures, err = meter.Int64Counter(
		"searchagent_run_failures_total",
		metric.WithDescription("Total number of failed agent runs by cause"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create failures counter")
	}

	m.gateWait, err = meter.Float64Histogram(
		"searchagent_gate_wait_seconds",
		metric.WithDescription("Time spent waiting for exclusive agent access"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create gate wait histogram")
	}

	return m, nil
}

// RecordRequest records one finished HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, status int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", strconv.Itoa(status)))
	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) RecordGateWait(ctx context.Context, wait time.Duration) {
	m.gateWait.Record(ctx, wait.Seconds())
}

func (m *Metrics) RecordRun(ctx context.Context, steps int, err error) {
	if steps > 0 {
		m.agentSteps.Add(ctx, int64(steps))
	}
	if err != nil {
		m.runFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("cause", FailureCause(err))))
	}
}

// FailureCause classifies a run error for the failures counter.
func FailureCause(err error) string {
	var capErr *errors.CapabilityError
	switch {
	case errors.As(err, &capErr):
		return string(capErr.Capability)
	case errors.Is(err, errors.ErrStepLimit):
		return "step_limit"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errors.ErrGateClosed):
		return "gate"
	}
	return "other"
}
