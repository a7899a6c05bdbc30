package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingMetrics struct {
	mu    sync.Mutex
	calls []string
}

func (m *recordingMetrics) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, s)
}

func (m *recordingMetrics) RecordOperationAttempt(_ context.Context, op, _ string) {
	m.add("attempt:" + op)
}

func (m *recordingMetrics) RecordOperationSuccess(_ context.Context, op, _ string) {
	m.add("success:" + op)
}

func (m *recordingMetrics) RecordOperationFailure(_ context.Context, op, _ string) {
	m.add("failure:" + op)
}

func (m *recordingMetrics) RecordOperationDuration(_ context.Context, op, _ string, _ time.Duration) {
	m.add("duration:" + op)
}

func newInstrument(buf *bytes.Buffer, m *recordingMetrics) Instrument {
	return Instrument{
		Service: "TestService",
		Logger:  slog.New(slog.NewTextHandler(buf, nil)),
		Metrics: m,
		Tracer:  noop.NewTracerProvider().Tracer("test"),
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		op          OperationFunc[string, error]
		wantErr     string
		wantMetrics []string
		wantLog     string
	}{
		{
			name: "success",
			op: func(ctx context.Context) (results.OperationResult[string, error], error) {
				return results.SuccessResult[string, error]("ok"), nil
			},
			wantMetrics: []string{"attempt:Op", "success:Op", "duration:Op"},
			wantLog:     "Operation completed successfully",
		},
		{
			name: "domain failure is not an error",
			op: func(ctx context.Context) (results.OperationResult[string, error], error) {
				return results.FailureResult[string, error](errors.New("nope")), nil
			},
			wantMetrics: []string{"attempt:Op", "success:Op", "duration:Op"},
			wantLog:     "Operation returned failure result",
		},
		{
			name: "infrastructure error is wrapped",
			op: func(ctx context.Context) (results.OperationResult[string, error], error) {
				return results.OperationResult[string, error]{}, errors.New("db down")
			},
			wantErr:     "Op: db down",
			wantMetrics: []string{"attempt:Op", "failure:Op", "duration:Op"},
			wantLog:     "Operation failed with error",
		},
		{
			name: "panic is recovered",
			op: func(ctx context.Context) (results.OperationResult[string, error], error) {
				panic("kaboom")
			},
			wantErr:     "panic in Op: kaboom",
			wantMetrics: []string{"attempt:Op", "failure:Op", "duration:Op"},
			wantLog:     "Critical panic recovered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			m := &recordingMetrics{}

			_, err := Run(context.Background(), newInstrument(&buf, m), "Op", "id-1", tt.op)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantMetrics, m.calls)
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}

func TestRun_NilHandles(t *testing.T) {
	res, err := Run(context.Background(), Instrument{Service: "Bare"}, "Op", "", func(ctx context.Context) (results.OperationResult[int, error], error) {
		return results.SuccessResult[int, error](7), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, *res.Success)
}
