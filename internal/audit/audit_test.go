package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/logging"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	rec := NewRecord(fixedClock{t: now}, Entry{
		ActorID:    "alice",
		Action:     constants.AuditActionStepExecution,
		ResourceID: "step_1_abcdef",
		Status:     constants.AuditStatusSuccess,
	})

	assert.NotEmpty(t, rec.EventID)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, "alice", rec.ActorID)
	assert.NotNil(t, rec.Details)
	assert.NotNil(t, rec.GatesPassed)
	assert.NotNil(t, rec.PolicyViolations)

	other := NewRecord(fixedClock{t: now}, Entry{})
	assert.NotEqual(t, rec.EventID, other.EventID)
}

func TestNewRecord_CopiesInputs(t *testing.T) {
	details := map[string]any{"kernel": "statistics_v1"}
	passed := []string{constants.GateSchema}
	rec := NewRecord(fixedClock{}, Entry{Details: details, GatesPassed: passed})

	details["kernel"] = "changed"
	passed[0] = "changed"
	assert.Equal(t, "statistics_v1", rec.Details["kernel"])
	assert.Equal(t, constants.GateSchema, rec.GatesPassed[0])
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf, zerolog.Nop())
	rec := NewRecorder(sink, fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})

	rec.Record(context.Background(), Entry{
		ActorID:          "alice",
		Action:           constants.AuditActionStepExecution,
		ResourceID:       "step_1_abcdef",
		Status:           constants.AuditStatusSuccess,
		Details:          map[string]any{"kernel": constants.KernelStatistics, "input": "password=hunter2hunter2"},
		GatesPassed:      []string{constants.GateSchema},
		PolicyViolations: nil,
	})
	rec.Record(context.Background(), Entry{
		ActorID: "bob",
		Action:  constants.AuditActionStepExecutionAttempt,
		Status:  constants.AuditStatusBlocked,
		Details: map[string]any{"reason": "access_control"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first domain.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "alice", first.ActorID)
	assert.Equal(t, constants.AuditStatusSuccess, first.Status)
	assert.Equal(t, []string{constants.GateSchema}, first.GatesPassed)
	assert.Equal(t, []string{}, first.PolicyViolations)
	assert.Equal(t, "password="+logging.RedactedValue, first.Details["input"])
	assert.NotContains(t, buf.String(), "hunter2")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "BLOCKED", second["status"])
	assert.Equal(t, "step_execution_attempt", second["action"])
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestJSONLSink_WriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	sink := NewJSONLSink(failingWriter{}, zerolog.New(&logs))

	assert.NotPanics(t, func() {
		sink.LogAudit(context.Background(), NewRecord(fixedClock{}, Entry{ActorID: "alice"}))
	})
	assert.Contains(t, logs.String(), "failed to write audit record")
	assert.Contains(t, logs.String(), "disk full")
}

func TestJSONLSink_ConcurrentWritesStayLineDelimited(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf, zerolog.Nop())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink.LogAudit(context.Background(), NewRecord(fixedClock{}, Entry{
				ActorID: "user",
				Details: map[string]any{"i": i},
			}))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)), line)
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	rec := NewRecorder(sink, nil)

	rec.Record(context.Background(), Entry{ResourceID: "step_1"})
	rec.Record(context.Background(), Entry{ResourceID: "step_2"})
	rec.Record(context.Background(), Entry{ResourceID: "step_1"})

	assert.Len(t, sink.Records(), 3)
	assert.Len(t, sink.ByResource("step_1"), 2)
	assert.Empty(t, sink.ByResource("step_9"))
}

func TestMultiSink(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	rec := NewRecorder(MultiSink{a, b}, nil)
	rec.Record(context.Background(), Entry{ActorID: "alice"})

	assert.Len(t, a.Records(), 1)
	assert.Len(t, b.Records(), 1)
}
