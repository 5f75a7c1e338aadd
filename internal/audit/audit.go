// Package audit emits append-only audit records, one JSON object per line.
//
// Sinks never return errors to their callers: a failed write is logged and
// dropped so an audit outage cannot stop a workflow.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/logging"
)

// Sink receives audit records.
type Sink interface {
	LogAudit(ctx context.Context, record domain.AuditRecord)
}

// Recorder builds records with ids and timestamps and forwards them to a Sink.
type Recorder struct {
	sink  Sink
	clock clock.Clock
}

// NewRecorder wraps sink. A nil clock uses the system clock.
func NewRecorder(sink Sink, c clock.Clock) *Recorder {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Recorder{sink: sink, clock: c}
}

// Entry holds the caller-supplied fields of a record.
type Entry struct {
	ActorID          string
	Action           string
	ResourceID       string
	Status           constants.AuditStatus
	Details          map[string]any
	GatesPassed      []string
	PolicyViolations []string
}

// Record stamps e and sends it to the sink.
func (r *Recorder) Record(ctx context.Context, e Entry) domain.AuditRecord {
	rec := NewRecord(r.clock, e)
	if r.sink != nil {
		r.sink.LogAudit(ctx, rec)
	}
	return rec
}

// NewRecord fills the event id and timestamp of e. Nil slices and maps
// become empty so every line has the same shape.
func NewRecord(c clock.Clock, e Entry) domain.AuditRecord {
	details := domain.CloneMap(e.Details)
	if details == nil {
		details = map[string]any{}
	}
	return domain.AuditRecord{
		EventID:          uuid.NewString(),
		Timestamp:        c.Now().UTC(),
		ActorID:          e.ActorID,
		Action:           e.Action,
		ResourceID:       e.ResourceID,
		Status:           e.Status,
		Details:          details,
		GatesPassed:      nonNil(e.GatesPassed),
		PolicyViolations: nonNil(e.PolicyViolations),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// JSONLSink writes one JSON object per line. Details are redacted before
// encoding. Writes are serialized.
type JSONLSink struct {
	mu     sync.Mutex
	w      io.Writer
	logger zerolog.Logger
}

// NewJSONLSink writes to w.
func NewJSONLSink(w io.Writer, logger zerolog.Logger) *JSONLSink {
	return &JSONLSink{w: w, logger: logger}
}

// LogAudit implements Sink.
func (s *JSONLSink) LogAudit(_ context.Context, record domain.AuditRecord) {
	record.Details = logging.RedactMap(record.Details)
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn().Err(err).Str("event_id", record.EventID).Msg("failed to encode audit record")
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		s.logger.Warn().Err(err).Str("event_id", record.EventID).Msg("failed to write audit record")
	}
}

// MemorySink keeps records in memory, in emission order.
type MemorySink struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// LogAudit implements Sink.
func (s *MemorySink) LogAudit(_ context.Context, record domain.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Records returns a copy of the stored records.
func (s *MemorySink) Records() []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditRecord(nil), s.records...)
}

// ByResource returns the records for one resource id.
func (s *MemorySink) ByResource(resourceID string) []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditRecord
	for _, r := range s.records {
		if r.ResourceID == resourceID {
			out = append(out, r)
		}
	}
	return out
}

// MultiSink fans a record out to several sinks.
type MultiSink []Sink

// LogAudit implements Sink.
func (m MultiSink) LogAudit(ctx context.Context, record domain.AuditRecord) {
	for _, s := range m {
		s.LogAudit(ctx, record)
	}
}

var (
	_ Sink = (*JSONLSink)(nil)
	_ Sink = (*MemorySink)(nil)
	_ Sink = MultiSink(nil)
)
