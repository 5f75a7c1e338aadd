package domain

import "time"

// HistoryEntry is one event in a session's history log.
type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
}

// Session accumulates context across turns. It is the only entity whose
// lifetime spans multiple orchestrator invocations and has a single logical
// owner per id at any time.
//
// Example JSON representation:
//
//	{
//	    "session_id": "5b0e...",
//	    "user_id": "default_user",
//	    "context": {"answer_lb_unit_clarification": "lbm"},
//	    "history": [{"timestamp": "...", "type": "step_complete", "data": {...}}],
//	    "active_workflow_id": "wf_1a2b3c4d"
//	}
type Session struct {
	ID               string         `json:"session_id"`
	UserID           string         `json:"user_id"`
	Context          map[string]any `json:"context"`
	History          []HistoryEntry `json:"history"`
	ActiveWorkflowID string         `json:"active_workflow_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewSession returns an empty session.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Context:   map[string]any{},
		History:   []HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateContext overlays values onto the session context.
func (s *Session) UpdateContext(values map[string]any, now time.Time) {
	if s.Context == nil {
		s.Context = make(map[string]any, len(values))
	}
	for k, v := range values {
		s.Context[k] = cloneValue(v)
	}
	s.UpdatedAt = now
}

// AddHistory appends an event to the history log.
func (s *Session) AddHistory(eventType string, data map[string]any, now time.Time) {
	s.History = append(s.History, HistoryEntry{
		Timestamp: now,
		Type:      eventType,
		Data:      cloneMap(data),
	})
	s.UpdatedAt = now
}

// LastHistory returns the most recent entry of the given type, or nil.
func (s *Session) LastHistory(eventType string) *HistoryEntry {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Type == eventType {
			return &s.History[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Context = cloneMap(s.Context)
	out.History = make([]HistoryEntry, len(s.History))
	for i, h := range s.History {
		out.History[i] = HistoryEntry{Timestamp: h.Timestamp, Type: h.Type, Data: cloneMap(h.Data)}
	}
	return &out
}
