package websocket

import (
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing   Action = "ping"
	ActionFilter Action = "filter"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// FilterRequest narrows the feed to one classroom and/or exam.
// Zero values clear the corresponding filter.
type FilterRequest struct {
	Action      Action     `json:"action"`
	ClassroomID int        `json:"classroom_id"`
	ExamID      *uuid.UUID `json:"exam_id"`
}

// Matches reports whether event passes the filter.
func (f FilterRequest) Matches(event model.ResultEvent) bool {
	if f.ClassroomID != 0 && event.ClassroomID != f.ClassroomID {
		return false
	}
	if f.ExamID != nil && event.ExamID != *f.ExamID {
		return false
	}
	return true
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError       Event = "error"
	EventSubscribed  Event = "subscribed"
	EventResult      Event = "result_event"
	EventFilterSaved Event = "filter_saved"
	EventPong        Event = "pong"
)

type SubscribedResponse struct {
	Event  Event `json:"event"`
	UserID int   `json:"user_id"`
}

type ResultEventResponse struct {
	Event  Event             `json:"event"`
	Result model.ResultEvent `json:"result"`
}

type FilterResponse struct {
	Event       Event      `json:"event"`
	ClassroomID int        `json:"classroom_id,omitempty"`
	ExamID      *uuid.UUID `json:"exam_id,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
