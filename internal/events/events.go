package events

import (
	"time"

	"github.com/google/uuid"
)

// Source name stamped on every event this service emits.
const EventSource = "online-exam-service"

// Event types published to the message bus.
const (
	ExamCreated   = "exam.created"
	ExamUpdated   = "exam.updated"
	ExamDeleted   = "exam.deleted"
	ExamSubmitted = "exam.submitted"

	ClassCreated      = "class.created"
	ClassMemberJoined = "class.member_joined"
)

// Event is the envelope for every message this service publishes.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh ID and the service identity filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Timestamp: time.Now().UTC(),
		Version:   "1.0",
		Data:      data,
	}
}

// ===== EVENT PAYLOADS =====

// ExamEvent is the payload of exam lifecycle events.
type ExamEvent struct {
	ExamID        uint   `json:"examId"`
	ClassID       uint   `json:"classId"`
	ExamName      string `json:"examName"`
	TotalQuestion int    `json:"totalQuestion"`
	IsPublished   bool   `json:"isPublished"`
	ActorID       uint   `json:"actorId"`
}

// ExamSubmittedEvent is the payload emitted when a student submits an exam.
type ExamSubmittedEvent struct {
	ExamID  uint    `json:"examId"`
	ClassID uint    `json:"classId"`
	UserID  uint    `json:"userId"`
	Score   float64 `json:"score"`
}

// ClassEvent is the payload of class lifecycle events.
type ClassEvent struct {
	ClassID   uint   `json:"classId"`
	ClassCode string `json:"classCode"`
	ClassName string `json:"className"`
	ActorID   uint   `json:"actorId"`
}
