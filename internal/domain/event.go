package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRecorded EventType = "sign.recorded"
	EventDeleted  EventType = "sign.deleted"
)

type SignEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Sign       Sign      `json:"sign"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewSignEvent(t EventType, s Sign) SignEvent {
	return SignEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Sign:       s,
		OccurredAt: time.Now().UTC(),
	}
}
