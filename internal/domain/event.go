package domain

import "time"

// EventType discriminates the payload carried by a BotEvent.
type EventType string

const (
	EventMessage   EventType = "message"
	EventUserJoin  EventType = "user_join"
	EventUserLeave EventType = "user_leave"
	EventError     EventType = "error"
)

// BotEvent is the envelope published on the event bridge. Data holds one of
// MessageEvent, MemberEvent, or ErrorEvent depending on Type.
type BotEvent struct {
	Type      EventType `json:"type"`
	Platform  Platform  `json:"platform"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageEvent is the payload of an EventMessage.
type MessageEvent struct {
	Message *Message `json:"message"`
	User    *User    `json:"user"`
}

// MemberEvent is the payload of EventUserJoin and EventUserLeave.
type MemberEvent struct {
	User *User `json:"user"`
}

// ErrorEvent is the payload of an EventError. Context carries free-form
// diagnostic fields such as chat_id or file_id.
type ErrorEvent struct {
	Err     error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}
