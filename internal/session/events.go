package session

import "time"

// Event is a fact recorded by the aggregate during a mutation. Events are
// collected in-aggregate and drained by the caller after a successful
// persist.
type Event interface {
	EventName() string
}

// SessionStarted is emitted when a session is created.
type SessionStarted struct {
	SessionID string
	OwnerID   string
	At        time.Time
}

func (SessionStarted) EventName() string { return "session.started" }

// SessionEnded is emitted on the first End call.
type SessionEnded struct {
	SessionID string
	OwnerID   string
	At        time.Time
}

func (SessionEnded) EventName() string { return "session.ended" }

// MessageAdded is emitted for every appended message.
type MessageAdded struct {
	SessionID string
	MessageID string
	Type      MessageType
	At        time.Time
}

func (MessageAdded) EventName() string { return "session.message_added" }
