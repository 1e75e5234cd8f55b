package session

import (
	"time"

	"github.com/google/uuid"

	agenterrors "copilot/internal/errors"
)

// Status is the lifecycle state of a conversation session.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// MessageType tags who or what produced a message.
type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageAgent  MessageType = "agent"
	MessageSystem MessageType = "system"
	MessageTool   MessageType = "tool"
	MessageError  MessageType = "error"
)

const (
	// MaxContentLength bounds message content.
	MaxContentLength = 10000
	// MaxMetadataLength bounds the optional metadata blob.
	MaxMetadataLength = 2000
)

// Message is a single conversation entry. Immutable after creation except for
// the sequence number, which the store finalizes at persistence time.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Metadata  string      `json:"metadata,omitempty"`
	// Sequence starts at 0 (unassigned) and is numbered by the store based
	// on the persisted message count at write time.
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the conversation aggregate: ordered messages plus lifecycle
// status. It is a plain value object; the orchestrator holds per-request
// exclusivity, so no locking happens here.
type Session struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Context     string     `json:"context,omitempty"`
	Status      Status     `json:"status"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Messages    []Message  `json:"messages"`

	events []Event
}

// New creates a session in the Active state with zero messages.
func New(ownerID, name, description, context string) (*Session, error) {
	if ownerID == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "owner id is required")
	}
	if name == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "session name is required")
	}

	now := time.Now().UTC()
	s := &Session{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Context:     context,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    []Message{},
	}
	s.record(SessionStarted{SessionID: s.ID, OwnerID: ownerID, At: now})
	return s, nil
}

// AddMessage appends a message with an unassigned sequence number. Only
// active sessions accept messages.
func (s *Session) AddMessage(content string, msgType MessageType, metadata string) (*Message, error) {
	if s.Status != StatusActive {
		return nil, agenterrors.New(agenterrors.KindInvalidState,
			"cannot add messages to %s session %s", s.Status, s.ID)
	}
	if content == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "message content is required")
	}
	if len(content) > MaxContentLength {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument,
			"message content exceeds %d characters", MaxContentLength)
	}
	if len(metadata) > MaxMetadataLength {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument,
			"message metadata exceeds %d characters", MaxMetadataLength)
	}

	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Content:   content,
		Type:      msgType,
		Metadata:  metadata,
		CreatedAt: now,
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
	s.record(MessageAdded{SessionID: s.ID, MessageID: msg.ID, Type: msgType, At: now})

	return &s.Messages[len(s.Messages)-1], nil
}

// End transitions the session to Ended. Ending an already ended session is a
// no-op; Ended is terminal.
func (s *Session) End() {
	if s.Status == StatusEnded {
		return
	}
	now := time.Now().UTC()
	s.Status = StatusEnded
	s.EndedAt = &now
	s.UpdatedAt = now
	s.record(SessionEnded{SessionID: s.ID, OwnerID: s.OwnerID, At: now})
}

// Pause suspends an active session. Messages are rejected until Resume.
func (s *Session) Pause() error {
	if s.Status == StatusEnded {
		return agenterrors.New(agenterrors.KindInvalidState, "cannot pause ended session %s", s.ID)
	}
	s.Status = StatusPaused
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Resume returns a paused session to Active.
func (s *Session) Resume() error {
	if s.Status == StatusEnded {
		return agenterrors.New(agenterrors.KindInvalidState, "cannot resume ended session %s", s.ID)
	}
	s.Status = StatusActive
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateContext replaces the free-text context. Allowed in any status so the
// context can be refreshed for audit even on ended sessions.
func (s *Session) UpdateContext(context string) {
	s.Context = context
	s.UpdatedAt = time.Now().UTC()
}

func (s *Session) record(event Event) {
	s.events = append(s.events, event)
}

// DrainEvents returns the events emitted since the last drain and clears the
// list. Callers forward them to whatever sink they own; there is no global
// event bus.
func (s *Session) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// Clone returns a deep copy. Stores hand out clones so callers never share a
// mutable aggregate.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	cp.events = nil
	if s.EndedAt != nil {
		endedAt := *s.EndedAt
		cp.EndedAt = &endedAt
	}
	return &cp
}
