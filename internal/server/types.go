package server

import (
	"time"

	"copilot/internal/session"
	"copilot/internal/skills"
)

// APIResponse - standard envelope for every JSON endpoint
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreateSessionRequest - session creation payload
type CreateSessionRequest struct {
	OwnerID     string `json:"owner_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Context     string `json:"context"`
}

// MessageRequest - chat turn payload
type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageResponse - the agent's answer to one chat turn
type MessageResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// GenerateRequest - one-shot generation payload
type GenerateRequest struct {
	Input   string `json:"input" binding:"required"`
	Context string `json:"context"`
}

// ExecuteSkillRequest - skill invocation payload
type ExecuteSkillRequest struct {
	Parameters string `json:"parameters"`
}

// SessionView - session representation on the wire
type SessionView struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"owner_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Context     string        `json:"context,omitempty"`
	Status      string        `json:"status"`
	Messages    []MessageView `json:"messages"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
}

// MessageView - message representation on the wire
type MessageView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Metadata  string    `json:"metadata,omitempty"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// SkillView - skill representation on the wire
type SkillView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ServiceName string `json:"service_name"`
	Type        string `json:"type"`
	Version     string `json:"version,omitempty"`
	Active      bool   `json:"active"`
}

// HealthResponse - health endpoint body
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

func sessionView(s *session.Session) SessionView {
	messages := make([]MessageView, 0, len(s.Messages))
	for _, m := range s.Messages {
		messages = append(messages, MessageView{
			ID:        m.ID,
			Content:   m.Content,
			Type:      string(m.Type),
			Metadata:  m.Metadata,
			Sequence:  m.Sequence,
			CreatedAt: m.CreatedAt,
		})
	}
	return SessionView{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: s.Description,
		Context:     s.Context,
		Status:      string(s.Status),
		Messages:    messages,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		EndedAt:     s.EndedAt,
	}
}

func sessionViews(sessions []*session.Session) []SessionView {
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView(s))
	}
	return out
}

func skillView(s *skills.Skill) SkillView {
	return SkillView{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		ServiceName: s.ServiceName,
		Type:        s.Type,
		Version:     s.Version,
		Active:      s.Active,
	}
}
