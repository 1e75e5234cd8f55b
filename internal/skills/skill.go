package skills

import (
	"strings"
	"time"

	"github.com/google/uuid"

	agenterrors "copilot/internal/errors"
)

// Common skill types. Type is free form; these are the values the default
// skill set uses.
const (
	TypeQuery  = "query"
	TypeAction = "action"
)

// Skill binds a conversational capability to a downstream service. The skill
// name doubles as the operation name sent to that service.
type Skill struct {
	ID            string    `json:"id" yaml:"-"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description" yaml:"description"`
	ServiceName   string    `json:"service_name" yaml:"service"`
	Type          string    `json:"type" yaml:"type"`
	Configuration string    `json:"configuration" yaml:"configuration"`
	Version       string    `json:"version" yaml:"version"`
	Active        bool      `json:"active" yaml:"-"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

// New creates an active skill. Name, service name and type are required.
func New(name, description, serviceName, skillType, configuration string) (*Skill, error) {
	if strings.TrimSpace(name) == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "skill name is required")
	}
	if strings.TrimSpace(serviceName) == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "skill service name is required")
	}
	if strings.TrimSpace(skillType) == "" {
		return nil, agenterrors.New(agenterrors.KindInvalidArgument, "skill type is required")
	}

	now := time.Now().UTC()
	return &Skill{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   description,
		ServiceName:   strings.ToLower(serviceName),
		Type:          strings.ToLower(skillType),
		Configuration: configuration,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Activate marks the skill routable.
func (s *Skill) Activate() {
	s.Active = true
	s.touch()
}

// Deactivate removes the skill from routing without deleting it.
func (s *Skill) Deactivate() {
	s.Active = false
	s.touch()
}

// UpdateConfiguration replaces the skill configuration blob.
func (s *Skill) UpdateConfiguration(configuration string) {
	s.Configuration = configuration
	s.touch()
}

// UpdateVersion replaces the skill version tag.
func (s *Skill) UpdateVersion(version string) {
	s.Version = version
	s.touch()
}

// Clone returns a deep copy.
func (s *Skill) Clone() *Skill {
	clone := *s
	return &clone
}

func (s *Skill) touch() {
	s.UpdatedAt = time.Now().UTC()
}
