package skills

import (
	"context"
	"sort"
	"strings"
	"sync"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
)

// Registry stores skill definitions. Names are unique case-insensitively.
type Registry interface {
	GetByName(ctx context.Context, name string) (*Skill, error)
	GetAll(ctx context.Context) ([]*Skill, error)
	GetActive(ctx context.Context) ([]*Skill, error)
	GetByService(ctx context.Context, serviceName string) ([]*Skill, error)
	GetByType(ctx context.Context, skillType string) ([]*Skill, error)
	Add(ctx context.Context, skill *Skill) error
	Update(ctx context.Context, skill *Skill) error
	Delete(ctx context.Context, name string) error
}

// MemoryRegistry is an in-process Registry. It hands out clones so callers
// never mutate stored definitions in place.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byName map[string]*Skill
	logger logging.Logger
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byName: make(map[string]*Skill),
		logger: logging.NewComponentLogger("SkillRegistry"),
	}
}

var _ Registry = (*MemoryRegistry)(nil)

func (r *MemoryRegistry) GetByName(ctx context.Context, name string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skill, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, agenterrors.New(agenterrors.KindNotFound, "skill %s not found", name)
	}
	return skill.Clone(), nil
}

func (r *MemoryRegistry) GetAll(ctx context.Context) ([]*Skill, error) {
	return r.filter(func(*Skill) bool { return true }), nil
}

func (r *MemoryRegistry) GetActive(ctx context.Context) ([]*Skill, error) {
	return r.filter(func(s *Skill) bool { return s.Active }), nil
}

func (r *MemoryRegistry) GetByService(ctx context.Context, serviceName string) ([]*Skill, error) {
	serviceName = strings.ToLower(serviceName)
	return r.filter(func(s *Skill) bool { return s.ServiceName == serviceName }), nil
}

func (r *MemoryRegistry) GetByType(ctx context.Context, skillType string) ([]*Skill, error) {
	skillType = strings.ToLower(skillType)
	return r.filter(func(s *Skill) bool { return s.Type == skillType }), nil
}

func (r *MemoryRegistry) Add(ctx context.Context, skill *Skill) error {
	if skill == nil || skill.Name == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "skill name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(skill.Name)
	if _, exists := r.byName[key]; exists {
		return agenterrors.New(agenterrors.KindConflict, "skill %s already registered", skill.Name)
	}
	r.byName[key] = skill.Clone()
	r.logger.Debug("Registered skill %s for service %s", skill.Name, skill.ServiceName)
	return nil
}

func (r *MemoryRegistry) Update(ctx context.Context, skill *Skill) error {
	if skill == nil || skill.Name == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "skill name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(skill.Name)
	if _, exists := r.byName[key]; !exists {
		return agenterrors.New(agenterrors.KindNotFound, "skill %s not found", skill.Name)
	}
	r.byName[key] = skill.Clone()
	return nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.byName[key]; !exists {
		return agenterrors.New(agenterrors.KindNotFound, "skill %s not found", name)
	}
	delete(r.byName, key)
	return nil
}

func (r *MemoryRegistry) filter(keep func(*Skill) bool) []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Skill
	for _, s := range r.byName {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
