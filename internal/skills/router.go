package skills

import (
	"context"

	agenterrors "copilot/internal/errors"
	"copilot/internal/external"
	"copilot/internal/logging"
)

// ServiceCaller is the downstream surface the router needs. Satisfied by
// *external.Client.
type ServiceCaller interface {
	Call(ctx context.Context, service, operation, parameters string) (string, error)
	IsAvailable(ctx context.Context, service string) (bool, error)
}

// Router resolves skill names to downstream service calls. The skill name is
// forwarded as the operation name.
type Router struct {
	registry Registry
	caller   ServiceCaller
	logger   logging.Logger
}

// NewRouter wires a registry to a service caller.
func NewRouter(registry Registry, caller ServiceCaller, logger logging.Logger) *Router {
	return &Router{
		registry: registry,
		caller:   caller,
		logger:   logging.OrNop(logger),
	}
}

// Route executes skillName against its bound service and returns the raw
// response body. Missing and inactive skills both surface as NotFound so
// callers cannot distinguish a disabled capability from an absent one. A
// skill bound to a service outside the routing table is UnsupportedBackend.
func (r *Router) Route(ctx context.Context, skillName, parameters string) (string, error) {
	skill, err := r.registry.GetByName(ctx, skillName)
	if err != nil {
		return "", err
	}
	if !skill.Active {
		return "", agenterrors.New(agenterrors.KindNotFound, "skill %s not found or inactive", skillName)
	}
	if !external.IsKnownService(skill.ServiceName) {
		return "", agenterrors.New(agenterrors.KindUnsupportedBackend,
			"skill %s is bound to unsupported service %s", skillName, skill.ServiceName)
	}

	r.logger.Info("Executing skill %s via %s", skill.Name, skill.ServiceName)
	return r.caller.Call(ctx, skill.ServiceName, skill.Name, parameters)
}

// ListAvailable returns the names of all active skills, sorted.
func (r *Router) ListAvailable(ctx context.Context) ([]string, error) {
	active, err := r.registry.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(active))
	for _, skill := range active {
		names = append(names, skill.Name)
	}
	return names, nil
}

// Validate reports whether skillName can currently execute: the skill exists,
// is active, and its backing service answers its health probe. Failures of
// any kind report false rather than an error.
func (r *Router) Validate(ctx context.Context, skillName string) bool {
	skill, err := r.registry.GetByName(ctx, skillName)
	if err != nil {
		r.logger.Debug("Validation failed for skill %s: %v", skillName, err)
		return false
	}
	if !skill.Active {
		return false
	}

	available, err := r.caller.IsAvailable(ctx, skill.ServiceName)
	if err != nil {
		r.logger.Warn("Availability probe failed for skill %s: %v", skillName, err)
		return false
	}
	return available
}
