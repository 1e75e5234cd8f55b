package orchestrator

import (
	"context"
	"time"

	"copilot/internal/cache"
	agenterrors "copilot/internal/errors"
	"copilot/internal/llm"
	"copilot/internal/logging"
	"copilot/internal/session"
	"copilot/internal/skills"
)

// FallbackResponse is returned to the user when generation fails after
// retries. The failure is still recorded on the session as an error message.
const FallbackResponse = "I apologize, but I encountered an error while processing your request. Please try again."

// emptyResponse substitutes for a completion that produced no content.
const emptyResponse = "I apologize, but I couldn't generate a response at this time."

// Config holds the generation parameters applied to every completion.
type Config struct {
	ResponseTTL time.Duration
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultConfig returns the standard generation parameters.
func DefaultConfig() Config {
	return Config{
		ResponseTTL: 15 * time.Minute,
		MaxTokens:   1000,
		Temperature: 0.7,
		TopP:        0.95,
	}
}

// Orchestrator coordinates sessions, the response cache, the completion
// backend and skill routing behind one conversational surface.
type Orchestrator struct {
	store      session.Store
	cache      *cache.ResponseCache
	completion llm.CompletionClient
	router     *skills.Router
	metrics    *Metrics
	config     Config
	logger     logging.Logger
}

// New wires an Orchestrator. Zero config fields fall back to the defaults.
func New(store session.Store, responseCache *cache.ResponseCache, completion llm.CompletionClient,
	router *skills.Router, metrics *Metrics, config Config, logger logging.Logger) *Orchestrator {
	defaults := DefaultConfig()
	if config.ResponseTTL <= 0 {
		config.ResponseTTL = defaults.ResponseTTL
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = defaults.Temperature
	}
	if config.TopP <= 0 {
		config.TopP = defaults.TopP
	}
	return &Orchestrator{
		store:      store,
		cache:      responseCache,
		completion: completion,
		router:     router,
		metrics:    metrics,
		config:     config,
		logger:     logging.OrNop(logger),
	}
}

// StartSession creates and persists a new session for ownerID.
func (o *Orchestrator) StartSession(ctx context.Context, ownerID, name, description, sessionContext string) (*session.Session, error) {
	s, err := session.New(ownerID, name, description, sessionContext)
	if err != nil {
		return nil, err
	}
	if err := o.store.Add(ctx, s); err != nil {
		return nil, err
	}
	o.metrics.ActiveSessions.Inc()
	o.drainEvents(s)
	o.logger.Info("Started session %s for owner %s", s.ID, ownerID)
	return s, nil
}

// GetSession loads a session by id.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return o.store.GetByID(ctx, sessionID)
}

// ListSessionsByOwner lists sessions owned by ownerID, newest first.
func (o *Orchestrator) ListSessionsByOwner(ctx context.Context, ownerID string) ([]*session.Session, error) {
	return o.store.GetByOwner(ctx, ownerID)
}

// ListActiveSessions lists all active sessions, newest first.
func (o *Orchestrator) ListActiveSessions(ctx context.Context) ([]*session.Session, error) {
	return o.store.ListActive(ctx)
}

// EndSession ends the session and drops its cached responses. Ending an
// already ended session is a no-op.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) (*session.Session, error) {
	s, err := o.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	wasActive := s.Status == session.StatusActive
	s.End()
	if err := o.store.Update(ctx, s); err != nil {
		return nil, err
	}
	if wasActive {
		o.metrics.ActiveSessions.Dec()
	}
	o.cache.InvalidateSession(ctx, sessionID)
	o.drainEvents(s)
	o.logger.Info("Ended session %s", sessionID)
	return s, nil
}

// PauseSession suspends message processing for the session.
func (o *Orchestrator) PauseSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return o.mutateSession(ctx, sessionID, (*session.Session).Pause)
}

// ResumeSession reactivates a paused session.
func (o *Orchestrator) ResumeSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return o.mutateSession(ctx, sessionID, (*session.Session).Resume)
}

func (o *Orchestrator) mutateSession(ctx context.Context, sessionID string, mutate func(*session.Session) error) (*session.Session, error) {
	s, err := o.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := mutate(s); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, s); err != nil {
		return nil, err
	}
	o.drainEvents(s)
	return s, nil
}

// ProcessUserMessage records the user turn, answers it from the cache or a
// fresh completion, records the agent turn and persists the session. A
// generation failure degrades to FallbackResponse instead of an error; only
// cancellation and session or store failures propagate.
func (o *Orchestrator) ProcessUserMessage(ctx context.Context, sessionID, userInput string) (string, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		o.metrics.RequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	o.logger.Info("Processing user message for session %s", sessionID)

	s, err := o.store.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if _, err := s.AddMessage(userInput, session.MessageUser, ""); err != nil {
		return "", err
	}

	key := o.cache.Key(s.ID, userInput)
	if content, ok := o.cache.Get(ctx, key); ok {
		o.metrics.CacheHits.Inc()
		if _, err := s.AddMessage(content, session.MessageAgent, ""); err != nil {
			return "", err
		}
		if err := o.store.Update(ctx, s); err != nil {
			return "", err
		}
		o.drainEvents(s)
		o.logger.Debug("Returning cached response for session %s", sessionID)
		outcome = "cache_hit"
		return content, nil
	}
	o.metrics.CacheMisses.Inc()

	resp, err := o.completion.Complete(ctx, llm.CompletionRequest{
		Messages:    buildMessages(userInput, s.Context),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
		TopP:        o.config.TopP,
	})
	if err != nil {
		if agenterrors.IsCancelled(err) {
			return "", err
		}
		o.metrics.CompletionFailures.Inc()
		o.logger.Error("Completion failed for session %s: %v", sessionID, err)
		return o.recordFallback(ctx, s), nil
	}

	content := resp.Content
	if content == "" {
		content = emptyResponse
	}
	if _, err := s.AddMessage(content, session.MessageAgent, ""); err != nil {
		return "", err
	}
	if err := o.store.Update(ctx, s); err != nil {
		return "", err
	}
	o.drainEvents(s)

	o.cache.Set(ctx, key, content, o.config.ResponseTTL)
	o.logger.Info("User message processed for session %s", sessionID)
	outcome = "success"
	return content, nil
}

// recordFallback appends the apology as an error message and persists it best
// effort. The user always gets the fallback text back.
func (o *Orchestrator) recordFallback(ctx context.Context, s *session.Session) string {
	if _, err := s.AddMessage(FallbackResponse, session.MessageError, ""); err != nil {
		o.logger.Warn("Failed to record fallback on session %s: %v", s.ID, err)
		return FallbackResponse
	}
	if err := o.store.Update(ctx, s); err != nil {
		o.logger.Warn("Failed to persist fallback on session %s: %v", s.ID, err)
	}
	o.drainEvents(s)
	return FallbackResponse
}

// GenerateResponse produces a one-shot completion outside any session. No
// cache is consulted and errors propagate to the caller.
func (o *Orchestrator) GenerateResponse(ctx context.Context, userInput, promptContext string) (string, error) {
	resp, err := o.completion.Complete(ctx, llm.CompletionRequest{
		Messages:    buildMessages(userInput, promptContext),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
		TopP:        o.config.TopP,
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return emptyResponse, nil
	}
	return resp.Content, nil
}

// ExecuteSkill routes a skill invocation to its downstream service.
func (o *Orchestrator) ExecuteSkill(ctx context.Context, skillName, parameters string) (string, error) {
	return o.router.Route(ctx, skillName, parameters)
}

// ListSkills names the skills currently available for routing.
func (o *Orchestrator) ListSkills(ctx context.Context) ([]string, error) {
	return o.router.ListAvailable(ctx)
}

// ValidateSkill reports whether a skill can execute right now.
func (o *Orchestrator) ValidateSkill(ctx context.Context, skillName string) bool {
	return o.router.Validate(ctx, skillName)
}

func (o *Orchestrator) drainEvents(s *session.Session) {
	for _, event := range s.DrainEvents() {
		o.logger.Debug("Session %s event: %s", s.ID, event.EventName())
	}
}
