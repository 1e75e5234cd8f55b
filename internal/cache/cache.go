package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"copilot/internal/logging"
)

const (
	// DefaultTTL applies when Set is called without an explicit TTL.
	DefaultTTL = 30 * time.Minute

	hashKeyLength = 16
)

// Entry is the wire format stored in the backing KV store. Any
// deserialization failure is treated as a miss.
type Entry struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the key/value layer the response cache sits on. Implementations
// may be remote; every failure they report is absorbed by the cache.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// ResponseCache maps derived keys to previously generated responses with an
// absolute expiry. Entries are immutable once written and writes are
// idempotent overwrites, so concurrent writers simply race on last-write-wins
// for content that is a deterministic function of the same input.
//
// Caching is an optimization, never a correctness requirement: every failure
// is logged and swallowed so the caller falls back to doing the expensive
// work.
type ResponseCache struct {
	store      Store
	namespace  string
	defaultTTL time.Duration
	logger     logging.Logger
	now        func() time.Time
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithLogger overrides the component logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *ResponseCache) { c.logger = logging.OrNop(logger) }
}

// WithClock overrides the time source. Tests use it to step past TTLs.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// New creates a ResponseCache over the given store. An empty namespace falls
// back to "copilot_agent"; a non-positive defaultTTL falls back to
// DefaultTTL.
func New(store Store, namespace string, defaultTTL time.Duration, opts ...Option) *ResponseCache {
	if namespace == "" {
		namespace = "copilot_agent"
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &ResponseCache{
		store:      store,
		namespace:  namespace,
		defaultTTL: defaultTTL,
		logger:     logging.NewComponentLogger("ResponseCache"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives a deterministic cache key from session id and user input: a
// namespace-salted SHA-256 digest truncated to 16 base64url characters. If
// hashing fails the key is seeded with wall-clock time so the lookup simply
// always misses instead of failing the caller.
func (c *ResponseCache) Key(sessionID, userInput string) string {
	h := sha256.New()
	if _, err := io.WriteString(h, c.namespace+"|"+sessionID+":"+userInput); err != nil {
		c.logger.Error("Key derivation failed for session %s: %v", sessionID, err)
		return fmt.Sprintf("%s:session:%s:fallback:%d", c.namespace, sessionID, c.now().UnixNano())
	}
	digest := base64.RawURLEncoding.EncodeToString(h.Sum(nil))[:hashKeyLength]
	return fmt.Sprintf("%s:session:%s:hash:%s", c.namespace, sessionID, digest)
}

// Get returns the cached content for key, or absent. Expired and undecodable
// entries are deleted as a side effect of the miss.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("Cache read failed for key %s: %v", key, err)
		return "", false
	}
	if !ok {
		c.logger.Debug("Cache miss for key %s", key)
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("Dropping undecodable cache entry %s: %v", key, err)
		c.delete(ctx, key)
		return "", false
	}

	if !c.now().Before(entry.ExpiresAt) {
		c.logger.Debug("Removing expired cache entry %s", key)
		c.delete(ctx, key)
		return "", false
	}

	c.logger.Debug("Cache hit for key %s", key)
	return entry.Content, true
}

// Set stores content under key with expiry now + ttl, overwriting any
// existing entry. A non-positive ttl selects the default.
func (c *ResponseCache) Set(ctx context.Context, key, content string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	entry := Entry{
		Content:   content,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("Cache encode failed for key %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		c.logger.Error("Cache write failed for key %s: %v", key, err)
		return
	}
	c.logger.Debug("Cached response for key %s, expires at %s", key, entry.ExpiresAt.Format(time.RFC3339))
}

// Invalidate removes entries whose keys match pattern (path.Match syntax,
// with a substring fallback for malformed patterns). Best effort: failures
// never propagate.
func (c *ResponseCache) Invalidate(ctx context.Context, pattern string) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.logger.Error("Cache invalidation scan failed for pattern %s: %v", pattern, err)
		return
	}

	removed := 0
	for _, key := range keys {
		matched, err := path.Match(pattern, key)
		if err != nil {
			matched = strings.Contains(key, pattern)
		}
		if matched {
			c.delete(ctx, key)
			removed++
		}
	}
	c.logger.Info("Invalidated %d cache entries matching %s", removed, pattern)
}

// InvalidateSession removes every entry cached for sessionID.
func (c *ResponseCache) InvalidateSession(ctx context.Context, sessionID string) {
	c.Invalidate(ctx, fmt.Sprintf("%s:session:%s:*", c.namespace, sessionID))
}

func (c *ResponseCache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("Cache delete failed for key %s: %v", key, err)
	}
}
