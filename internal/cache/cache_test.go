package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration, opts ...Option) *ResponseCache {
	t.Helper()
	store, err := NewLRUStore(4096)
	if err != nil {
		t.Fatalf("new lru store: %v", err)
	}
	return New(store, "copilot_agent", ttl, opts...)
}

func TestKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)
	first := c.Key("session-1", "list open purchase orders")
	second := c.Key("session-1", "list open purchase orders")
	if first != second {
		t.Fatalf("same input must derive the same key: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "copilot_agent:session:session-1:hash:") {
		t.Fatalf("unexpected key shape: %q", first)
	}
	suffix := first[strings.LastIndex(first, ":")+1:]
	if len(suffix) != hashKeyLength {
		t.Fatalf("hash suffix length = %d, want %d", len(suffix), hashKeyLength)
	}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)
	seen := make(map[string]string, 10000)
	for i := 0; i < 10000; i++ {
		input := fmt.Sprintf("query %d about invoice %d", i, i*7)
		key := c.Key("session-1", input)
		if prev, ok := seen[key]; ok {
			t.Fatalf("key collision between %q and %q", prev, input)
		}
		seen[key] = input
	}

	if c.Key("session-1", "hello") == c.Key("session-2", "hello") {
		t.Fatalf("same input in different sessions must not share a key")
	}
}

func TestGetReturnsWhatSetStored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	key := c.Key("session-1", "hello")

	if _, ok := c.Get(ctx, key); ok {
		t.Fatalf("expected miss before set")
	}

	c.Set(ctx, key, "cached response", 0)
	content, ok := c.Get(ctx, key)
	if !ok {
		t.Fatalf("expected hit after set")
	}
	if content != "cached response" {
		t.Fatalf("content = %q", content)
	}
}

func TestGetAfterTTLMissesAndDeletes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()
	clock := &now
	store, err := NewLRUStore(16)
	if err != nil {
		t.Fatalf("new lru store: %v", err)
	}
	c := New(store, "copilot_agent", time.Minute, WithClock(func() time.Time { return *clock }))

	key := c.Key("session-1", "hello")
	c.Set(ctx, key, "cached response", 15*time.Minute)

	*clock = now.Add(14 * time.Minute)
	if _, ok := c.Get(ctx, key); !ok {
		t.Fatalf("expected hit before expiry")
	}

	*clock = now.Add(15*time.Minute + time.Second)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatalf("expected miss after expiry")
	}
	if _, present, _ := store.Get(ctx, key); present {
		t.Fatalf("expired entry must be removed from the store")
	}
}

func TestSetOverwritesExistingEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache(t, time.Minute)
	key := c.Key("session-1", "hello")

	c.Set(ctx, key, "first", 0)
	c.Set(ctx, key, "second", 0)

	content, ok := c.Get(ctx, key)
	if !ok || content != "second" {
		t.Fatalf("expected overwrite to win, got %q ok=%v", content, ok)
	}
}

func TestUndecodableEntryIsTreatedAsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewLRUStore(16)
	if err != nil {
		t.Fatalf("new lru store: %v", err)
	}
	c := New(store, "copilot_agent", time.Minute)

	key := c.Key("session-1", "hello")
	if err := store.Set(ctx, key, "{not json"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	if _, ok := c.Get(ctx, key); ok {
		t.Fatalf("expected miss for undecodable entry")
	}
	if _, present, _ := store.Get(ctx, key); present {
		t.Fatalf("undecodable entry must be removed from the store")
	}
}

func TestInvalidateRemovesMatchingKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache(t, time.Minute)

	keyA := c.Key("session-a", "hello")
	keyB := c.Key("session-b", "hello")
	c.Set(ctx, keyA, "a", 0)
	c.Set(ctx, keyB, "b", 0)

	c.Invalidate(ctx, "copilot_agent:session:session-a:*")

	if _, ok := c.Get(ctx, keyA); ok {
		t.Fatalf("expected session-a entries to be invalidated")
	}
	if _, ok := c.Get(ctx, keyB); !ok {
		t.Fatalf("session-b entries must survive")
	}
}

// failingStore reports an error on every operation.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("store down")
}
func (failingStore) Set(ctx context.Context, key, value string) error {
	return errors.New("store down")
}
func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("store down")
}
func (failingStore) Keys(ctx context.Context) ([]string, error) {
	return nil, errors.New("store down")
}

func TestStoreFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(failingStore{}, "copilot_agent", time.Minute)
	key := c.Key("session-1", "hello")

	// None of these may panic or surface the store error.
	c.Set(ctx, key, "content", 0)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatalf("expected miss when the store is down")
	}
	c.Invalidate(ctx, "copilot_agent:*")
}
