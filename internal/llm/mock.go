package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable CompletionClient for tests. Responses are
// consumed in order; when the queue is empty the last response repeats. A
// non-nil Err wins over any scripted response.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []CompletionRequest
}

// NewMockClient scripts the given responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

var _ CompletionClient = (*MockClient)(nil)

// Fail makes every subsequent Complete return err.
func (m *MockClient) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}

	content := "ok"
	switch {
	case len(m.responses) == 0:
	case len(m.responses) == 1:
		content = m.responses[0]
	default:
		content = m.responses[0]
		m.responses = m.responses[1:]
	}
	return &CompletionResponse{Content: content, Model: "mock"}, nil
}
