package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"copilot/internal/cache"
	agenterrors "copilot/internal/errors"
	"copilot/internal/llm"
	"copilot/internal/logging"
	"copilot/internal/orchestrator"
	"copilot/internal/session"
	"copilot/internal/skills"
)

type scriptedCaller struct {
	response  string
	available bool
}

func (s *scriptedCaller) Call(ctx context.Context, service, operation, parameters string) (string, error) {
	return s.response, nil
}

func (s *scriptedCaller) IsAvailable(ctx context.Context, service string) (bool, error) {
	return s.available, nil
}

type testServer struct {
	server     *Server
	completion *llm.MockClient
}

func newTestServer(t *testing.T, responses ...string) *testServer {
	t.Helper()

	store := session.NewMemoryStore()
	lru, err := cache.NewLRUStore(256)
	if err != nil {
		t.Fatalf("new lru store: %v", err)
	}
	responseCache := cache.New(lru, "copilot_agent", 30*time.Minute)

	registry := skills.NewMemoryRegistry()
	if err := skills.Populate(context.Background(), registry, skills.Defaults()); err != nil {
		t.Fatalf("populate skills: %v", err)
	}
	router := skills.NewRouter(registry, &scriptedCaller{response: `{"ok":true}`, available: true}, logging.Nop())

	reg := prometheus.NewRegistry()
	completion := llm.NewMockClient(responses...)
	orch := orchestrator.New(store, responseCache, completion, router,
		orchestrator.NewMetrics(reg), orchestrator.Config{}, logging.Nop())

	return &testServer{
		server:     New(orch, registry, reg, DefaultConfig()),
		completion: completion,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sessions",
		`{"owner_id":"user-1","name":"chat","context":"quarter close"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	data := resp.Data.(map[string]any)
	return data["id"].(string)
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	rec := ts.do(t, http.MethodPost, "/api/sessions", `{"owner_id":"user-1","name":"chat"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	if !resp.Success {
		t.Fatalf("success = false: %s", resp.Error)
	}
	data := resp.Data.(map[string]any)
	if data["status"] != "active" || data["owner_id"] != "user-1" {
		t.Fatalf("data = %v", data)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	rec := ts.do(t, http.MethodPost, "/api/sessions", `{"name":"chat"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	rec := ts.do(t, http.MethodGet, "/api/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode(t, rec); resp.Success {
		t.Fatalf("success must be false")
	}
}

func TestSendMessageRecordsTranscript(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "the answer")
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"question?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	data := resp.Data.(map[string]any)
	if data["response"] != "the answer" {
		t.Fatalf("response = %v", data["response"])
	}

	rec = ts.do(t, http.MethodGet, "/api/sessions/"+id, "")
	view := decode(t, rec).Data.(map[string]any)
	messages := view["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	first := messages[0].(map[string]any)
	if first["type"] != "user" || first["sequence"].(float64) != 1 {
		t.Fatalf("first message = %v", first)
	}
}

func TestSendMessageToEndedSessionConflicts(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	id := ts.createSession(t)

	if rec := ts.do(t, http.MethodPut, "/api/sessions/"+id+"/end", ""); rec.Code != http.StatusOK {
		t.Fatalf("end: status %d", rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"late"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSendMessageFallsBackWithOK(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.completion.Fail(agenterrors.New(agenterrors.KindUpstreamUnavailable, "down"))
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback must answer 200, got %d", rec.Code)
	}
	data := decode(t, rec).Data.(map[string]any)
	if data["response"] != orchestrator.FallbackResponse {
		t.Fatalf("response = %v", data["response"])
	}
}

func TestPauseAndResumeEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodPut, "/api/sessions/"+id+"/pause", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pause: status %d", rec.Code)
	}
	if data := decode(t, rec).Data.(map[string]any); data["status"] != "paused" {
		t.Fatalf("status = %v", data["status"])
	}

	rec = ts.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"content":"hello"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("paused session must reject messages, got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, "/api/sessions/"+id+"/resume", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: status %d", rec.Code)
	}
}

func TestListSessionsByOwnerAndActive(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")
	first := ts.createSession(t)
	ts.createSession(t)
	if rec := ts.do(t, http.MethodPut, "/api/sessions/"+first+"/end", ""); rec.Code != http.StatusOK {
		t.Fatalf("end: status %d", rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/sessions?owner=user-1", "")
	if got := len(decode(t, rec).Data.([]any)); got != 2 {
		t.Fatalf("owner listing = %d sessions, want 2", got)
	}

	rec = ts.do(t, http.MethodGet, "/api/sessions", "")
	if got := len(decode(t, rec).Data.([]any)); got != 1 {
		t.Fatalf("active listing = %d sessions, want 1", got)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "generated")
	rec := ts.do(t, http.MethodPost, "/api/generate", `{"input":"summarize q3","context":"accounting"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if data := decode(t, rec).Data.(map[string]any); data["response"] != "generated" {
		t.Fatalf("response = %v", data["response"])
	}
}

func TestSkillEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")

	rec := ts.do(t, http.MethodGet, "/api/skills/available", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("available: status %d", rec.Code)
	}
	names := decode(t, rec).Data.([]any)
	if len(names) != len(skills.Defaults()) {
		t.Fatalf("names = %d, want %d", len(names), len(skills.Defaults()))
	}

	rec = ts.do(t, http.MethodGet, "/api/skills?service=hrservice", "")
	if got := len(decode(t, rec).Data.([]any)); got != 4 {
		t.Fatalf("hr skills = %d, want 4", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/skills/GetLeaveBalance/execute", `{"parameters":"employeeId=42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("execute: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Fatalf("execute body = %q", rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/skills/Daydream/execute", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown skill: status %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/skills/GetLeaveBalance/validate", "")
	if data := decode(t, rec).Data.(map[string]any); data["executable"] != true {
		t.Fatalf("validate = %v", data)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, "hi")

	rec := ts.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	if data := decode(t, rec).Data.(map[string]any); data["status"] != "ok" {
		t.Fatalf("health data = %v", data)
	}

	rec = ts.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rec.Code)
	}
}
