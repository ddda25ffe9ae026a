package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatehub/internal/api"
	"debatehub/internal/apperr"
	"debatehub/internal/config"
	"debatehub/internal/index"
	"debatehub/internal/model"
	"debatehub/internal/service"
)

type stubStore struct {
	debates        []model.Debate
	createErr      error
	listErr        error
	getCalls       int
	listCalls      int
	byClientCalls  int
	createdDebates []model.Debate
}

func (s *stubStore) Create(_ context.Context, d *model.Debate) (*model.Debate, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	saved := *d
	saved.ID = int64(len(s.debates) + len(s.createdDebates) + 1)
	saved.CreatedAt = time.Now()
	s.createdDebates = append(s.createdDebates, saved)
	return &saved, nil
}

func (s *stubStore) List(_ context.Context) ([]model.DebateSummary, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.DebateSummary, 0, len(s.debates))
	for _, d := range s.debates {
		out = append(out, model.DebateSummary{
			ID: d.ID, Topic: d.Topic, UserRole: d.UserRole, ClientID: d.ClientID, CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

func (s *stubStore) GetByID(_ context.Context, id int64) (*model.Debate, error) {
	s.getCalls++
	for _, d := range s.debates {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: debate %d", apperr.ErrNotFound, id)
}

func (s *stubStore) ListByClient(_ context.Context, clientID string) ([]model.Debate, error) {
	s.byClientCalls++
	var out []model.Debate
	for _, d := range s.debates {
		if clientID == "" || d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

type stubChat struct {
	reply string
	err   error
	calls int
}

func (s *stubChat) Answer(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newApp(store api.DebateStore, chat api.ChatService) *fiber.App {
	app := fiber.New()
	api.RegisterRoutes(app, store, chat)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &payload))
	return resp, payload
}

func TestHealth(t *testing.T) {
	app := newApp(&stubStore{}, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	assert.NotEmpty(t, payload["timestamp"])
}

func TestListDebates(t *testing.T) {
	store := &stubStore{debates: []model.Debate{
		{ID: 2, Topic: "later", UserRole: "prop", ClientID: "u1", CreatedAt: time.Now()},
		{ID: 1, Topic: "earlier", UserRole: "opp", ClientID: "u1", CreatedAt: time.Now().Add(-time.Hour)},
	}}
	app := newApp(store, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodGet, "/api/debates", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := payload["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestGetDebateInvalidID(t *testing.T) {
	store := &stubStore{}
	app := newApp(store, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodGet, "/api/debates/not-an-id", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
	assert.Zero(t, store.getCalls, "malformed ids must not hit the store")
}

func TestGetDebateNotFound(t *testing.T) {
	app := newApp(&stubStore{}, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodGet, "/api/debates/12345", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
}

func TestGetDebateFound(t *testing.T) {
	store := &stubStore{debates: []model.Debate{{
		ID: 7, Topic: "zoos", UserRole: "opp", ClientID: "u1",
		ChatHistory: []model.ChatMessage{{Speaker: "user", Content: "zoos preserve species"}},
	}}}
	app := newApp(store, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodGet, "/api/debates/7", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "zoos", data["topic"])
}

func TestCreateDebateMissingFields(t *testing.T) {
	app := newApp(&stubStore{}, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodPost, "/api/debates", map[string]any{
		"topic": "only a topic",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
	msg, _ := payload["message"].(string)
	assert.Contains(t, msg, "clientId")
	assert.Contains(t, msg, "userRole")
}

func TestCreateDebate(t *testing.T) {
	store := &stubStore{}
	app := newApp(store, &stubChat{})
	resp, payload := doJSON(t, app, http.MethodPost, "/api/debates", map[string]any{
		"clientId": "u1",
		"topic":    "four-day work week",
		"userRole": "proposition",
		"chatHistory": []map[string]any{
			{"speaker": "user", "content": "productivity rises with rest"},
		},
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.NotZero(t, data["id"])
	require.Len(t, store.createdDebates, 1)
	assert.Equal(t, "four-day work week", store.createdDebates[0].Topic)
}

func TestChatMissingQuestion(t *testing.T) {
	store := &stubStore{}
	chat := &stubChat{}
	app := newApp(store, chat)
	resp, payload := doJSON(t, app, http.MethodPost, "/api/chat/rag", map[string]any{
		"clientId": "u1",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
	assert.Zero(t, chat.calls)
	assert.Zero(t, store.byClientCalls, "missing question must not touch the store")
}

func TestChatPipelineFailure(t *testing.T) {
	chat := &stubChat{err: fmt.Errorf("generating: %w", apperr.ErrGeneration)}
	app := newApp(&stubStore{}, chat)
	resp, payload := doJSON(t, app, http.MethodPost, "/api/chat/rag", map[string]any{
		"question": "how did I do?",
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, payload["success"])
	msg, _ := payload["message"].(string)
	assert.NotContains(t, msg, "generating", "internal detail must not leak")
}

// End-to-end over the real pipeline with in-process model fakes: seed two
// debates, ask about one topic, expect a generated reply.

type e2eEmbedder struct{}

func (e2eEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "uniform")),
		float32(strings.Count(lower, "curfew")),
		1,
	}
}

func (e e2eEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e e2eEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

type e2eGenerator struct{}

func (e2eGenerator) Complete(_ context.Context, _, user string) (string, error) {
	return "Based on your history: " + user[:40], nil
}

func TestChatEndToEnd(t *testing.T) {
	store := &stubStore{debates: []model.Debate{
		{
			ID: 1, Topic: "school uniforms", UserRole: "proposition", ClientID: "u1",
			ChatHistory: []model.ChatMessage{
				{Speaker: "user", Content: "uniforms level the playing field"},
				{Speaker: "opponent", Content: "uniforms suppress identity"},
			},
		},
		{
			ID: 2, Topic: "teen curfews", UserRole: "opposition", ClientID: "u1",
			ChatHistory: []model.ChatMessage{
				{Speaker: "user", Content: "curfews criminalise ordinary behaviour"},
				{Speaker: "opponent", Content: "curfews cut night-time crime"},
			},
		},
	}}
	rag := service.NewRAGService(store, e2eEmbedder{}, e2eGenerator{},
		func(context.Context) (index.Index, error) { return index.NewMemory(), nil },
		config.RAG{ChunkSize: 500, ChunkOverlap: 100, TopK: 5, CallTimeoutSecs: 5})
	app := newApp(store, rag)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/chat/rag", map[string]any{
		"question": "what was said about uniforms?",
		"clientId": "u1",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	reply, _ := payload["reply"].(string)
	assert.NotEmpty(t, reply)
	assert.Equal(t, 1, store.byClientCalls)
}

func TestChatEndToEndNoHistory(t *testing.T) {
	store := &stubStore{}
	rag := service.NewRAGService(store, e2eEmbedder{}, e2eGenerator{},
		func(context.Context) (index.Index, error) { return index.NewMemory(), nil },
		config.RAG{ChunkSize: 500, ChunkOverlap: 100, TopK: 5, CallTimeoutSecs: 5})
	app := newApp(store, rag)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/chat/rag", map[string]any{
		"question": "what did I argue?",
		"clientId": "u-unknown",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	reply, _ := payload["reply"].(string)
	assert.True(t, strings.HasPrefix(reply, "I couldn't find any debate history"), "got %q", reply)
}
