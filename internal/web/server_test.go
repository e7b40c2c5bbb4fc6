package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButterFlowQ/DesignGen/internal/agents"
	"github.com/ButterFlowQ/DesignGen/internal/document"
	"github.com/ButterFlowQ/DesignGen/internal/llm"
	"github.com/ButterFlowQ/DesignGen/internal/orchestrator"
	"github.com/ButterFlowQ/DesignGen/internal/schema"
)

type clientFunc func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)

func (f clientFunc) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return f(ctx, messages, opts)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := document.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := schema.Default()
	require.NoError(t, err)

	client := clientFunc(func(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
		if strings.Contains(messages[0].Content, "Requirements Analysis Agent") {
			return `{"requirements": ["r1"], "communication": "noted", "ready_for_next_workflow": false}`, nil
		}
		return "", fmt.Errorf("unexpected prompt")
	})
	registry, err := agents.NewRegistry(agents.RegistryConfig{
		Factory:      func(model string) (llm.Client, error) { return client, nil },
		DefaultModel: "anthropic:claude-3-5-sonnet-20241022",
	})
	require.NoError(t, err)

	orch := orchestrator.New(document.NewStore(db), registry, orchestrator.NewRouter(client, s), s, 0)
	return NewServer(orch)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doRequest(t, srv, http.MethodPost, "/documents", `{"title": "meal delivery"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := body["document"].(map[string]any)
	assert.Equal(t, "meal delivery", doc["title"])
	docID := int64(doc["id"].(float64))

	rec, body = doRequest(t, srv, http.MethodPost,
		fmt.Sprintf("/documents/%d/chat", docID),
		`{"message": "add a requirement", "target": "requirements"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	version := body["version"].(map[string]any)
	assert.EqualValues(t, 2, version["version"])
	agentMsg := body["agent_message"].(map[string]any)
	assert.Equal(t, "requirement", agentMsg["from_agent_type"])

	rec, body = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/documents/%d", docID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["document"].(map[string]any)["latest_version"])

	rec, body = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/documents/%d/versions", docID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["versions"], 2)

	rec, body = doRequest(t, srv, http.MethodPost,
		fmt.Sprintf("/documents/%d/revert", docID), `{"version": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["version"].(map[string]any)["version"])

	rec, body = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/documents/%d/messages", docID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	// The agent message was soft-deleted by the revert.
	assert.Len(t, body["messages"], 1)
}

func TestFailureStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/documents/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, srv, http.MethodPost, "/documents", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body := doRequest(t, srv, http.MethodPost, "/documents", `{"title": "doc"}`)
	docID := int64(body["document"].(map[string]any)["id"].(float64))

	rec, _ = doRequest(t, srv, http.MethodPost,
		fmt.Sprintf("/documents/%d/chat", docID),
		`{"message": "write the brochure", "target": "marketing"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
