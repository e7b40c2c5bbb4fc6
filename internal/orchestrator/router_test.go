package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
	"github.com/ButterFlowQ/DesignGen/internal/schema"
)

type clientFunc func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)

func (f clientFunc) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return f(ctx, messages, opts)
}

func TestRouteBootstrapsFirstElement(t *testing.T) {
	var completions int32
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		atomic.AddInt32(&completions, 1)
		return `{"agent_id": "architecture"}`, nil
	})
	s, err := schema.Default()
	require.NoError(t, err)
	router := NewRouter(client, s)

	el, err := router.Route(context.Background(), false, "let's get started")
	require.NoError(t, err)
	assert.Equal(t, "requirements", el.ID)
	assert.Zero(t, atomic.LoadInt32(&completions))
}

func TestRouteClassifies(t *testing.T) {
	client := clientFunc(func(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
		assert.Contains(t, messages[0].Content, "database-schema")
		return `{"agent_id": "database-schema"}`, nil
	})
	s, err := schema.Default()
	require.NoError(t, err)
	router := NewRouter(client, s)

	el, err := router.Route(context.Background(), true, "add an index on orders")
	require.NoError(t, err)
	assert.Equal(t, "database-schema", el.ID)
}

func TestRouteUnknownElement(t *testing.T) {
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		return `{"agent_id": "marketing"}`, nil
	})
	s, err := schema.Default()
	require.NoError(t, err)
	router := NewRouter(client, s)

	_, err = router.Route(context.Background(), true, "write the brochure")
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, "marketing", routingErr.AgentID)
}
