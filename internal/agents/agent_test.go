package agents

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

func TestProcessDraftingTurn(t *testing.T) {
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		return `{"requirements": ["r1", "r2"], "communication": "added r2", "ready_for_next_workflow": true}`, nil
	})
	agent := testAgent(t, TypeRequirement, client)

	res, err := agent.Process(context.Background(), []Turn{
		{IsUser: true, Text: "add r2", Elements: map[string]json.RawMessage{"requirements": json.RawMessage(`["r1"]`)}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `["r1","r2"]`, string(res.Element))
	assert.Equal(t, "added r2", res.Message)
	assert.True(t, res.Ready)
	assert.Contains(t, res.Raw, "ready_for_next_workflow")
}

func TestProcessSurfacesContractError(t *testing.T) {
	var calls int32
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "not json at all", nil
	})
	agent := testAgent(t, TypeRequirement, client)

	_, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "hi"}})

	var contractErr *llm.ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestProcessHTMLRendering(t *testing.T) {
	var calls int32
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return `{"architecture": {"components": []}, "communication": "ok", "ready_for_next_workflow": false}`, nil
		}
		return `{"html": "<table></table>"}`, nil
	})
	agent := testAgent(t, TypeArchitecture, client)

	res, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "sketch it"}})
	require.NoError(t, err)

	var html string
	require.NoError(t, json.Unmarshal(res.HTML, &html))
	assert.Equal(t, "<table></table>", html)
}

func TestProcessHTMLFailureDoesNotFailTurn(t *testing.T) {
	var calls int32
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return `{"architecture": {"components": []}, "communication": "ok", "ready_for_next_workflow": false}`, nil
		}
		return "still not json", nil
	})
	agent := testAgent(t, TypeArchitecture, client)

	res, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "sketch it"}})
	require.NoError(t, err)

	assert.Nil(t, res.HTML)
	assert.JSONEq(t, `{"components": []}`, string(res.Element))
	// Main call plus the exhausted rendering attempts.
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
}
