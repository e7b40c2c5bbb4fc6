package agents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// clientFunc adapts a function to llm.Client for stubbing.
type clientFunc func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)

func (f clientFunc) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	return f(ctx, messages, opts)
}

func testAgent(t *testing.T, typ Type, client llm.Client) *Agent {
	t.Helper()
	for _, d := range descriptors() {
		if d.Type == typ {
			return &Agent{desc: d, completer: llm.NewStructured(client, llm.Options{}), workers: 2}
		}
	}
	t.Fatalf("no descriptor for agent type %s", typ)
	return nil
}

func TestAssembleHistoryScopesVisibility(t *testing.T) {
	agent := testAgent(t, TypeReactLLD, nil)

	elements := map[string]json.RawMessage{
		"functional-requirements": json.RawMessage(`["users can list things"]`),
		"react-lld":               json.RawMessage(`[]`),
		"java-lld":                json.RawMessage(`[{"package":"com.example"}]`),
		"java-code":               json.RawMessage(`[{"path":"A.java","content":"class A {}"}]`),
	}
	turns := []Turn{
		{IsUser: true, FromType: TypeUser, Text: "design the list view", Elements: elements},
	}

	messages, err := agent.assembleHistory(turns)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)

	for _, m := range messages {
		assert.NotContains(t, m.Content, "java-code")
		assert.NotContains(t, m.Content, "class A {}")
		assert.NotContains(t, m.Content, "com.example")
	}
	assert.Contains(t, messages[1].Content, "users can list things")
	assert.Contains(t, messages[1].Content, "design the list view")
}

func TestAssembleHistoryRoles(t *testing.T) {
	agent := testAgent(t, TypeArchitecture, nil)

	turns := []Turn{
		{IsUser: true, FromType: TypeUser, Text: "sketch the architecture"},
		{FromType: TypeArchitecture, Text: "done", Raw: `{"architecture": {}, "communication": "done"}`},
		{FromType: TypeRequirement, Text: "requirements updated", Raw: `{"requirements": []}`},
	}

	messages, err := agent.assembleHistory(turns)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	// Own prior reply replays verbatim as the assistant.
	assert.Equal(t, llm.RoleAssistant, messages[2].Role)
	assert.Equal(t, `{"architecture": {}, "communication": "done"}`, messages[2].Content)

	// Another agent's reply carries only its communication text.
	assert.Equal(t, llm.RoleUser, messages[3].Role)
	assert.Equal(t, "requirements updated", messages[3].Content)
}

func TestUserContentShape(t *testing.T) {
	agent := testAgent(t, TypeRequirement, nil)

	content, err := agent.userContent(Turn{
		IsUser:   true,
		Text:     "add a login requirement",
		Elements: map[string]json.RawMessage{"requirements": json.RawMessage(`["r1"]`)},
	})
	require.NoError(t, err)

	var payload struct {
		Document    map[string]json.RawMessage `json:"document"`
		UserMessage string                     `json:"user_message"`
	}
	require.NoError(t, json.Unmarshal([]byte(content), &payload))
	assert.Equal(t, "add a login requirement", payload.UserMessage)
	assert.JSONEq(t, `["r1"]`, string(payload.Document["requirements"]))
}
