package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

func fileNameFrom(t *testing.T, messages []llm.Message) string {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(messages[len(messages)-1].Content), &payload))
	name, _ := payload["file name"].(string)
	return name
}

func TestProcessFanOut(t *testing.T) {
	client := clientFunc(func(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
		if strings.Contains(messages[0].Content, "plan the backend source files") {
			return `{"files": ["com/example/A.java", "com/example/B.java"], "communication": "two files"}`, nil
		}
		name := fileNameFrom(t, messages)
		return fmt.Sprintf(`{"file content": "// %s", "communication": "done"}`, name), nil
	})
	agent := testAgent(t, TypeJavaCodeGenerator, client)

	res, err := agent.Process(context.Background(), []Turn{
		{IsUser: true, Text: "generate the code", Elements: map[string]json.RawMessage{
			"java-lld": json.RawMessage(`[{"package":"com.example"}]`),
		}},
	})
	require.NoError(t, err)

	var files []GeneratedFile
	require.NoError(t, json.Unmarshal(res.Element, &files))
	require.Len(t, files, 2)
	assert.Equal(t, GeneratedFile{Path: "com/example/A.java", Content: "// com/example/A.java"}, files[0])
	assert.Equal(t, GeneratedFile{Path: "com/example/B.java", Content: "// com/example/B.java"}, files[1])
	assert.Equal(t, "two files", res.Message)
}

func TestProcessFanOutAggregatesFailures(t *testing.T) {
	boom := errors.New("boom")
	client := clientFunc(func(_ context.Context, messages []llm.Message, _ llm.Options) (string, error) {
		if strings.Contains(messages[0].Content, "plan the backend source files") {
			return `{"files": ["A.java", "B.java"], "communication": "two files"}`, nil
		}
		if strings.Contains(messages[len(messages)-1].Content, "B.java") {
			return "", boom
		}
		return `{"file content": "// ok", "communication": "done"}`, nil
	})
	agent := testAgent(t, TypeJavaCodeGenerator, client)

	_, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "generate"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B.java")
	assert.ErrorIs(t, err, boom)
}

func TestProcessFanOutRejectsBadPlan(t *testing.T) {
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		return `{"files": "not a list", "communication": "oops"}`, nil
	})
	agent := testAgent(t, TypeJavaCodeGenerator, client)

	_, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "generate"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file plan")
}

func TestProcessFanOutEmptyPlan(t *testing.T) {
	client := clientFunc(func(_ context.Context, _ []llm.Message, _ llm.Options) (string, error) {
		return `{"files": [], "communication": "which module should I generate?"}`, nil
	})
	agent := testAgent(t, TypeReactCodeGenerator, client)

	res, err := agent.Process(context.Background(), []Turn{{IsUser: true, Text: "generate"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(res.Element))
	assert.Equal(t, "which module should I generate?", res.Message)
}
