package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

var htmlFields = map[string]string{
	RoleMessage: "html",
}

// renderHTML asks the model for an HTML view of the freshly updated element.
// It is a pure transform of an already-accepted value, never a retry point
// for the turn itself.
func (a *Agent) renderHTML(ctx context.Context, element json.RawMessage) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]json.RawMessage{"doc element": element})
	if err != nil {
		return nil, fmt.Errorf("serialize element: %w", err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: htmlInstruction},
		{Role: llm.RoleUser, Content: string(payload)},
	}
	out, err := a.completer.Respond(ctx, messages, htmlFields)
	if err != nil {
		return nil, err
	}
	html, ok := out[RoleMessage].(string)
	if !ok {
		return nil, fmt.Errorf("html rendering is not a string")
	}
	return json.Marshal(html)
}
