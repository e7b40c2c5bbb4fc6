package agents

import (
	"encoding/json"
	"fmt"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// assembleHistory builds the model prompt: the agent's system instruction
// first, then the conversation in order. User turns carry the document
// snapshot restricted to this agent's visible elements; the agent's own prior
// replies replay as raw model output under the assistant role; other agents'
// replies carry only their communication text.
func (a *Agent) assembleHistory(turns []Turn) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.desc.SystemInstruction})

	for _, t := range turns {
		switch {
		case t.IsUser:
			content, err := a.userContent(t)
			if err != nil {
				return nil, err
			}
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: content})
		case t.FromType == a.desc.Type:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: t.Raw})
		default:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: t.Text})
		}
	}
	return messages, nil
}

func (a *Agent) userContent(t Turn) (string, error) {
	payload := struct {
		Document    map[string]json.RawMessage `json:"document"`
		UserMessage string                     `json:"user_message"`
	}{
		Document:    a.scopedDocument(t.Elements),
		UserMessage: t.Text,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serialize document snapshot: %w", err)
	}
	return string(data), nil
}

// scopedDocument copies only the elements this agent is allowed to see.
func (a *Agent) scopedDocument(elements map[string]json.RawMessage) map[string]json.RawMessage {
	doc := make(map[string]json.RawMessage, len(a.desc.VisibleElements))
	for _, id := range a.desc.VisibleElements {
		if v, ok := elements[id]; ok {
			doc[id] = v
		}
	}
	return doc
}

// latestSnapshot returns the document elements of the most recent user turn.
// Fan-out workers generate against this frozen view.
func latestSnapshot(turns []Turn) map[string]json.RawMessage {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsUser {
			return turns[i].Elements
		}
	}
	return nil
}
