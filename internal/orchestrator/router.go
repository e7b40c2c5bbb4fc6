// Package orchestrator drives document turns: it routes a user message to a
// workflow element, runs that element's agent, commits the resulting version,
// and chains follow-up turns while agents signal readiness.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
	"github.com/ButterFlowQ/DesignGen/internal/schema"
)

// RoutingError reports a classification naming no known workflow element.
// Routing never falls back to a default silently.
type RoutingError struct {
	AgentID string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routed to unknown workflow element %q", e.AgentID)
}

var routeFields = map[string]string{"agent_id": "agent_id"}

// Router picks the workflow element a user turn addresses.
type Router struct {
	completer *llm.Structured
	schema    schema.Schema
}

// NewRouter builds a router over the given classification client.
func NewRouter(client llm.Client, s schema.Schema) *Router {
	return &Router{completer: llm.NewStructured(client, llm.Options{}), schema: s}
}

// Route returns the schema's first element for an empty conversation, and
// otherwise classifies the message against the elements' relevancy prompts.
func (r *Router) Route(ctx context.Context, hasHistory bool, userText string) (schema.Element, error) {
	if !hasHistory {
		return r.schema.First(), nil
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: r.instruction()},
		{Role: llm.RoleUser, Content: userText},
	}
	out, err := r.completer.Respond(ctx, messages, routeFields)
	if err != nil {
		return schema.Element{}, fmt.Errorf("route turn: %w", err)
	}

	id, _ := out["agent_id"].(string)
	el, ok := r.schema.ElementByID(strings.TrimSpace(id))
	if !ok {
		return schema.Element{}, &RoutingError{AgentID: id}
	}
	return el, nil
}

func (r *Router) instruction() string {
	var b strings.Builder
	b.WriteString("You are a router in a system design pipeline. ")
	b.WriteString("Given a user message, decide which part of the design document it concerns.\n\n")
	b.WriteString("Known elements:\n")
	for _, el := range r.schema.Elements {
		fmt.Fprintf(&b, "- **%s**: %s\n", el.ID, el.RelevancyPrompt)
	}
	b.WriteString("\nRespond with a single JSON object in the following format:\n")
	b.WriteString(`{"agent_id": "<element id from the list above>"}`)
	return b.String()
}
