// Package agents holds the document-drafting agents: a closed table of
// descriptors (one per agent type), the conversation assembly that scopes the
// document to what each agent may see, and the process step that turns a chat
// history into a structured update of the one element the agent owns.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// Type identifies an agent variant.
type Type string

const (
	TypeUser                     Type = "user"
	TypeRequirement              Type = "requirement"
	TypeFunctionalRequirement    Type = "functional_requirement"
	TypeNonFunctionalRequirement Type = "non_functional_requirement"
	TypeArchitecture             Type = "architecture"
	TypeAPIContract              Type = "api_contract"
	TypeDatabaseSchema           Type = "database_schema"
	TypeJavaLLD                  Type = "java_lld"
	TypeReactLLD                 Type = "react_lld"
	TypeJavaCodeGenerator        Type = "java_code_generator"
	TypeReactCodeGenerator       Type = "react_code_generator"
)

// Semantic roles of the response contract. Keys of a descriptor's Fields map
// are roles; values are the JSON keys the model must emit for them.
const (
	RoleUpdatedElement = "updated_doc_element"
	RoleMessage        = "response_message"
	RoleMoveNext       = "move_to_next_workflow"
)

// Descriptor is the static configuration of one agent type. Agents are
// descriptor values in a compile-time table, not subtypes; behavior varies
// only through these fields.
type Descriptor struct {
	Type              Type
	OwnedElement      string
	VisibleElements   []string
	SystemInstruction string
	// Fields maps semantic role to the JSON key required in the response.
	Fields map[string]string
	// Model is a provider-prefixed override; empty means the configured
	// default model.
	Model string
	// HTML marks agents whose updated element gets a secondary HTML
	// rendering pass after a successful turn.
	HTML bool
	// FanOut marks code-generation agents that plan a file list first and
	// generate each file's content on a worker pool.
	FanOut bool
	// FileInstruction is the system instruction of the per-file generation
	// pass. Set only when FanOut is.
	FileInstruction string
}

func (d Descriptor) declaresReady() bool {
	_, ok := d.Fields[RoleMoveNext]
	return ok
}

// Turn is one persisted conversation entry replayed into the prompt.
type Turn struct {
	IsUser   bool
	FromType Type
	// Text is the user's message, or the agent's communication message.
	Text string
	// Raw is the full raw model output for agent turns.
	Raw string
	// Elements is the document snapshot the turn was made against.
	Elements map[string]json.RawMessage
}

// Result is the outcome of one agent turn.
type Result struct {
	Element json.RawMessage
	HTML    json.RawMessage
	Message string
	Raw     string
	Ready   bool
}

// Agent binds a descriptor to a structured completer.
type Agent struct {
	desc      Descriptor
	completer *llm.Structured
	workers   int
}

// Type returns the agent's type.
func (a *Agent) Type() Type { return a.desc.Type }

// OwnedElement returns the id of the one document element this agent writes.
func (a *Agent) OwnedElement() string { return a.desc.OwnedElement }

// DeclaresReady reports whether this agent's contract includes the
// ready-for-next-workflow signal.
func (a *Agent) DeclaresReady() bool { return a.desc.declaresReady() }

// Process runs one turn: assemble the scoped prompt from the history, obtain
// the structured response, and post-process it. The returned element replaces
// the agent's owned element and nothing else.
func (a *Agent) Process(ctx context.Context, turns []Turn) (Result, error) {
	if a.desc.FanOut {
		return a.processFanOut(ctx, turns)
	}

	messages, err := a.assembleHistory(turns)
	if err != nil {
		return Result{}, err
	}
	out, err := a.completer.Respond(ctx, messages, a.desc.Fields)
	if err != nil {
		return Result{}, err
	}
	res, err := a.resultFrom(out)
	if err != nil {
		return Result{}, err
	}

	if a.desc.HTML {
		html, err := a.renderHTML(ctx, res.Element)
		if err != nil {
			// Rendering is presentation only; the turn stands without it.
			log.Warn().Err(err).Str("agent", string(a.desc.Type)).Msg("html rendering failed")
		} else {
			res.HTML = html
		}
	}
	return res, nil
}

func (a *Agent) resultFrom(out map[string]any) (Result, error) {
	element, err := json.Marshal(out[RoleUpdatedElement])
	if err != nil {
		return Result{}, fmt.Errorf("encode updated element: %w", err)
	}
	raw, _ := out[llm.RawTextKey].(string)
	res := Result{
		Element: element,
		Raw:     raw,
		Message: fmt.Sprint(out[RoleMessage]),
	}
	if a.desc.declaresReady() {
		ready, _ := out[RoleMoveNext].(bool)
		res.Ready = ready
	}
	return res, nil
}
