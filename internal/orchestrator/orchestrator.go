package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ButterFlowQ/DesignGen/internal/agents"
	"github.com/ButterFlowQ/DesignGen/internal/document"
	"github.com/ButterFlowQ/DesignGen/internal/schema"
)

const defaultMaxChainedTurns = 10

// TurnResult is what one user turn produced: the persisted user message, the
// final agent message, and the document version it created.
type TurnResult struct {
	UserMessage  document.Message
	AgentMessage document.Message
	Version      document.Version
}

// Orchestrator serializes turns per document and owns the continuation loop.
type Orchestrator struct {
	store      *document.Store
	registry   *agents.Registry
	router     *Router
	schema     schema.Schema
	maxChained int

	locks sync.Map // document id -> *sync.Mutex
}

// New builds an orchestrator. maxChained bounds ready-signal chaining within
// one user turn; zero means the default.
func New(store *document.Store, registry *agents.Registry, router *Router, s schema.Schema, maxChained int) *Orchestrator {
	if maxChained <= 0 {
		maxChained = defaultMaxChainedTurns
	}
	return &Orchestrator{store: store, registry: registry, router: router, schema: s, maxChained: maxChained}
}

func (o *Orchestrator) lock(documentID int64) func() {
	v, _ := o.locks.LoadOrStore(documentID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateDocument creates a document under the configured schema.
func (o *Orchestrator) CreateDocument(ctx context.Context, title string) (document.Document, document.Version, error) {
	return o.store.CreateDocument(ctx, o.schema.Name, title)
}

// GetDocument returns a document together with its active version.
func (o *Orchestrator) GetDocument(ctx context.Context, documentID int64) (document.Document, document.Version, error) {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return document.Document{}, document.Version{}, err
	}
	active, err := o.store.ActiveVersion(ctx, documentID)
	if err != nil {
		return document.Document{}, document.Version{}, err
	}
	return doc, active, nil
}

// ListDocuments returns all documents, most recently updated first.
func (o *Orchestrator) ListDocuments(ctx context.Context) ([]document.Document, error) {
	return o.store.ListDocuments(ctx)
}

// ListVersions returns every version of a document, oldest first.
func (o *Orchestrator) ListVersions(ctx context.Context, documentID int64) ([]document.Version, error) {
	return o.store.ListVersions(ctx, documentID)
}

// ListMessages returns a document's live messages, oldest first.
func (o *Orchestrator) ListMessages(ctx context.Context, documentID int64) ([]document.Message, error) {
	return o.store.ListMessages(ctx, documentID)
}

// Revert restores an earlier version as the document's active state.
func (o *Orchestrator) Revert(ctx context.Context, documentID int64, targetVersion int) (document.Version, error) {
	defer o.lock(documentID)()
	return o.store.Revert(ctx, documentID, targetVersion)
}

// HandleTurn runs one user turn to completion. target addresses a workflow
// element directly by id; when empty, the router decides. While the agent
// signals readiness and a next element exists, the loop queues a synthetic
// continuation turn for it, up to the chain bound.
func (o *Orchestrator) HandleTurn(ctx context.Context, documentID int64, target, userText string) (TurnResult, error) {
	defer o.lock(documentID)()

	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return TurnResult{}, err
	}
	convID, err := o.store.EnsureConversation(ctx, doc.ID)
	if err != nil {
		return TurnResult{}, err
	}

	element, err := o.resolveElement(ctx, convID, target, userText)
	if err != nil {
		return TurnResult{}, err
	}

	active, err := o.store.ActiveVersion(ctx, doc.ID)
	if err != nil {
		return TurnResult{}, err
	}
	userMsg, err := o.store.AppendUserMessage(ctx, convID, active.ID, userText)
	if err != nil {
		return TurnResult{}, err
	}
	result := TurnResult{UserMessage: userMsg}

	// Continuation is an explicit queue, not recursion: each ready signal
	// enqueues exactly the next element.
	queue := []schema.Element{element}
	chained := 0
	for len(queue) > 0 {
		el := queue[0]
		queue = queue[1:]

		chained++
		if chained > o.maxChained {
			log.Warn().Int64("document", doc.ID).Int("max", o.maxChained).Msg("chained turn bound reached")
			break
		}

		version, agentMsg, ready, err := o.runAgentTurn(ctx, doc.ID, convID, el)
		if err != nil {
			return TurnResult{}, err
		}
		result.Version = version
		result.AgentMessage = agentMsg

		next, ok := o.schema.Next(el)
		if !ready || !ok {
			continue
		}
		if _, err := o.store.AppendUserMessage(ctx, convID, version.ID,
			fmt.Sprintf("Proceed with %s.", next.Name)); err != nil {
			return TurnResult{}, err
		}
		queue = append(queue, next)
	}
	return result, nil
}

func (o *Orchestrator) resolveElement(ctx context.Context, convID int64, target, userText string) (schema.Element, error) {
	if target != "" {
		el, ok := o.schema.ElementByID(target)
		if !ok {
			return schema.Element{}, &RoutingError{AgentID: target}
		}
		return el, nil
	}
	turns, err := o.store.ConversationTurns(ctx, convID)
	if err != nil {
		return schema.Element{}, err
	}
	return o.router.Route(ctx, len(turns) > 0, userText)
}

// runAgentTurn reads the current conversation, runs the element's agent, and
// commits the new version. One version conflict is retried against the fresh
// state; a second one propagates.
func (o *Orchestrator) runAgentTurn(ctx context.Context, documentID, convID int64, el schema.Element) (document.Version, document.Message, bool, error) {
	agent, err := o.registry.Resolve(agents.Type(el.AgentType))
	if err != nil {
		return document.Version{}, document.Message{}, false, err
	}

	version, agentMsg, ready, err := o.attemptAgentTurn(ctx, documentID, convID, el, agent)
	if errors.Is(err, document.ErrVersionConflict) {
		log.Warn().Int64("document", documentID).Str("element", el.ID).Msg("version conflict, retrying turn")
		version, agentMsg, ready, err = o.attemptAgentTurn(ctx, documentID, convID, el, agent)
	}
	return version, agentMsg, ready, err
}

func (o *Orchestrator) attemptAgentTurn(ctx context.Context, documentID, convID int64, el schema.Element, agent *agents.Agent) (document.Version, document.Message, bool, error) {
	active, err := o.store.ActiveVersion(ctx, documentID)
	if err != nil {
		return document.Version{}, document.Message{}, false, err
	}
	records, err := o.store.ConversationTurns(ctx, convID)
	if err != nil {
		return document.Version{}, document.Message{}, false, err
	}

	res, err := agent.Process(ctx, toAgentTurns(records))
	if err != nil {
		return document.Version{}, document.Message{}, false, fmt.Errorf("agent %s: %w", agent.Type(), err)
	}

	version, agentMsg, err := o.store.CommitTurn(ctx, document.TurnCommit{
		DocumentID:     documentID,
		ConversationID: convID,
		BaseVersion:    active.Version,
		ElementID:      el.ID,
		Element:        res.Element,
		HTML:           res.HTML,
		AgentType:      string(agent.Type()),
		Message:        res.Message,
		RawText:        res.Raw,
	})
	if err != nil {
		return document.Version{}, document.Message{}, false, err
	}
	return version, agentMsg, res.Ready, nil
}

func toAgentTurns(records []document.TurnRecord) []agents.Turn {
	turns := make([]agents.Turn, 0, len(records))
	for _, r := range records {
		turns = append(turns, agents.Turn{
			IsUser:   r.Message.FromAgentType == string(agents.TypeUser),
			FromType: agents.Type(r.Message.FromAgentType),
			Text:     r.Message.Message,
			Raw:      r.Message.RawText,
			Elements: r.Elements,
		})
	}
	return turns
}
