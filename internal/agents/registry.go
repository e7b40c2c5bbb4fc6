package agents

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// UnknownTypeError reports a lookup for an agent type outside the descriptor
// table. The turn fails before any completion is issued.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown agent type %q", e.Type)
}

// ClientFactory builds a completion client for a provider-prefixed model.
type ClientFactory func(model string) (llm.Client, error)

// RegistryConfig carries everything needed to instantiate the agent table.
type RegistryConfig struct {
	Factory      ClientFactory
	DefaultModel string
	// Overrides maps agent type to a provider-prefixed model, taking
	// precedence over both the descriptor pin and the default.
	Overrides     map[string]string
	Temperature   float64
	MaxRetries    int
	FanOutWorkers int
}

const defaultFanOutWorkers = 5

// Registry resolves agent types to ready-to-use agents. It is populated once
// at startup from the descriptor table and read-only afterwards.
type Registry struct {
	agents map[Type]*Agent
}

// NewRegistry instantiates one agent per descriptor.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Factory == nil {
		return nil, errors.New("client factory is required")
	}
	workers := cfg.FanOutWorkers
	if workers <= 0 {
		workers = defaultFanOutWorkers
	}

	reg := &Registry{agents: make(map[Type]*Agent)}
	for _, d := range descriptors() {
		model := cfg.Overrides[string(d.Type)]
		if model == "" {
			model = d.Model
		}
		if model == "" {
			model = cfg.DefaultModel
		}
		client, err := cfg.Factory(model)
		if err != nil {
			return nil, fmt.Errorf("build client for agent %s: %w", d.Type, err)
		}
		completer := llm.NewStructured(client, llm.Options{Temperature: cfg.Temperature})
		if cfg.MaxRetries > 0 {
			completer.MaxRetries = cfg.MaxRetries
		}
		reg.agents[d.Type] = &Agent{desc: d, completer: completer, workers: workers}
	}
	return reg, nil
}

// Resolve returns the agent for the given type.
func (r *Registry) Resolve(t Type) (*Agent, error) {
	agent, ok := r.agents[t]
	if !ok {
		return nil, &UnknownTypeError{Type: t}
	}
	return agent, nil
}

// Types lists the registered agent types in stable order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.agents))
	for t := range r.agents {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
