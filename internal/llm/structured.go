package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// RawTextKey is the key under which the untouched model output is returned
// alongside the contracted fields.
const RawTextKey = "raw_text"

// DefaultMaxRetries bounds the number of completion calls per structured
// request.
const DefaultMaxRetries = 3

// MissingFieldError reports parsed JSON that lacks contractually required
// keys.
type MissingFieldError struct {
	Keys []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("model response is missing required JSON keys: %s", strings.Join(e.Keys, ", "))
}

// ContractError is the terminal failure after the retry budget is exhausted.
// It is fatal for the turn; callers surface it, never swallow it.
type ContractError struct {
	Attempts int
	Cause    error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("model did not produce the required structured response after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *ContractError) Unwrap() error { return e.Cause }

// Structured layers a field contract and a bounded repair loop over a Client.
// Every agent delegates here instead of re-implementing retry and parse
// logic, so failure semantics are uniform across agent types.
type Structured struct {
	Client     Client
	Options    Options
	MaxRetries int
}

// NewStructured wraps a client with the default retry budget.
func NewStructured(client Client, opts Options) *Structured {
	return &Structured{Client: client, Options: opts, MaxRetries: DefaultMaxRetries}
}

// Respond issues a completion and validates the parsed JSON against fields,
// a mapping of semantic role to required JSON key. Parse and contract
// failures are retried with a corrective follow-up prompt; transport failures
// are not. On success the result holds one entry per role plus RawTextKey.
func (s *Structured) Respond(ctx context.Context, messages []Message, fields map[string]string) (map[string]any, error) {
	attempts := s.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}

	prompt := make([]Message, len(messages), len(messages)+attempts)
	copy(prompt, messages)

	opts := s.Options
	opts.JSONOnly = true

	// The last failure travels through the loop as an explicit value; it is
	// both the corrective-prompt payload and the terminal error cause.
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := s.Client.Complete(ctx, prompt, opts)
		if err != nil {
			return nil, fmt.Errorf("completion failed: %w", err)
		}

		result, err := contract(raw, fields)
		if err == nil {
			return result, nil
		}

		log.Debug().Err(err).Int("attempt", attempt).Msg("structured response rejected")
		lastErr = err
		prompt = append(prompt, Message{
			Role: RoleUser,
			Content: fmt.Sprintf(
				"The previous response was not in the required format; error was: %v. "+
					"Respond again with a single JSON object in the required format and nothing else.", err),
		})
	}

	return nil, &ContractError{Attempts: attempts, Cause: lastErr}
}

func contract(raw string, fields map[string]string) (map[string]any, error) {
	parsed, err := ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range fields {
		if _, ok := parsed[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingFieldError{Keys: missing}
	}

	result := make(map[string]any, len(fields)+1)
	result[RawTextKey] = raw
	for role, key := range fields {
		result[role] = parsed[key]
	}
	return result, nil
}
