package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 8192

type anthropicClient struct {
	cfg    Config
	client anthropic.Client
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	key, err := resolveAPIKey(cfg, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicClient{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
	}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	system, rest := splitSystem(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: anthropicMaxTokens,
		Messages:  convertAnthropicMessages(rest),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages.create: %w", err)
	}

	var out string
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			out += b.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("anthropic response did not contain text output")
	}
	return out, nil
}

func convertAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}
