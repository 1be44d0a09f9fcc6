package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/r3e-network/research-orchestrator/pkg/logging"
)

// AnthropicAdapter is the default AIAdapter implementation, calling an
// Anthropic model for summarization, classification, and rationale
// generation. It is deliberately thin: one short prompt per call, no
// streaming, no tool use — the spec treats the AI path as a swappable
// enhancement, never a required one.
type AnthropicAdapter struct {
	client anthropic.Client
	model  anthropic.Model
	log    *logging.Logger
}

// NewAnthropicAdapter builds an adapter bound to apiKey and model. Callers
// should only construct this when AIConfig.Enabled is true.
func NewAnthropicAdapter(apiKey string, model anthropic.Model, log *logging.Logger) *AnthropicAdapter {
	return &AnthropicAdapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
	}
}

func (a *AnthropicAdapter) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var out strings.Builder
	for _, block := range msg.Content {
		if text := block.Text; text != "" {
			out.WriteString(text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (a *AnthropicAdapter) Summarize(ctx context.Context, title, description, combinedText string) (SummarizeResult, error) {
	prompt := fmt.Sprintf(
		"Summarize the following content in two sentences, neutral tone.\nTitle: %s\nDescription: %s\nText: %s",
		title, description, truncate(combinedText, 4000),
	)
	text, err := a.complete(ctx, prompt, 200)
	if err != nil {
		return SummarizeResult{}, err
	}
	return SummarizeResult{Summary: text}, nil
}

func (a *AnthropicAdapter) Classify(ctx context.Context, title, sourceType string) (ClassifyResult, error) {
	prompt := fmt.Sprintf(
		"Classify this %s titled %q into a single short topic label (one or two words). Reply with only the label.",
		sourceType, title,
	)
	text, err := a.complete(ctx, prompt, 20)
	if err != nil {
		return ClassifyResult{}, err
	}
	return ClassifyResult{Classification: strings.ToLower(strings.TrimSpace(text))}, nil
}

func (a *AnthropicAdapter) Rationale(ctx context.Context, input RationaleInput) (string, error) {
	prompt := fmt.Sprintf(
		"Explain in one short paragraph why %q scored credibility=%.2f relevance=%.2f freshness=%.2f completeness=%.2f overall=%.2f for the research topic %q.",
		input.Title, input.Credibility, input.Relevance, input.Freshness, input.Completeness, input.Overall, input.Topic,
	)
	return a.complete(ctx, prompt, 150)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
