// Package llm turns a prompt into a JSON object string using a configured
// model provider.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealpilot/internal/resilience"
	"github.com/sells-group/dealpilot/pkg/anthropic"
	"github.com/sells-group/dealpilot/pkg/groq"
)

const jsonOnly = "You respond with a single JSON object and nothing else."

// Completer returns the model's reply to prompt as a JSON object string.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Anthropic completes prompts with Claude.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *Anthropic {
	return &Anthropic{client: client, model: model, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      jsonOnly,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic complete")
	}
	resp.Usage.LogCost(a.model, "complete")
	return ExtractJSON(resp.Text()), nil
}

// Groq completes prompts with a Groq-hosted open model.
type Groq struct {
	client    groq.Client
	maxTokens int
}

// NewGroq creates a Groq completer. The client's default model is used.
func NewGroq(client groq.Client, maxTokens int) *Groq {
	return &Groq{client: client, maxTokens: maxTokens}
}

// Complete implements Completer.
func (g *Groq) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	req := groq.ChatCompletionRequest{
		Messages: []groq.Message{
			{Role: "system", Content: jsonOnly},
			{Role: "user", Content: prompt},
		},
		Temperature: &temperature,
	}
	if g.maxTokens > 0 {
		req.MaxTokens = &g.maxTokens
	}

	resp, err := g.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "llm: groq complete")
	}
	return ExtractJSON(resp.Text()), nil
}

// ExtractJSON returns the outermost {...} span of s, dropping Markdown
// fences and prose around it. Text without an object yields "{}".
func ExtractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

// Guard sends every completion through breaker b.
func Guard(c Completer, b *resilience.Breaker) Completer {
	return guarded{next: c, breaker: b}
}

type guarded struct {
	next    Completer
	breaker *resilience.Breaker
}

func (g guarded) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return g.next.Complete(ctx, prompt, temperature)
	})
}
