// Package extract wraps LLM invocation and strict parsing of structured output.
package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/osint-cli/internal/model"
	"github.com/sells-group/osint-cli/pkg/anthropic"
)

// extractionTemperature keeps structured-output steps near-deterministic
// so the strict parsers see stable JSON.
const extractionTemperature = 0.0

// Invoker issues completion calls against a fixed model.
type Invoker struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
}

// NewInvoker creates an Invoker bound to a model.
func NewInvoker(llm anthropic.Client, modelID string, maxTokens int64) *Invoker {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Invoker{llm: llm, model: modelID, maxTokens: maxTokens}
}

// Complete sends a single user prompt under a system prompt and returns the
// text of the response.
func (iv *Invoker) Complete(ctx context.Context, system, prompt, node string) (string, error) {
	return iv.Converse(ctx, system, []anthropic.Message{{Role: "user", Content: prompt}}, node)
}

// Converse sends a full message history under a system prompt and returns the
// text of the response. System prompts are static per node and recur on every
// run, so they carry a cache breakpoint.
func (iv *Invoker) Converse(ctx context.Context, system string, msgs []anthropic.Message, node string) (string, error) {
	temperature := extractionTemperature
	req := anthropic.MessageRequest{
		Model:       iv.model,
		MaxTokens:   iv.maxTokens,
		Messages:    msgs,
		Temperature: &temperature,
	}
	if system != "" {
		req.System = []anthropic.SystemBlock{{
			Text:         system,
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		}}
	}

	resp, err := iv.llm.CreateMessage(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "extract: create message")
	}
	resp.Usage.LogCost(iv.model, node)

	return strings.TrimSpace(resp.Text()), nil
}

// ToMessages converts conversation turns to API messages.
func ToMessages(turns []model.Turn) []anthropic.Message {
	out := make([]anthropic.Message, len(turns))
	for i, t := range turns {
		role := "user"
		if t.Role == model.RoleAnalyst {
			role = "assistant"
		}
		out[i] = anthropic.Message{Role: role, Content: t.Content}
	}
	return out
}
