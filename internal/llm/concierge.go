package llm

import (
	"context"
	"strings"

	"github.com/neexbeast/gumdrop/internal/apperr"
)

const conciergeSystem = "You are a helpful travel concierge. Give concise, practical answers about hotels, neighbourhoods and getting to events."

// Concierge answers a free-form travel question.
func (c *Client) Concierge(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Invalid("prompt is required", "prompt")
	}
	return c.complete(ctx, "concierge", completion{
		system:      conciergeSystem,
		user:        prompt,
		maxTokens:   300,
		temperature: 0.7,
	})
}
