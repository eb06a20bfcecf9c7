// Package ai wraps the text-generation providers used by the AI-backed
// functions.
package ai

import (
	"context"
	"strings"

	"careerhub-backend/config"
	"careerhub-backend/errors"
)

// Completer turns a system instruction and a prompt into text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// New returns the configured provider, or Unavailable when none is set.
func New(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "chat":
		return NewChatCompletions(cfg.Endpoint, cfg.APIKey, cfg.Model)
	default:
		return Unavailable{}, nil
	}
}

// Unavailable fails every call with ErrServiceUnavailable.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string, string) (string, error) {
	return "", errors.WithHint(errors.Wrap(errors.ErrServiceUnavailable, "no AI provider configured"),
		"set AI_PROVIDER and AI_API_KEY")
}

// IsAvailable reports whether c can actually generate text.
func IsAvailable(c Completer) bool {
	if c == nil {
		return false
	}
	_, off := c.(Unavailable)
	return !off
}

// CleanJSON strips markdown code fences models like to wrap JSON in.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
