// Package ai provides factory functions for creating model clients.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/llm"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for server connectivity validation.
const pingTimeout = 5 * time.Second

// CreateChatModel creates the client for settings.Provider wrapped with
// retries and rate limiting.
func CreateChatModel(settings domain.ModelSettings) (driven.ChatModel, error) {
	client, err := createClient(settings)
	if err != nil {
		return nil, err
	}

	cfg := llm.ResilientConfig{MaxRetries: settings.MaxRetries}
	if settings.RequestsPerSecond > 0 {
		cfg.Limiter = llm.NewRateLimiter(settings.RequestsPerSecond, settings.Burst)
	}
	return llm.NewResilientModel(client, cfg), nil
}

// CreateAndValidateChatModel creates a model client and validates connectivity.
// The client is returned even when the ping fails so callers can decide
// whether an unreachable server is fatal.
func CreateAndValidateChatModel(ctx context.Context, settings domain.ModelSettings) (driven.ChatModel, error) {
	model, err := CreateChatModel(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := model.Ping(pingCtx); err != nil {
		return model, fmt.Errorf("%s server at %s: %w", settings.Provider, baseURL(settings), err)
	}
	return model, nil
}

// createClient picks the wire protocol.
func createClient(settings domain.ModelSettings) (driven.ChatModel, error) {
	switch settings.Provider {
	case domain.ModelProviderOllama, "":
		return ollama.NewClient(ollama.Config{
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		}), nil

	case domain.ModelProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unsupported model provider: %s",
			domain.ErrInvalidConfiguration, settings.Provider)
	}
}

func baseURL(settings domain.ModelSettings) string {
	if settings.BaseURL != "" {
		return settings.BaseURL
	}
	if settings.Provider == domain.ModelProviderOpenAI {
		return openai.DefaultBaseURL
	}
	return ollama.DefaultBaseURL
}
