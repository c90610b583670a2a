package services

import (
	"context"

	"github.com/moderntrail/trail-engine/pkg/chat"
)

// LLMService defines the interface for the upstream chat-completion API.
type LLMService interface {
	// ChatCompletion issues a single chat completion request.
	ChatCompletion(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error)

	// ListModels returns the candidate models available to the game.
	ListModels(ctx context.Context) ([]chat.Model, error)

	// ProbeModel checks that a model answers a trivial completion
	// correctly within the deadline.
	ProbeModel(ctx context.Context, modelID string) (bool, error)
}
