package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/moderntrail/trail-engine/pkg/game"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for game session persistence
type Storage interface {
	HealthChecker
	Closer

	// SaveGameState saves a game state under the given session ID
	SaveGameState(ctx context.Context, id uuid.UUID, gs *game.GameState) error

	// LoadGameState retrieves a game state by session ID
	// Returns nil if the session doesn't exist
	LoadGameState(ctx context.Context, id uuid.UUID) (*game.GameState, error)

	// DeleteGameState removes a game state by session ID
	DeleteGameState(ctx context.Context, id uuid.UUID) error
}
