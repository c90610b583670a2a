package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/moderntrail/trail-engine/pkg/game"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	gamestates map[uuid.UUID]*game.GameState
	pingError  error
	saveError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*game.GameState),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a game state
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *game.GameState) error {
	if m.saveError != nil {
		return m.saveError
	}
	if gs == nil {
		return errors.New("game state cannot be nil")
	}
	m.gamestates[id] = gs
	return nil
}

// LoadGameState mocks loading a game state
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*game.GameState, error) {
	gs, exists := m.gamestates[id]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return gs, nil
}

// DeleteGameState mocks deleting a game state
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	delete(m.gamestates, id)
	return nil
}

// Count returns the number of stored game states
func (m *MockStorage) Count() int {
	return len(m.gamestates)
}
