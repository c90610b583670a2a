package services

import (
	"context"
	"sync"

	"github.com/moderntrail/trail-engine/pkg/chat"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	ChatCompletionFunc func(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error)
	ListModelsFunc     func(ctx context.Context) ([]chat.Model, error)
	ProbeModelFunc     func(ctx context.Context, modelID string) (bool, error)

	// Track calls for testing
	ChatCompletionCalls []chat.CompletionRequest
	ListModelsCalls     int
	ProbeModelCalls     []string

	mu sync.Mutex // protects all fields above
}

// Ensure MockLLMService implements LLMService interface
var _ LLMService = (*MockLLMService)(nil)

// NewMockLLMService creates a new mock LLM service
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		ChatCompletionCalls: make([]chat.CompletionRequest, 0),
		ProbeModelCalls:     make([]string, 0),
	}
}

// ChatCompletion mocks a chat completion request
func (m *MockLLMService) ChatCompletion(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCompletionCalls = append(m.ChatCompletionCalls, req)

	if m.ChatCompletionFunc != nil {
		return m.ChatCompletionFunc(ctx, req)
	}

	// Default behavior - a plain text reply
	return &chat.Completion{
		Model: req.Model,
		Choices: []chat.CompletionChoice{
			{Message: chat.Message{Role: chat.RoleAssistant, Content: "Mock response"}},
		},
	}, nil
}

// ListModels mocks model listing
func (m *MockLLMService) ListModels(ctx context.Context) ([]chat.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListModelsCalls++

	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}

	return []chat.Model{
		{ID: "mock/model:free", Name: "Mock Model", Healthy: true},
	}, nil
}

// ProbeModel mocks a model health probe
func (m *MockLLMService) ProbeModel(ctx context.Context, modelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProbeModelCalls = append(m.ProbeModelCalls, modelID)

	if m.ProbeModelFunc != nil {
		return m.ProbeModelFunc(ctx, modelID)
	}

	return true, nil
}

// SetChatCompletionError sets up the mock to return an error on ChatCompletion
func (m *MockLLMService) SetChatCompletionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCompletionFunc = func(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error) {
		return nil, err
	}
}

// SetChatCompletionResponse sets up the mock to return a fixed assistant message
func (m *MockLLMService) SetChatCompletionResponse(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCompletionFunc = func(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error) {
		return &chat.Completion{
			Model: req.Model,
			Choices: []chat.CompletionChoice{
				{Message: chat.Message{Role: chat.RoleAssistant, Content: content}},
			},
		}, nil
	}
}

// SetListModelsError sets up the mock to return an error on ListModels
func (m *MockLLMService) SetListModelsError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListModelsFunc = func(ctx context.Context) ([]chat.Model, error) {
		return nil, err
	}
}

// SetListModelsResponse sets up the mock to return specific models
func (m *MockLLMService) SetListModelsResponse(models []chat.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListModelsFunc = func(ctx context.Context) ([]chat.Model, error) {
		return models, nil
	}
}

// Reset clears all call tracking
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCompletionCalls = make([]chat.CompletionRequest, 0)
	m.ListModelsCalls = 0
	m.ProbeModelCalls = make([]string, 0)
}
