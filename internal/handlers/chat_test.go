package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name           string
		method         string
		body           interface{}
		mockSetup      func(*services.MockLLMService)
		expectedStatus int
		expectedError  string
		expectedText   string
	}{
		{
			name:   "successful completion",
			method: http.MethodPost,
			body: chat.CompletionRequest{
				Model:    "vendor/alpha:free",
				Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello"}},
			},
			mockSetup: func(m *services.MockLLMService) {
				m.SetChatCompletionResponse("Hello back!")
			},
			expectedStatus: http.StatusOK,
			expectedText:   "Hello back!",
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			body:           nil,
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusMethodNotAllowed,
			expectedError:  "Method not allowed. Only POST is supported.",
		},
		{
			name:           "invalid JSON body",
			method:         http.MethodPost,
			body:           "invalid json",
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body. Expected JSON with 'messages' field.",
		},
		{
			name:           "empty messages",
			method:         http.MethodPost,
			body:           chat.CompletionRequest{Model: "vendor/alpha:free"},
			mockSetup:      func(m *services.MockLLMService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "upstream failure maps to bad gateway",
			method: http.MethodPost,
			body: chat.CompletionRequest{
				Model:    "vendor/alpha:free",
				Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello"}},
			},
			mockSetup: func(m *services.MockLLMService) {
				m.SetChatCompletionError(errors.New("upstream exploded"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedError:  "Upstream request failed. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := services.NewMockLLMService()
			tt.mockSetup(mockLLM)
			handler := NewChatHandler(mockLLM, "default/model:free", logger)

			var body bytes.Buffer
			if tt.body != nil {
				if s, ok := tt.body.(string); ok {
					body.WriteString(s)
				} else {
					require.NoError(t, json.NewEncoder(&body).Encode(tt.body))
				}
			}

			req := httptest.NewRequest(tt.method, "/api/chat", &body)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.expectedError != "" {
				var errResp ErrorResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
				assert.Equal(t, tt.expectedError, errResp.Error)
			}
			if tt.expectedText != "" {
				var completion chat.Completion
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&completion))
				assert.Equal(t, tt.expectedText, completion.Text())
			}
		})
	}
}

func TestChatHandler_DefaultModel(t *testing.T) {
	mockLLM := services.NewMockLLMService()
	var gotModel string
	mockLLM.ChatCompletionFunc = func(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error) {
		gotModel = req.Model
		return &chat.Completion{
			Choices: []chat.CompletionChoice{
				{Message: chat.Message{Role: chat.RoleAssistant, Content: "ok"}},
			},
		}, nil
	}
	handler := NewChatHandler(mockLLM, "default/model:free", testLogger())

	body, err := json.Marshal(chat.CompletionRequest{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "default/model:free", gotModel)
}
