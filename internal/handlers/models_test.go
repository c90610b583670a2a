package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/chat"
)

func TestModelsHandler_List(t *testing.T) {
	mockLLM := services.NewMockLLMService()
	mockLLM.SetListModelsResponse([]chat.Model{
		{ID: "vendor/alpha:free", Name: "Alpha (Free)", Healthy: true},
		{ID: "vendor/beta:free", Name: "Beta (Free)", Healthy: true},
	})
	handler := NewModelsHandler(mockLLM, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ModelsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Fallback)
	require.Len(t, resp.Models, 2)
	assert.Equal(t, "vendor/alpha:free", resp.Models[0].ID)
}

func TestModelsHandler_FallbackWhenDirectoryDown(t *testing.T) {
	mockLLM := services.NewMockLLMService()
	mockLLM.SetListModelsError(errors.New("directory down"))
	handler := NewModelsHandler(mockLLM, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ModelsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Fallback)
	assert.Equal(t, len(services.FallbackFreeModels), len(resp.Models))
}

func TestModelsHandler_Probe(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*services.MockLLMService)
		wantHealthy bool
		wantError   bool
	}{
		{
			name:        "healthy model",
			setup:       func(m *services.MockLLMService) {},
			wantHealthy: true,
		},
		{
			name: "unhealthy model",
			setup: func(m *services.MockLLMService) {
				m.ProbeModelFunc = func(ctx context.Context, modelID string) (bool, error) {
					return false, nil
				}
			},
			wantHealthy: false,
		},
		{
			name: "probe error",
			setup: func(m *services.MockLLMService) {
				m.ProbeModelFunc = func(ctx context.Context, modelID string) (bool, error) {
					return false, errors.New("timeout")
				}
			},
			wantHealthy: false,
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLLM := services.NewMockLLMService()
			tt.setup(mockLLM)
			handler := NewModelsHandler(mockLLM, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/models?probe=vendor/alpha:free", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)

			var resp ProbeResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "vendor/alpha:free", resp.Model)
			assert.Equal(t, tt.wantHealthy, resp.Healthy)
			if tt.wantError {
				assert.NotEmpty(t, resp.Error)
			} else {
				assert.Empty(t, resp.Error)
			}
			assert.Equal(t, []string{"vendor/alpha:free"}, mockLLM.ProbeModelCalls)
		})
	}
}

func TestModelsHandler_MethodNotAllowed(t *testing.T) {
	handler := NewModelsHandler(services.NewMockLLMService(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/models", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
