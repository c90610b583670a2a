package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/chat"
)

// ModelsResponse is the model directory payload.
type ModelsResponse struct {
	Models   []chat.Model `json:"models"`
	Fallback bool         `json:"fallback"` // true when the upstream directory was unavailable
}

// ProbeResponse reports the health of a single model.
type ProbeResponse struct {
	Model   string `json:"model"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// ModelsHandler serves the free-model directory and per-model probes.
type ModelsHandler struct {
	llmService services.LLMService
	logger     *slog.Logger
}

// NewModelsHandler creates a new model directory handler
func NewModelsHandler(llmService services.LLMService, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		llmService: llmService,
		logger:     logger,
	}
}

// ServeHTTP handles GET /api/models and GET /api/models?probe={model-id}
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for models endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	if modelID := r.URL.Query().Get("probe"); modelID != "" {
		h.handleProbe(w, r, modelID)
		return
	}

	models, err := h.llmService.ListModels(r.Context())
	fallback := false
	if err != nil {
		// The game can run without the directory; serve the baked-in list.
		h.logger.Warn("Model directory unavailable, serving fallback list", "error", err)
		models = services.FallbackFreeModels
		fallback = true
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ModelsResponse{Models: models, Fallback: fallback}); err != nil {
		h.logger.Error("Error encoding models response", "error", err)
	}
}

func (h *ModelsHandler) handleProbe(w http.ResponseWriter, r *http.Request, modelID string) {
	healthy, err := h.llmService.ProbeModel(r.Context(), modelID)

	response := ProbeResponse{
		Model:   modelID,
		Healthy: healthy,
	}
	if err != nil {
		h.logger.Warn("Model probe failed", "model", modelID, "error", err)
		response.Error = err.Error()
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding probe response", "error", err)
	}
}
