package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/chat"
)

// ChatHandler proxies chat completion requests to the LLM backend. The
// API key stays server-side; clients only ever see the proxy.
type ChatHandler struct {
	llmService   services.LLMService
	defaultModel string
	logger       *slog.Logger
}

// NewChatHandler creates a new chat proxy handler
func NewChatHandler(llmService services.LLMService, defaultModel string, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		llmService:   llmService,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// ServeHTTP handles POST /api/chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'messages' field.")
		return
	}

	if request.Model == "" {
		request.Model = h.defaultModel
	}
	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid chat request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	completion, err := h.llmService.ChatCompletion(r.Context(), request)
	if err != nil {
		h.logger.Error("Upstream chat completion failed", "model", request.Model, "error", err)
		writeError(w, h.logger, http.StatusBadGateway, "Upstream request failed. Please try again.")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(completion); err != nil {
		h.logger.Error("Error encoding chat response", "error", err)
	}
}
