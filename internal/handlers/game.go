package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/chat"
	"github.com/moderntrail/trail-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// CreateGameRequest defines the request body for starting a new run
type CreateGameRequest struct {
	Model string `json:"model,omitempty"` // Optional: override default model
}

// ChoiceRequest selects one choice of the current event
type ChoiceRequest struct {
	Choice int `json:"choice"`
}

// BuyRequest purchases one shop item
type BuyRequest struct {
	Item string `json:"item"`
}

// GameHandler owns the game session endpoints. All state transitions run
// through the reducer; the handler only loads, dispatches, and saves.
type GameHandler struct {
	storage      services.Storage
	llmService   services.LLMService
	reducer      *game.Reducer
	generator    *game.EventGenerator
	defaultModel string
	logger       *slog.Logger
}

func NewGameHandler(storage services.Storage, llmService services.LLMService, reducer *game.Reducer, generator *game.EventGenerator, defaultModel string, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		storage:      storage,
		llmService:   llmService,
		reducer:      reducer,
		generator:    generator,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// ServeHTTP handles HTTP requests for game sessions
// Routes:
// POST /v1/game                        - Start a new run
// POST /v1/game/import                 - Import a saved snapshot
// GET /v1/game/{id}                    - Read a session
// DELETE /v1/game/{id}                 - Delete a session
// POST /v1/game/{id}/continue          - Advance one day
// POST /v1/game/{id}/choice            - Resolve the current event
// POST /v1/game/{id}/buy               - Buy a shop item
// POST /v1/game/{id}/test-connection   - Probe the selected model
// GET /v1/game/{id}/export             - Download a snapshot
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/game"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. POST starts a new game.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	if path == "import" {
		if r.Method != http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. POST imports a snapshot.")
			return
		}
		h.handleImport(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	gameID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", idStr, "error", err)
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, gameID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case action == "continue" && r.Method == http.MethodPost:
		h.handleContinue(w, r, gameID)
	case action == "choice" && r.Method == http.MethodPost:
		h.handleChoice(w, r, gameID)
	case action == "buy" && r.Method == http.MethodPost:
		h.handleBuy(w, r, gameID)
	case action == "test-connection" && r.Method == http.MethodPost:
		h.handleTestConnection(w, r, gameID)
	case action == "export" && r.Method == http.MethodGet:
		h.handleExport(w, r, gameID)
	default:
		h.logger.Warn("Unknown game route", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusNotFound, "Unknown game route")
	}
}

// load fetches a session and writes the error response itself when the
// session is missing or storage fails. Returns nil when it has already
// responded.
func (h *GameHandler) load(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) *game.GameState {
	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return nil
	}
	if gs == nil {
		h.logger.Warn("Game state not found", "id", gameID.String())
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return nil
	}
	return gs
}

func (h *GameHandler) save(w http.ResponseWriter, r *http.Request, gs *game.GameState) bool {
	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save game state", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game state")
		return false
	}
	return true
}

func (h *GameHandler) respond(w http.ResponseWriter, status int, gs *game.GameState) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game state response", "error", err)
	}
}

// candidateModels returns the model pool for event generation. The
// baked-in free list keeps the game playable when the directory is down.
func (h *GameHandler) candidateModels(r *http.Request) []chat.Model {
	models, err := h.llmService.ListModels(r.Context())
	if err != nil || len(models) == 0 {
		h.logger.Warn("Model directory unavailable, using fallback candidates", "error", err)
		return services.FallbackFreeModels
	}
	return models
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	gs := h.reducer.NewGame(model)
	if !h.save(w, r, gs) {
		return
	}

	h.logger.Debug("Game created", "id", gs.ID.String(), "model", model)
	h.respond(w, http.StatusCreated, gs)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}
	h.respond(w, http.StatusOK, gs)
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.storage.DeleteGameState(r.Context(), gameID); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}
	h.logger.Debug("Game state deleted", "id", gameID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) handleContinue(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}

	if h.reducer.Continue(gs) {
		h.generator.Generate(r.Context(), gs, h.candidateModels(r))
	}

	if !h.save(w, r, gs) {
		return
	}
	h.respond(w, http.StatusOK, gs)
}

func (h *GameHandler) handleChoice(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}

	cascade, err := h.reducer.Choose(gs, req.Choice)
	if err != nil {
		h.logger.Warn("Choice rejected", "id", gameID.String(), "choice", req.Choice, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if cascade {
		h.generator.Generate(r.Context(), gs, h.candidateModels(r))
	}

	if !h.save(w, r, gs) {
		return
	}
	h.respond(w, http.StatusOK, gs)
}

func (h *GameHandler) handleBuy(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}

	// Failed purchases are silent no-ops; the client reads the result off
	// the returned state.
	if h.reducer.Buy(gs, req.Item) {
		if !h.save(w, r, gs) {
			return
		}
	}
	h.respond(w, http.StatusOK, gs)
}

func (h *GameHandler) handleTestConnection(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}

	healthy, err := h.llmService.ProbeModel(r.Context(), gs.SelectedModel)
	gs.APIStats.TotalCalls++
	if err == nil && healthy {
		gs.APIStats.Connected = true
		gs.APIStats.SuccessfulCalls++
		gs.APIStats.LastError = ""
	} else {
		gs.APIStats.Connected = false
		gs.APIStats.FailedCalls++
		if err != nil {
			gs.APIStats.LastError = err.Error()
		} else {
			gs.APIStats.LastError = "model did not answer the probe"
		}

		// A model whose free route has been pulled reports "No endpoints".
		// Switch to the next candidate rather than leaving the player on a
		// dead model.
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "no endpoints") {
			for _, m := range h.candidateModels(r) {
				if m.ID != gs.SelectedModel && m.Healthy {
					h.logger.Info("Switching model after dead route",
						"id", gameID.String(), "from", gs.SelectedModel, "to", m.ID)
					gs.SelectedModel = m.ID
					gs.APIStats.CurrentModel = m.ID
					break
				}
			}
		}
	}

	if !h.save(w, r, gs) {
		return
	}
	h.respond(w, http.StatusOK, gs)
}

func (h *GameHandler) handleExport(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	w.Header().Set("Content-Type", "application/json")

	gs := h.load(w, r, gameID)
	if gs == nil {
		return
	}

	data, err := game.ExportSnapshot(gs)
	if err != nil {
		h.logger.Error("Failed to export snapshot", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to export snapshot")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", game.SnapshotFilename(gs)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write snapshot", "error", err)
	}
}

func (h *GameHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("Failed to read import body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}

	gs, err := game.ImportSnapshot(body)
	if err != nil {
		// Nothing stored has been touched; the bad file is simply rejected.
		h.logger.Warn("Snapshot rejected", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid snapshot: "+err.Error())
		return
	}
	if gs.ID == uuid.Nil {
		gs.ID = uuid.New()
	}

	if !h.save(w, r, gs) {
		return
	}
	h.logger.Info("Snapshot imported", "id", gs.ID.String(), "day", gs.Day)
	h.respond(w, http.StatusCreated, gs)
}
