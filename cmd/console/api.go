package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"github.com/moderntrail/trail-engine/pkg/game"
)

func decodeGameResponse(resp *http.Response, wantStatus int) (*game.GameState, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%s", errorResp.Error)
	}

	var gs game.GameState
	if err := json.Unmarshal(body, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse game state response: %w", err)
	}
	return &gs, nil
}

func createGame(client *http.Client, baseURL string, model string) (*game.GameState, error) {
	jsonData, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/game",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeGameResponse(resp, http.StatusCreated)
}

func getGame(client *http.Client, baseURL string, gameID uuid.UUID) (*game.GameState, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/game/%s", baseURL, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeGameResponse(resp, http.StatusOK)
}

func postAction(client *http.Client, baseURL string, gameID uuid.UUID, action string, payload interface{}) (*game.GameState, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/game/%s/%s", baseURL, gameID, action),
		"application/json",
		body,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	return decodeGameResponse(resp, http.StatusOK)
}

func continueDay(client *http.Client, baseURL string, gameID uuid.UUID) (*game.GameState, error) {
	return postAction(client, baseURL, gameID, "continue", nil)
}

func chooseOption(client *http.Client, baseURL string, gameID uuid.UUID, choice int) (*game.GameState, error) {
	return postAction(client, baseURL, gameID, "choice", map[string]int{"choice": choice})
}

func buyItem(client *http.Client, baseURL string, gameID uuid.UUID, itemID string) (*game.GameState, error) {
	return postAction(client, baseURL, gameID, "buy", map[string]string{"item": itemID})
}

func testModelConnection(client *http.Client, baseURL string, gameID uuid.UUID) (*game.GameState, error) {
	return postAction(client, baseURL, gameID, "test-connection", nil)
}

// exportSnapshot downloads the save file and returns its suggested
// filename alongside the raw bytes.
func exportSnapshot(client *http.Client, baseURL string, gameID uuid.UUID) (string, []byte, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/game/%s/export", baseURL, gameID))
	if err != nil {
		return "", nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return "", nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return "", nil, fmt.Errorf("%s", errorResp.Error)
	}

	filename := "modern_trail_save.json"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := params["filename"]; fn != "" {
			filename = fn
		}
	}
	return filename, body, nil
}
