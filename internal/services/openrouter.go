package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/moderntrail/trail-engine/pkg/chat"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// The free route on this model has been flaky upstream; drop it from
	// the directory rather than hand players a dead default.
	excludedModelID = "meta-llama/llama-3.1-8b-instruct:free"

	probeMaxTokens = 5
)

// FallbackFreeModels is served when the upstream model directory is
// unavailable, so the game always has candidates to offer.
var FallbackFreeModels = []chat.Model{
	{ID: "mistralai/mistral-7b-instruct:free", Name: "Mistral 7B (Free)", Healthy: true},
	{ID: "huggingfaceh4/zephyr-7b-beta:free", Name: "Zephyr 7B (Free)", Healthy: true},
	{ID: "microsoft/phi-3-mini-128k-instruct:free", Name: "Phi-3 Mini 128k (Free)", Healthy: true},
	{ID: "qwen/qwen-2-7b-instruct:free", Name: "Qwen 2 7B (Free)", Healthy: true},
	{ID: "openchat/openchat-7b:free", Name: "OpenChat 7B (Free)", Healthy: true},
}

var probeOKRe = regexp.MustCompile(`(?i)^OK$`)

// OpenRouterService implements LLMService against the OpenRouter API.
type OpenRouterService struct {
	apiKey     string
	baseURL    string
	siteURL    string
	httpClient *http.Client
}

var _ LLMService = (*OpenRouterService)(nil)

// NewOpenRouterService creates a new OpenRouter client. baseURL and
// siteURL may be empty; the API key is required for live traffic.
func NewOpenRouterService(apiKey, baseURL, siteURL string) *OpenRouterService {
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		siteURL: siteURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *OpenRouterService) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if s.siteURL != "" {
		req.Header.Set("HTTP-Referer", s.siteURL)
	}
	req.Header.Set("X-Title", "Modern American Trail")
}

// ChatCompletion issues a single chat completion request. Non-200
// responses and unparsable bodies are both returned as errors; callers
// treat them identically as generation failure.
func (s *OpenRouterService) ChatCompletion(ctx context.Context, creq chat.CompletionRequest) (*chat.Completion, error) {
	if err := creq.Validate(); err != nil {
		return nil, err
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("missing OpenRouter API key")
	}

	reqBody, err := json.Marshal(creq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 400))
	}

	var completion struct {
		chat.Completion
		Error *struct {
			Message string `json:"message"`
			Code    any    `json:"code"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("non-JSON response from OpenRouter: %w", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("API error: %s", completion.Error.Message)
	}
	return &completion.Completion, nil
}

// openRouterModel is the upstream model directory entry. Pricing values
// arrive as strings.
type openRouterModel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pricing struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
}

// ListModels returns the free chat models from the OpenRouter directory:
// models tagged :free or reporting zero pricing, deduplicated and sorted
// by name. The upstream being down is not fatal; callers fall back to
// FallbackFreeModels.
func (s *OpenRouterService) ListModels(ctx context.Context) ([]chat.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model directory returned status %d", resp.StatusCode)
	}

	var dir struct {
		Data []openRouterModel `json:"data"`
	}
	if err := json.Unmarshal(body, &dir); err != nil {
		return nil, fmt.Errorf("bad upstream response: %w", err)
	}

	return filterFreeModels(dir.Data), nil
}

func filterFreeModels(models []openRouterModel) []chat.Model {
	seen := make(map[string]bool)
	out := make([]chat.Model, 0, len(models))
	for _, m := range models {
		if m.ID == "" || m.ID == excludedModelID || seen[m.ID] {
			continue
		}
		if !strings.Contains(m.ID, ":free") && !(isZeroPrice(m.Pricing.Prompt) && isZeroPrice(m.Pricing.Completion)) {
			continue
		}
		seen[m.ID] = true
		name := m.Name
		if name == "" {
			name = m.ID
		}
		out = append(out, chat.Model{ID: m.ID, Name: name, Healthy: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isZeroPrice(p string) bool {
	switch strings.TrimSpace(p) {
	case "0", "0.0", "0.000000":
		return true
	}
	return false
}

// ProbeModel sends a trivial completion and checks for the literal "OK"
// reply. Timeouts and malformed replies both report unhealthy.
func (s *OpenRouterService) ProbeModel(ctx context.Context, modelID string) (bool, error) {
	resp, err := s.ChatCompletion(ctx, chat.CompletionRequest{
		Model:     modelID,
		Messages:  []chat.Message{{Role: chat.RoleUser, Content: "Respond with only: OK"}},
		MaxTokens: probeMaxTokens,
	})
	if err != nil {
		return false, err
	}
	return probeOKRe.MatchString(resp.Text()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
