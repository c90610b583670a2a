package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/moderntrail/trail-engine/pkg/chat"
)

const (
	// DefaultGenerateTimeout bounds each upstream call. A model that does
	// not answer in time is treated the same as one that errors.
	DefaultGenerateTimeout = 4 * time.Second

	eventMaxTokens   = 900
	eventTemperature = 0.8
)

// ChatClient is the slice of the LLM API the generator needs. The
// OpenRouter service in internal/services implements it; tests use a stub.
type ChatClient interface {
	ChatCompletion(ctx context.Context, req chat.CompletionRequest) (*chat.Completion, error)
}

// EventGenerator produces narrative events. It tries the player's
// selected model first, then the remaining healthy candidates in order,
// and falls back to the hardcoded pool when everything fails. Generate
// never returns an error: the worst case is a fallback event.
type EventGenerator struct {
	client  ChatClient
	timeout time.Duration
	rng     *rand.Rand
	logger  *slog.Logger
}

func NewEventGenerator(client ChatClient, logger *slog.Logger) *EventGenerator {
	return &EventGenerator{
		client:  client,
		timeout: DefaultGenerateTimeout,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:  logger,
	}
}

// WithTimeout overrides the per-call timeout.
func (g *EventGenerator) WithTimeout(d time.Duration) *EventGenerator {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// Candidates orders the healthy models for one generation attempt: the
// selected model first, then the rest in listed order.
func Candidates(selected string, models []chat.Model) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m.ID == selected && m.Healthy {
			out = append(out, m.ID)
		}
	}
	for _, m := range models {
		if m.ID != selected && m.Healthy {
			out = append(out, m.ID)
		}
	}
	return out
}

// Generate resolves the pending event for gs, mutating its API stats and
// selected model as part of the same transition, and clears the pending
// flag. It always leaves gs with a structurally valid CurrentEvent.
func (g *EventGenerator) Generate(ctx context.Context, gs *GameState, models []chat.Model) {
	defer func() { gs.Pending = false }()

	prompt := buildEventPrompt(gs)
	var lastErr error
	for _, modelID := range Candidates(gs.SelectedModel, models) {
		ev, usage, err := g.tryModel(ctx, modelID, prompt)
		gs.APIStats.TotalCalls++
		if err != nil {
			lastErr = err
			gs.APIStats.FailedCalls++
			g.logger.Warn("event generation failed, trying next model",
				"model", modelID, "error", err)
			continue
		}
		gs.SelectedModel = modelID
		gs.CurrentEvent = ev
		gs.APIStats.Connected = true
		gs.APIStats.SuccessfulCalls++
		gs.APIStats.TotalTokensUsed += usage.TotalTokens
		gs.APIStats.CurrentModel = modelID
		gs.APIStats.LastError = ""
		return
	}

	// Every candidate failed (or none were healthy). Fall back.
	ev := FallbackEvent(gs, g.rng)
	gs.CurrentEvent = &ev
	gs.APIStats.Connected = false
	gs.APIStats.FallbackEvents++
	if lastErr != nil {
		gs.APIStats.LastError = lastErr.Error()
	} else {
		gs.APIStats.LastError = "no healthy models available"
	}
	g.logger.Info("using fallback event", "title", ev.Title, "error", gs.APIStats.LastError)
}

func (g *EventGenerator) tryModel(ctx context.Context, modelID, prompt string) (*Event, chat.Usage, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.ChatCompletion(callCtx, chat.CompletionRequest{
		Model:       modelID,
		Messages:    []chat.Message{{Role: chat.RoleUser, Content: prompt}},
		MaxTokens:   eventMaxTokens,
		Temperature: eventTemperature,
	})
	if err != nil {
		return nil, chat.Usage{}, fmt.Errorf("chat completion: %w", err)
	}
	ev, err := DecodeEvent(resp.Text())
	if err != nil {
		return nil, chat.Usage{}, err
	}
	return ev, resp.Usage, nil
}

func buildEventPrompt(gs *GameState) string {
	snapshot := map[string]any{
		"location":       gs.CurrentLocation().Name,
		"day":            gs.Day,
		"health":         gs.Health,
		"morale":         gs.Morale,
		"supplies":       gs.Supplies,
		"money":          gs.Money,
		"party":          partySummary(gs.Party),
		"distanceToNext": gs.DistanceToNext,
		"totalDistance":  gs.TotalDistance,
		"jailed":         gs.Jailed,
		"stuckDays":      gs.StuckDays,
	}
	stateJSON, _ := json.Marshal(snapshot)

	return fmt.Sprintf(`You are generating a satirical event for a dystopian Oregon Trail-style game called "The Modern American Trail" set in a conservative-controlled America in %d.
Current game state: %s
Generate a sarcastic, darkly humorous event that mocks authoritarianism. The event should be relevant to the current location %q.
Consider the party's health/morale. Include 2-3 meaningful choices that affect game stats realistically.
Make effects proportional to the current state - if health/morale is low, avoid overly harsh penalties. If supplies are critical, offer a way to find some.
Respond with ONLY valid JSON in this exact format:
{
  "title": "Event Title",
  "description": "2-3 sentences",
  "choices": [
    { "text": "Choice 1", "effect": { "health": -5, "morale": 5, "supplies": 0, "money": -25, "partyHealth": -3, "partyMorale": 2, "miles": 0, "message": "Result" } },
    { "text": "Choice 2", "effect": { "health": 0, "morale": -10, "supplies": 5, "money": 0, "partyHealth": 0, "partyMorale": -5, "miles": 0, "message": "Result" } }
  ]
}
Numeric ranges: health/morale/supplies/partyHealth/partyMorale in [-100,100], money in [-1000,2000], miles in [0,150].`,
		time.Now().Year()+1, stateJSON, gs.CurrentLocation().Name)
}

func partySummary(party []Member) string {
	out := ""
	for i, m := range party {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%s, Health: %d%%, Morale: %d%%)", m.Name, m.Profession, m.Health, m.Morale)
	}
	return out
}
