package game

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Starting stats for a new run.
const (
	StartHealth   = 100
	StartMorale   = 75
	StartSupplies = 80
	StartMoney    = 500
)

// Member is one traveler in the party. Members can be lost to effects but
// never added.
type Member struct {
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Health     int    `json:"health"`
	Morale     int    `json:"morale"`
}

// LogEntry is one line of the journey log. The log is append-only; the UI
// truncates display, the engine does not.
type LogEntry struct {
	Day    int    `json:"day"`
	Event  string `json:"event"`
	Result string `json:"result"`
}

// APIStats are observability counters for the AI backend. They are owned
// by the game state and mutated only inside reducer transitions, never as
// package-level state.
type APIStats struct {
	Connected       bool   `json:"connected"`
	TotalCalls      int    `json:"totalCalls"`
	SuccessfulCalls int    `json:"successfulCalls"`
	FailedCalls     int    `json:"failedCalls"`
	FallbackEvents  int    `json:"fallbackEvents"`
	TotalTokensUsed int    `json:"totalTokensUsed"`
	CurrentModel    string `json:"currentModel,omitempty"`
	LastError       string `json:"lastError,omitempty"`
}

// AIRatio is the share of events that came from the AI rather than the
// fallback pool. Returns 1 before any event has been generated.
func (s APIStats) AIRatio() float64 {
	total := s.SuccessfulCalls + s.FallbackEvents
	if total == 0 {
		return 1
	}
	return float64(s.SuccessfulCalls) / float64(total)
}

// GameState is the root aggregate for one run of the trail. It is owned
// exclusively by the reducer; all mutation goes through reducer actions.
type GameState struct {
	ID                   uuid.UUID  `json:"id"`
	Day                  int        `json:"day"`
	Health               int        `json:"health"`
	Morale               int        `json:"morale"`
	Supplies             int        `json:"supplies"`
	Money                int        `json:"money"`
	Party                []Member   `json:"party"`
	Locations            []Location `json:"locations"`
	CurrentLocationIndex int        `json:"currentLocationIndex"`
	DistanceToNext       int        `json:"distanceToNext"`
	TotalDistance        int        `json:"totalDistance"`
	StuckDays            int        `json:"stuckDays"`
	Jailed               bool       `json:"jailed"`
	DaysInJail           int        `json:"daysInJail"`
	CurrentEvent         *Event     `json:"currentEvent,omitempty"`
	Pending              bool       `json:"isLoading"` // event generation in flight
	GameLog              []LogEntry `json:"gameLog"`
	APIStats             APIStats   `json:"apiStats"`
	SelectedModel        string     `json:"selectedModel,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// NewGameState creates a fresh run with a newly generated track.
func NewGameState(modelID string, rng *rand.Rand) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:             uuid.New(),
		Day:            1,
		Health:         StartHealth,
		Morale:         StartMorale,
		Supplies:       StartSupplies,
		Money:          StartMoney,
		Party:          defaultParty(),
		Locations:      GenerateTrack(rng),
		DistanceToNext: initialLegLength(rng),
		GameLog:        make([]LogEntry, 0),
		SelectedModel:  modelID,
		APIStats:       APIStats{CurrentModel: modelID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func defaultParty() []Member {
	return []Member{
		{Name: "Alex", Profession: "Former Tech Worker", Health: 100, Morale: 75},
		{Name: "Jordan", Profession: "Banned Teacher", Health: 100, Morale: 75},
		{Name: "Sam", Profession: "Fact-Checker", Health: 100, Morale: 75},
	}
}

// CurrentLocation returns the waypoint under the cursor.
func (gs *GameState) CurrentLocation() Location {
	if len(gs.Locations) == 0 {
		return Location{}
	}
	return gs.Locations[gs.CurrentLocationIndex]
}

// IsWon reports arrival at the destination with health remaining.
func (gs *GameState) IsWon() bool {
	return gs.CurrentLocation().Name == DestinationName && gs.Health > 0
}

// IsLost reports the loss conditions: the player's health at zero, or the
// entire party incapacitated.
func (gs *GameState) IsLost() bool {
	if gs.Health <= 0 {
		return true
	}
	// An empty party counts as lost: everyone who set out is gone.
	for _, m := range gs.Party {
		if m.Health > 0 {
			return false
		}
	}
	return true
}

// IsOver reports a terminal state. No action other than starting a new
// game is accepted once the run is over.
func (gs *GameState) IsOver() bool {
	return gs.IsLost() || gs.CurrentLocation().Name == DestinationName
}

func (gs *GameState) appendLog(event, result string) {
	gs.GameLog = append(gs.GameLog, LogEntry{Day: gs.Day, Event: event, Result: result})
}

// applyResources applies the stat, money and party portion of a sanitized
// effect, clamping everything to its bounds.
func (gs *GameState) applyResources(e Effect) {
	gs.Health = clampInt(gs.Health+e.Health, 0, 100)
	gs.Morale = clampInt(gs.Morale+e.Morale, 0, 100)
	gs.Supplies = clampInt(gs.Supplies+e.Supplies, 0, 100)
	gs.Money += e.Money
	if gs.Money < 0 {
		gs.Money = 0
	}
	for i := range gs.Party {
		gs.Party[i].Health = clampInt(gs.Party[i].Health+e.PartyHealth, 0, 100)
		gs.Party[i].Morale = clampInt(gs.Party[i].Morale+e.PartyMorale, 0, 100)
	}
	if e.PartyMemberLoss {
		gs.loseWeakestMember()
	}
}

// loseWeakestMember removes the party member with the lowest health.
// No-op on an empty party.
func (gs *GameState) loseWeakestMember() {
	if len(gs.Party) == 0 {
		return
	}
	weakest := 0
	for i, m := range gs.Party {
		if m.Health < gs.Party[weakest].Health {
			weakest = i
		}
	}
	lost := gs.Party[weakest]
	gs.Party = append(gs.Party[:weakest], gs.Party[weakest+1:]...)
	gs.appendLog("Party Loss", lost.Name+" did not make it.")
}
