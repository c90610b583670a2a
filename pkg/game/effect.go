package game

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Stat delta and movement bounds for sanitized effects. An LLM can emit
// arbitrary numbers; everything applied to a game state passes through
// Sanitize first, so a single event can never wipe out money or teleport
// the party across the map.
const (
	MaxStatDelta  = 100
	MinMoneyDelta = -1000
	MaxMoneyDelta = 2000
	MaxEffectMiles = 150
	MaxStuckDays  = 5
)

const (
	EndGameWin  = "win"
	EndGameLose = "lose"
)

// Effect is the bounded set of deltas a choice or purchase applies to the
// game state. Field names match the save-file JSON so snapshots stay
// loadable.
type Effect struct {
	Health          int    `json:"health,omitempty"`
	Morale          int    `json:"morale,omitempty"`
	Supplies        int    `json:"supplies,omitempty"`
	Money           int    `json:"money,omitempty"`
	PartyHealth     int    `json:"partyHealth,omitempty"`
	PartyMorale     int    `json:"partyMorale,omitempty"`
	Miles           int    `json:"miles,omitempty"`
	MilesBack       int    `json:"milesBack,omitempty"`
	StuckDays       int    `json:"stuckDays,omitempty"`
	SendToJail      bool   `json:"sendToJail,omitempty"`
	PartyMemberLoss bool   `json:"partyMemberLoss,omitempty"`
	EndGame         string `json:"endGame,omitempty"` // "win", "lose" or empty
	Message         string `json:"message,omitempty"`
}

// Sanitize clamps every field to its documented bounds. It never fails
// and is idempotent: Sanitize(Sanitize(e)) == Sanitize(e).
func (e Effect) Sanitize() Effect {
	e.Health = clampInt(e.Health, -MaxStatDelta, MaxStatDelta)
	e.Morale = clampInt(e.Morale, -MaxStatDelta, MaxStatDelta)
	e.Supplies = clampInt(e.Supplies, -MaxStatDelta, MaxStatDelta)
	e.Money = clampInt(e.Money, MinMoneyDelta, MaxMoneyDelta)
	e.PartyHealth = clampInt(e.PartyHealth, -MaxStatDelta, MaxStatDelta)
	e.PartyMorale = clampInt(e.PartyMorale, -MaxStatDelta, MaxStatDelta)
	e.Miles = clampInt(e.Miles, 0, MaxEffectMiles)
	e.MilesBack = clampInt(e.MilesBack, 0, MaxEffectMiles)
	e.StuckDays = clampInt(e.StuckDays, 0, MaxStuckDays)
	if e.EndGame != EndGameWin && e.EndGame != EndGameLose {
		e.EndGame = ""
	}
	return e
}

// DecodeEffect interprets an untrusted JSON value as an Effect. Missing
// fields default to zero, wrong-typed and non-finite numbers are coerced
// to zero, and the result is sanitized. It never fails.
func DecodeEffect(raw json.RawMessage) Effect {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Effect{}
	}
	e := Effect{
		Health:          intField(fields, "health"),
		Morale:          intField(fields, "morale"),
		Supplies:        intField(fields, "supplies"),
		Money:           intField(fields, "money"),
		PartyHealth:     intField(fields, "partyHealth"),
		PartyMorale:     intField(fields, "partyMorale"),
		Miles:           intField(fields, "miles"),
		MilesBack:       intField(fields, "milesBack"),
		StuckDays:       intField(fields, "stuckDays"),
		SendToJail:      boolField(fields, "sendToJail"),
		PartyMemberLoss: boolField(fields, "partyMemberLoss"),
		EndGame:         stringField(fields, "endGame"),
		Message:         stringField(fields, "message"),
	}
	return e.Sanitize()
}

// Summary renders the non-zero deltas for the game log, e.g.
// "Health -5% • Money -$25".
func (e Effect) Summary() string {
	var parts []string
	add := func(label string, v int) {
		if v != 0 {
			parts = append(parts, label+" "+signed(v)+"%")
		}
	}
	add("Health", e.Health)
	add("Morale", e.Morale)
	add("Supplies", e.Supplies)
	if e.Money != 0 {
		sign := "+"
		if e.Money < 0 {
			sign = "-"
		}
		parts = append(parts, "Money "+sign+"$"+strconv.Itoa(absInt(e.Money)))
	}
	add("Party health", e.PartyHealth)
	add("Party morale", e.PartyMorale)
	if e.Miles > 0 {
		parts = append(parts, "Miles +"+strconv.Itoa(e.Miles))
	}
	if e.MilesBack > 0 {
		parts = append(parts, "Miles -"+strconv.Itoa(e.MilesBack))
	}
	return strings.Join(parts, " • ")
}

func signed(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int(f)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func boolField(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return false
	}
}

func stringField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
