package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is the current save schema. Older snapshots are
// migrated on import by defaulting fields they predate.
const SnapshotVersion = 2

// ErrInvalidSnapshot marks import data that cannot become a game state.
// The caller's in-memory state must be left untouched when it occurs.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

type snapshotMeta struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

type snapshot struct {
	*GameState
	Meta snapshotMeta `json:"_meta"`
}

// ExportSnapshot serializes the full game state as human-readable JSON,
// suitable for a file download.
func ExportSnapshot(gs *GameState) ([]byte, error) {
	if gs == nil {
		return nil, fmt.Errorf("nil game state")
	}
	snap := snapshot{
		GameState: gs,
		Meta:      snapshotMeta{Version: SnapshotVersion, SavedAt: time.Now().UTC()},
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// SnapshotFilename encodes the outcome and day count into a download
// name, e.g. "modern_trail_victory_34days.json". Informational only.
func SnapshotFilename(gs *GameState) string {
	outcome := "run"
	if gs.IsWon() {
		outcome = "victory"
	}
	return fmt.Sprintf("modern_trail_%s_%ddays.json", outcome, gs.Day)
}

// ImportSnapshot parses a snapshot produced by ExportSnapshot (any
// schema version). Blobs missing the minimally required fields are
// rejected with ErrInvalidSnapshot; fields introduced after the
// snapshot's version are defaulted.
func ImportSnapshot(data []byte) (*GameState, error) {
	var snap snapshot
	snap.GameState = &GameState{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	gs := snap.GameState
	if len(gs.Locations) == 0 {
		return nil, fmt.Errorf("%w: missing locations", ErrInvalidSnapshot)
	}
	if gs.Day < 1 {
		return nil, fmt.Errorf("%w: missing or invalid day", ErrInvalidSnapshot)
	}
	migrate(gs)
	return gs, nil
}

// migrate defaults fields added after older save versions and clamps
// anything a hand-edited save could have pushed out of bounds.
func migrate(gs *GameState) {
	if gs.Party == nil {
		gs.Party = defaultParty()
	}
	if gs.GameLog == nil {
		gs.GameLog = make([]LogEntry, 0)
	}
	gs.Health = clampInt(gs.Health, 0, 100)
	gs.Morale = clampInt(gs.Morale, 0, 100)
	gs.Supplies = clampInt(gs.Supplies, 0, 100)
	if gs.Money < 0 {
		gs.Money = 0
	}
	for i := range gs.Party {
		gs.Party[i].Health = clampInt(gs.Party[i].Health, 0, 100)
		gs.Party[i].Morale = clampInt(gs.Party[i].Morale, 0, 100)
	}
	gs.CurrentLocationIndex = clampInt(gs.CurrentLocationIndex, 0, len(gs.Locations)-1)
	if gs.DistanceToNext < 0 {
		gs.DistanceToNext = 0
	}
	if gs.TotalDistance < 0 {
		gs.TotalDistance = 0
	}
	gs.StuckDays = clampInt(gs.StuckDays, 0, MaxStuckDays)
	if !gs.Jailed {
		gs.DaysInJail = 0
	}
	gs.DaysInJail = clampInt(gs.DaysInJail, 0, JailMaxDays)
	if gs.APIStats.CurrentModel == "" {
		gs.APIStats.CurrentModel = gs.SelectedModel
	}
	// A snapshot can never resume mid-generation.
	gs.Pending = false
}
