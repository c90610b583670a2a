package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// Daily travel and attrition tuning.
const (
	travelBaseMiles  = 15
	travelMileSpread = 10 // base roll 15-24
	healthMileDiv    = 20 // +1 mile per 20 health
	suppliesMileDiv  = 25 // +1 mile per 25 supplies
)

// Cascading event heuristics: after a choice resolves, at most one of
// these may immediately chain a follow-up event instead of returning to
// idle. First matching condition wins; they never stack.
const (
	cascadeHealthBelow   = 30
	cascadeSuppliesBelow = 20
	cascadeStatChance    = 0.25
	cascadeKeywordChance = 0.30
)

var cascadeKeywords = []string{"bribe", "steal", "resist", "fight", "run"}

// Reducer owns all game state transitions. Every mutation of a GameState
// goes through one of its action methods; the methods are synchronous and
// deterministic given the injected random sources.
type Reducer struct {
	rng    *rand.Rand
	roll   func() float64 // probability rolls (jail escape, cascades)
	logger *slog.Logger
}

func NewReducer(logger *slog.Logger) *Reducer {
	r := &Reducer{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: logger,
	}
	r.roll = r.rng.Float64
	return r
}

// WithRand replaces the random sources. Tests use this to force
// deterministic rolls.
func (r *Reducer) WithRand(rng *rand.Rand, roll func() float64) *Reducer {
	r.rng = rng
	if roll != nil {
		r.roll = roll
	} else {
		r.roll = rng.Float64
	}
	return r
}

// NewGame starts a fresh run preferring the given model.
func (r *Reducer) NewGame(modelID string) *GameState {
	gs := NewGameState(modelID, r.rng)
	r.logger.Info("new game started", "id", gs.ID, "model", modelID,
		"locations", len(gs.Locations), "first_leg", gs.DistanceToNext)
	return gs
}

// Continue advances one day. While jailed or stuck it ticks the
// immobility state instead of traveling. Returns true when a narrative
// event should be generated; the caller runs the generator and the
// pending flag suppresses double triggers meanwhile.
func (r *Reducer) Continue(gs *GameState) bool {
	if gs.IsOver() || gs.Pending || gs.CurrentEvent != nil {
		return false
	}
	gs.UpdatedAt = time.Now().UTC()

	if gs.Jailed {
		served := gs.DaysInJail
		if gs.tickJail(r.roll()) {
			gs.appendLog("Jail", fmt.Sprintf("Released after %d days in detention.", served+1))
		} else {
			gs.appendLog("Jail", fmt.Sprintf("Still detained. Day %d in jail.", gs.DaysInJail))
		}
		gs.Pending = true
		return true
	}

	if gs.StuckDays > 0 {
		if gs.tickStuck() {
			gs.appendLog("Delay", "The party can finally move again.")
		} else {
			gs.appendLog("Delay", fmt.Sprintf("Still stuck. %d days to go.", gs.StuckDays))
		}
		gs.Pending = true
		return true
	}

	miles := travelBaseMiles + r.rng.IntN(travelMileSpread) +
		gs.Health/healthMileDiv + gs.Supplies/suppliesMileDiv
	gs.advanceMiles(miles, r.rng)

	gs.Supplies = clampInt(gs.Supplies-(8+r.rng.IntN(10)), 0, 100)
	gs.Health = clampInt(gs.Health-(2+r.rng.IntN(5)), 0, 100)
	gs.Morale = clampInt(gs.Morale-(3+r.rng.IntN(7)), 0, 100)
	for i := range gs.Party {
		gs.Party[i].Health = clampInt(gs.Party[i].Health-(2+r.rng.IntN(5)), 0, 100)
		gs.Party[i].Morale = clampInt(gs.Party[i].Morale-(3+r.rng.IntN(6)), 0, 100)
	}
	gs.Day++
	gs.appendLog("Travel", fmt.Sprintf("Covered %d miles toward %s.", miles, nextStopName(gs)))

	if gs.IsOver() {
		// Arrived or succumbed to attrition; no event follows a terminal day.
		return false
	}
	gs.Pending = true
	return true
}

// Choose resolves choice index i of the current event. The chosen effect
// is re-sanitized on the way in; effects coming off the generator path
// are treated as untrusted regardless of origin.
func (r *Reducer) Choose(gs *GameState, i int) (bool, error) {
	if gs.IsOver() {
		return false, fmt.Errorf("game is over")
	}
	if gs.CurrentEvent == nil {
		return false, fmt.Errorf("no event to resolve")
	}
	if i < 0 || i >= len(gs.CurrentEvent.Choices) {
		return false, fmt.Errorf("choice index %d out of range", i)
	}
	gs.UpdatedAt = time.Now().UTC()

	choice := gs.CurrentEvent.Choices[i]
	e := choice.Effect.Sanitize()
	title := gs.CurrentEvent.Title

	if e.EndGame == EndGameWin {
		gs.forceWin()
	} else {
		gs.advanceMiles(e.Miles, r.rng)
		gs.retreatMiles(e.MilesBack)
	}
	gs.applyImmobility(e)
	gs.applyResources(e)
	if e.EndGame == EndGameLose {
		// A losing effect ends the run even if the same effect healed.
		gs.Health = 0
	}

	msg := e.Message
	if msg == "" {
		msg = "You made your choice."
	}
	if summary := e.Summary(); summary != "" {
		msg += " — " + summary
	}
	gs.appendLog(title, msg)
	gs.CurrentEvent = nil

	if gs.IsOver() {
		return false, nil
	}
	if r.shouldCascade(gs, choice.Text) {
		gs.Pending = true
		return true, nil
	}
	return false, nil
}

// shouldCascade applies exactly one cascading-event check, in fixed
// priority order.
func (r *Reducer) shouldCascade(gs *GameState, choiceText string) bool {
	switch {
	case gs.Health < cascadeHealthBelow:
		return r.roll() < cascadeStatChance
	case gs.Supplies < cascadeSuppliesBelow:
		return r.roll() < cascadeStatChance
	case containsKeyword(choiceText):
		return r.roll() < cascadeKeywordChance
	}
	return false
}

func containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range cascadeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Buy purchases a shop item at basePrice +/- priceSpread. Unknown items
// and unaffordable prices are silent no-ops, per the shop contract.
func (r *Reducer) Buy(gs *GameState, itemID string) bool {
	if gs.IsOver() || gs.Immobile() {
		return false
	}
	item, ok := FindItem(itemID)
	if !ok {
		return false
	}
	price := item.BasePrice + r.rng.IntN(2*priceSpread+1) - priceSpread
	if gs.Money < price {
		return false
	}
	gs.UpdatedAt = time.Now().UTC()
	gs.Money -= price
	gs.applyResources(Effect{
		Health:      item.Effect.Health,
		Morale:      item.Effect.Morale,
		Supplies:    item.Effect.Supplies,
		PartyHealth: item.Effect.PartyHealth,
		PartyMorale: item.Effect.PartyMorale,
	})
	gs.appendLog("Black Market Purchase", fmt.Sprintf("Bought %s for $%d.", item.Name, price))
	return true
}

func nextStopName(gs *GameState) string {
	if gs.CurrentLocationIndex < len(gs.Locations)-1 {
		return gs.Locations[gs.CurrentLocationIndex+1].Name
	}
	return gs.CurrentLocation().Name
}
