package game

import (
	"fmt"
	"math/rand/v2"
)

const (
	LocationTypeCity    = "city"
	LocationTypeHostile = "hostile"
)

// Location is a single waypoint on the trail. The track is generated once
// per game and never mutated afterwards.
type Location struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DestinationName is the final waypoint. Reaching it with health above
// zero wins the game.
const DestinationName = "Safe Haven of Vermont"

// Leg length constants, in miles. A new leg is rolled whenever the party
// arrives at a waypoint; backtracking uses averageLegMiles as a coarse
// reverse-traversal approximation (see retreatMiles).
const (
	initialLegBase   = 30
	initialLegSpread = 50 // 30-79
	legBase          = 40
	legSpread        = 60 // 40-99
	averageLegMiles  = 70

	minProceduralStops = 2
	maxProceduralStops = 4
)

var narrativeStops = []string{
	"Liberal Enclave of Portland",
	"The Censored City (formerly Seattle)",
	"Book Burning Fields of Idaho",
	"Surveillance State of Montana",
	"The Great Wall of North Dakota",
	"Ministry of Truth (Minnesota)",
	"Re-education Camps of Wisconsin",
	"Thought Police Headquarters (Illinois)",
	"Corporate Theocracy of Indiana",
	"Bible Belt Checkpoint (Kentucky)",
	"Coal Rolling Capital (West Virginia)",
	"Confederate Memorial Highway (Virginia)",
	"Freedom™ Processing Center (Maryland)",
	"The Last Stand (Pennsylvania)",
	DestinationName,
}

var proceduralSuffixes = []string{
	"Checkpoint Alpha", "Detention Center", "Propaganda Station", "Truth Verification Point",
	"Loyalty Testing Facility", "Patriotism Academy", "Freedom™ Outpost", "Border Patrol Zone",
	"Corporate Compound", "Indoctrination Hub", "Surveillance Nexus", "Control Point",
	"Compliance Center", "Authority Station", "Regime Outpost", "Order Facility",
}

// GenerateTrack builds the ordered waypoint list for a new game: the fixed
// narrative stops with 2-4 randomly named hostile stops between each pair.
// The structure is deterministic, the fill is not; new games get new maps.
func GenerateTrack(rng *rand.Rand) []Location {
	out := make([]Location, 0, len(narrativeStops)*4)
	for i := 0; i < len(narrativeStops)-1; i++ {
		out = append(out, Location{Name: narrativeStops[i], Type: LocationTypeCity})
		n := minProceduralStops + rng.IntN(maxProceduralStops-minProceduralStops+1)
		for j := 0; j < n; j++ {
			suffix := proceduralSuffixes[rng.IntN(len(proceduralSuffixes))]
			name := fmt.Sprintf("%s %c-%d", suffix, 'A'+i, j+1)
			out = append(out, Location{Name: name, Type: LocationTypeHostile})
		}
	}
	return append(out, Location{Name: DestinationName, Type: LocationTypeCity})
}

func initialLegLength(rng *rand.Rand) int {
	return initialLegBase + rng.IntN(initialLegSpread)
}

func nextLegLength(rng *rand.Rand) int {
	return legBase + rng.IntN(legSpread)
}

// advanceMiles moves the party forward. When the current leg reaches zero
// and the destination has not been reached, the cursor advances and a new
// leg length is rolled.
func (gs *GameState) advanceMiles(miles int, rng *rand.Rand) {
	if miles <= 0 {
		return
	}
	gs.TotalDistance += miles
	gs.DistanceToNext -= miles
	if gs.DistanceToNext <= 0 {
		gs.DistanceToNext = 0
		if gs.CurrentLocationIndex < len(gs.Locations)-1 {
			gs.CurrentLocationIndex++
			gs.DistanceToNext = nextLegLength(rng)
		}
	}
}

// retreatMiles moves the party backward. The cursor is walked back one
// waypoint for every averageLegMiles of accumulated reverse distance.
// This is an approximation, not an exact replay of the forward legs, so
// repeated back-and-forth travel can drift the cursor relative to
// TotalDistance. That behavior is deliberate.
func (gs *GameState) retreatMiles(miles int) {
	if miles <= 0 {
		return
	}
	gs.DistanceToNext += miles
	gs.TotalDistance -= miles
	if gs.TotalDistance < 0 {
		gs.TotalDistance = 0
	}
	for gs.DistanceToNext > averageLegMiles && gs.CurrentLocationIndex > 0 {
		gs.CurrentLocationIndex--
		gs.DistanceToNext -= averageLegMiles
	}
}

// forceWin jumps the party to the destination. Used by endGame:"win"
// effects; it overrides any other movement in the same transition.
func (gs *GameState) forceWin() {
	gs.CurrentLocationIndex = len(gs.Locations) - 1
	gs.DistanceToNext = 0
}
