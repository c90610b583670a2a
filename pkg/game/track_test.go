package game

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// Track generation is intentionally unseeded in production, so these
// tests assert structure, not literal contents.
func TestGenerateTrack_Structure(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		track := GenerateTrack(testRand(seed))

		if track[0].Name != narrativeStops[0] {
			t.Errorf("seed %d: track starts at %q, want %q", seed, track[0].Name, narrativeStops[0])
		}
		last := track[len(track)-1]
		if last.Name != DestinationName || last.Type != LocationTypeCity {
			t.Errorf("seed %d: track ends at %+v, want destination city", seed, last)
		}

		// Every narrative stop appears in order, with 2-4 hostile stops
		// between consecutive pairs.
		idx := 0
		for i, want := range narrativeStops {
			hostiles := 0
			for idx < len(track) && track[idx].Name != want {
				if track[idx].Type != LocationTypeHostile {
					t.Fatalf("seed %d: unexpected city %q before %q", seed, track[idx].Name, want)
				}
				hostiles++
				idx++
			}
			if idx == len(track) {
				t.Fatalf("seed %d: narrative stop %q missing", seed, want)
			}
			if track[idx].Type != LocationTypeCity {
				t.Errorf("seed %d: narrative stop %q has type %q", seed, want, track[idx].Type)
			}
			if i > 0 && (hostiles < minProceduralStops || hostiles > maxProceduralStops) {
				t.Errorf("seed %d: %d hostile stops before %q, want %d-%d",
					seed, hostiles, want, minProceduralStops, maxProceduralStops)
			}
			idx++
		}
	}
}

func TestGenerateTrack_ProceduralNames(t *testing.T) {
	track := GenerateTrack(testRand(7))
	for _, loc := range track {
		if loc.Type != LocationTypeHostile {
			continue
		}
		matched := false
		for _, suffix := range proceduralSuffixes {
			if strings.HasPrefix(loc.Name, suffix+" ") {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("hostile stop %q does not use a known suffix", loc.Name)
		}
	}
}

func TestAdvanceMiles_ArrivalResamplesLeg(t *testing.T) {
	rng := testRand(1)
	gs := NewGameState("m", rng)
	gs.DistanceToNext = 40

	gs.advanceMiles(50, rng)

	if gs.CurrentLocationIndex != 1 {
		t.Errorf("CurrentLocationIndex = %d, want 1", gs.CurrentLocationIndex)
	}
	if gs.TotalDistance != 50 {
		t.Errorf("TotalDistance = %d, want 50", gs.TotalDistance)
	}
	if gs.DistanceToNext < legBase || gs.DistanceToNext >= legBase+legSpread {
		t.Errorf("DistanceToNext = %d, want resampled in [%d,%d)", gs.DistanceToNext, legBase, legBase+legSpread)
	}
}

func TestAdvanceMiles_NoAdvancePastDestination(t *testing.T) {
	rng := testRand(2)
	gs := NewGameState("m", rng)
	gs.CurrentLocationIndex = len(gs.Locations) - 1
	gs.DistanceToNext = 10

	gs.advanceMiles(500, rng)

	if gs.CurrentLocationIndex != len(gs.Locations)-1 {
		t.Errorf("index moved past destination: %d", gs.CurrentLocationIndex)
	}
	if gs.DistanceToNext != 0 {
		t.Errorf("DistanceToNext = %d, want 0 at destination", gs.DistanceToNext)
	}
}

func TestRetreatMiles_WalksIndexBack(t *testing.T) {
	rng := testRand(3)
	gs := NewGameState("m", rng)
	gs.CurrentLocationIndex = 5
	gs.DistanceToNext = 20
	gs.TotalDistance = 300

	gs.retreatMiles(150)

	// 20+150=170 > 70 twice: index 5 -> 3, remainder 30.
	if gs.CurrentLocationIndex != 3 {
		t.Errorf("CurrentLocationIndex = %d, want 3", gs.CurrentLocationIndex)
	}
	if gs.DistanceToNext != 30 {
		t.Errorf("DistanceToNext = %d, want 30", gs.DistanceToNext)
	}
	if gs.TotalDistance != 150 {
		t.Errorf("TotalDistance = %d, want 150", gs.TotalDistance)
	}
}

func TestRetreatMiles_FloorsAtTrackStart(t *testing.T) {
	rng := testRand(4)
	gs := NewGameState("m", rng)
	gs.TotalDistance = 10

	gs.retreatMiles(150)

	if gs.CurrentLocationIndex != 0 {
		t.Errorf("CurrentLocationIndex = %d, want 0", gs.CurrentLocationIndex)
	}
	if gs.TotalDistance != 0 {
		t.Errorf("TotalDistance = %d, want 0", gs.TotalDistance)
	}
}

// Random walks never push the cursor out of the track or stats out of
// their bounds.
func TestMovement_IndexStaysValid(t *testing.T) {
	rng := testRand(5)
	gs := NewGameState("m", rng)
	for i := 0; i < 2000; i++ {
		if rng.IntN(2) == 0 {
			gs.advanceMiles(rng.IntN(MaxEffectMiles+1), rng)
		} else {
			gs.retreatMiles(rng.IntN(MaxEffectMiles + 1))
		}
		if gs.CurrentLocationIndex < 0 || gs.CurrentLocationIndex >= len(gs.Locations) {
			t.Fatalf("step %d: index %d out of range [0,%d)", i, gs.CurrentLocationIndex, len(gs.Locations))
		}
		if gs.DistanceToNext < 0 || gs.TotalDistance < 0 {
			t.Fatalf("step %d: negative distance: next=%d total=%d", i, gs.DistanceToNext, gs.TotalDistance)
		}
	}
}
