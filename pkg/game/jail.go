package game

// Jail and stuck policy. Arrests in the first days of a run are
// suppressed so a day-1 arrest cannot softlock the game, escape chance
// grows with every day served, and JailMaxDays is a hard cap so jail
// always releases in bounded time.
const (
	EarlyJailGuardDays = 3
	JailMaxDays        = 5
	JailEscapeBase     = 0.35
	jailEscapeStep     = 0.10
	jailEscapeCap      = 0.95
)

// Immobile reports whether the party is jailed or stuck. While immobile,
// the only available action is Continue, which ticks the counters.
func (gs *GameState) Immobile() bool {
	return gs.Jailed || gs.StuckDays > 0
}

// JailEscapeChance returns the escape probability for a tick after
// daysServed full days in jail.
func JailEscapeChance(daysServed int) float64 {
	chance := JailEscapeBase + jailEscapeStep*float64(daysServed)
	if chance > jailEscapeCap {
		return jailEscapeCap
	}
	return chance
}

// applyImmobility applies the jail/stuck portion of a sanitized effect.
// SendToJail wins over StuckDays when both are set.
func (gs *GameState) applyImmobility(e Effect) {
	if e.SendToJail {
		if gs.Day <= EarlyJailGuardDays {
			return // early-game arrests are suppressed entirely
		}
		gs.Jailed = true
		gs.DaysInJail = 0
		gs.StuckDays = 0
		return
	}
	if e.StuckDays > 0 {
		gs.StuckDays = e.StuckDays
	}
}

// tickJail serves one jail day. The day counter always advances; roll is
// compared against the escalating escape chance, and the hard cap
// guarantees release after JailMaxDays served. Returns true on release.
func (gs *GameState) tickJail(roll float64) bool {
	gs.Day++
	gs.DaysInJail++
	if roll < JailEscapeChance(gs.DaysInJail-1) || gs.DaysInJail >= JailMaxDays {
		gs.Jailed = false
		gs.DaysInJail = 0
		return true
	}
	return false
}

// tickStuck burns one stuck day. Stuck ticks advance the calendar but not
// the trail. Returns true when the party is free again.
func (gs *GameState) tickStuck() bool {
	gs.Day++
	if gs.StuckDays > 0 {
		gs.StuckDays--
	}
	return gs.StuckDays == 0
}
