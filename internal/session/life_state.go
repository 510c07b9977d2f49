package session

// LifeState is what the tracked character is doing between kills and deaths
type LifeState int

const (
	Alive LifeState = iota
	Dead
	DeadByTeamkill
	Revived
)

func (s LifeState) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	case DeadByTeamkill:
		return "dead_by_teamkill"
	case Revived:
		return "revived"
	default:
		return "unknown"
	}
}

// resetsStreak reports whether the next kill or death starts a new streak.
// Only a death that was neither revived nor caused by a teammate ends the streak.
func (s LifeState) resetsStreak() bool {
	switch s {
	case Dead:
		return true
	case Alive, DeadByTeamkill, Revived:
		return false
	default:
		return false
	}
}

func (s LifeState) afterKill() (LifeState, bool) {
	return Alive, s.resetsStreak()
}

func (s LifeState) afterDeath(teamkill bool) (LifeState, bool) {
	if teamkill {
		return DeadByTeamkill, s.resetsStreak()
	}
	return Dead, s.resetsStreak()
}

func (s LifeState) afterReviveTaken() LifeState {
	return Revived
}
