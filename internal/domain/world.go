package domain

// NormalizeWorldID maps merged servers onto the world that absorbed them
func NormalizeWorldID(worldID uint32) uint32 {
	switch worldID {
	case 17:
		return 1
	case 13:
		return 10
	default:
		return worldID
	}
}

// FactionTag returns the short faction tag for a team or faction id
func FactionTag(teamID uint32) string {
	switch teamID {
	case 1:
		return "VS"
	case 2:
		return "NC"
	case 3:
		return "TR"
	default:
		return "NSO"
	}
}
