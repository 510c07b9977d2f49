package session

import "slices"

const (
	experienceRoadkilled = "26"

	voiceTeamkill   = "tk"
	voiceRevived    = "revived"
	voiceKillMAX    = "kill_max"
	voiceKillInfil  = "kill_infil"
	voiceKillHighKD = "kill_high_kd"
	voiceKillHS     = "kill_hs"

	highKDThreshold = 2.0
)

var reviveExperienceIDs = []string{"7", "53"}

var assistExperienceIDs = []string{"2", "3", "371", "372"}

// Experience ids grouped by the overlay event they trigger, in lookup order
var experienceEvents = []struct {
	name string
	ids  []string
}{
	{name: "Heal", ids: []string{"4", "51"}},
	{name: "Resupply", ids: []string{"34", "55"}},
	{name: "Point Control", ids: []string{"272", "556", "557"}},
	{name: "Sunderer Spawn", ids: []string{"233"}},
	{name: "Squad Spawn", ids: []string{"56", "220"}},
	{name: "Base Capture", ids: []string{"19", "598"}},
	{name: "RoadKill", ids: []string{"26"}},
	{name: "Break Construction", ids: []string{"604", "616", "628"}},
	{name: "Transport Assist", ids: []string{"201", "230", "268", "350", "664"}},
	{name: "Domination", ids: []string{"10"}},
	{name: "Revenge", ids: []string{"11"}},
	{name: "Killstreak Stop", ids: []string{"8"}},
	{name: "Bounty Kill", ids: []string{"593"}},
	{name: "Gunner Kill", ids: []string{"373", "314", "146", "148", "149", "150", "154", "155", "515", "681"}},
}

func isReviveExperience(experienceID string) bool {
	return slices.Contains(reviveExperienceIDs, experienceID)
}

func isAssistExperience(experienceID string) bool {
	return slices.Contains(assistExperienceIDs, experienceID)
}

func mappedExperienceEvent(experienceID string) (string, bool) {
	for _, group := range experienceEvents {
		if slices.Contains(group.ids, experienceID) {
			return group.name, true
		}
	}
	return "", false
}

func multiKillEvent(counter uint32) (string, bool) {
	switch counter {
	case 2:
		return "Double Kill", true
	case 3:
		return "Multi Kill", true
	case 4:
		return "Mega Kill", true
	case 5:
		return "Ultra Kill", true
	case 6:
		return "Monster Kill", true
	case 7:
		return "Ludacris Kill", true
	case 9:
		return "Holy Shit", true
	default:
		return "", false
	}
}

func streakEvent(streak uint32) (string, bool) {
	switch streak {
	case 12:
		return "Squad Wiper", true
	case 24:
		return "Double Squad Wipe", true
	case 36:
		return "Squad Lead's Nightmare", true
	case 48:
		return "One Man Platoon", true
	default:
		return "", false
	}
}

func classKillEvent(loadoutID string) (string, bool) {
	switch loadoutID {
	case "1", "8", "15", "28":
		return "Kill Infil", true
	case "3", "10", "17", "29":
		return "Kill Light Assault", true
	case "4", "11", "18", "30":
		return "Kill Medic", true
	case "5", "12", "19", "31":
		return "Kill Engineer", true
	case "6", "13", "20", "32":
		return "Kill Heavy", true
	case "7", "14", "21", "45":
		return "Kill MAX", true
	default:
		return "", false
	}
}

func isMAXLoadout(loadoutID string) bool {
	switch loadoutID {
	case "7", "14", "21", "45":
		return true
	default:
		return false
	}
}

func isInfilLoadout(loadoutID string) bool {
	switch loadoutID {
	case "1", "8", "15", "28":
		return true
	default:
		return false
	}
}
