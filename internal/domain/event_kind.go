package domain

type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventDeath
	EventGainExperience
	EventPlayerLogin
	EventPlayerLogout
	EventMetagame
	EventFacilityCapture
	EventFacilityDefend
)

var eventKindNames = map[EventKind]string{
	EventDeath:           "Death",
	EventGainExperience:  "GainExperience",
	EventPlayerLogin:     "PlayerLogin",
	EventPlayerLogout:    "PlayerLogout",
	EventMetagame:        "MetagameEvent",
	EventFacilityCapture: "PlayerFacilityCapture",
	EventFacilityDefend:  "PlayerFacilityDefend",
}

func ParseEventKind(eventName string) EventKind {
	switch eventName {
	case "Death":
		return EventDeath
	case "GainExperience":
		return EventGainExperience
	case "PlayerLogin":
		return EventPlayerLogin
	case "PlayerLogout":
		return EventPlayerLogout
	case "MetagameEvent":
		return EventMetagame
	case "PlayerFacilityCapture":
		return EventFacilityCapture
	case "PlayerFacilityDefend":
		return EventFacilityDefend
	default:
		return EventUnrecognized
	}
}

func (k EventKind) String() string {
	name, ok := eventKindNames[k]
	if !ok {
		return "unrecognized"
	}
	return name
}

func (k EventKind) IsFacility() bool {
	return k == EventFacilityCapture || k == EventFacilityDefend
}

// SubscribedEventNames lists the push events the overlay subscribes to, in subscription order
func SubscribedEventNames() []string {
	return []string{
		EventDeath.String(),
		EventGainExperience.String(),
		EventPlayerLogin.String(),
		EventPlayerLogout.String(),
		EventMetagame.String(),
		EventFacilityCapture.String(),
		EventFacilityDefend.String(),
	}
}
