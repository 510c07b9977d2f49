package domain

import (
	"encoding/json"
	"time"
)

// Message is anything the ingestion engine sends to the presentation layer
type Message interface {
	// MessageType is the `type` tag of typed events and the category of envelopes
	MessageType() string
	isMessage()
}

const (
	CategoryEvent              = "event"
	CategoryHitmarker          = "hitmarker"
	CategoryStreak             = "streak"
	CategoryVoiceTrigger       = "voice_trigger"
	CategoryActivePlayerUpsert = "active_player_upsert"
	CategoryActivePlayerRemove = "active_player_remove"
	CategoryActivePlayerPrune  = "active_player_prune"
	CategoryPlayerCacheBatch   = "player_cache_batch"
)

type KillEvent struct {
	Victim   string    `json:"victim"`
	Weapon   *string   `json:"weapon"`
	Headshot bool      `json:"headshot"`
	Streak   uint32    `json:"streak"`
	At       time.Time `json:"at"`
}

func (KillEvent) MessageType() string { return "kill" }
func (KillEvent) isMessage()          {}

func (e KillEvent) MarshalJSON() ([]byte, error) {
	type alias KillEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.MessageType(), alias: alias(e)})
}

type DeathEvent struct {
	Killer string    `json:"killer"`
	At     time.Time `json:"at"`
}

func (DeathEvent) MessageType() string { return "death" }
func (DeathEvent) isMessage()          {}

func (e DeathEvent) MarshalJSON() ([]byte, error) {
	type alias DeathEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.MessageType(), alias: alias(e)})
}

// SessionRaw is a snapshot of the raw session counters
type SessionRaw struct {
	K               uint32     `json:"k"`
	D               uint32     `json:"d"`
	HS              uint32     `json:"hs"`
	HSRKill         uint32     `json:"hsrkill"`
	DHS             uint32     `json:"dhs"`
	DHSEligible     uint32     `json:"dhs_eligible"`
	Start           float64    `json:"start"`
	AccT            float64    `json:"acc_t"`
	RevivesReceived uint32     `json:"revives_received"`
	KDModeRevive    *bool      `json:"kd_mode_revive"`
	At              *time.Time `json:"at"`
}

func (SessionRaw) MessageType() string { return "session_raw" }
func (SessionRaw) isMessage()          {}

func (e SessionRaw) MarshalJSON() ([]byte, error) {
	type alias SessionRaw
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.MessageType(), alias: alias(e)})
}

// Envelope is a categorized message with a category specific body
type Envelope struct {
	Category string `json:"category"`
	Data     any    `json:"data"`
}

func (e Envelope) MessageType() string { return e.Category }
func (Envelope) isMessage()            {}

// TemplatedEffect is an effect request rendered from a configured template
type TemplatedEffect struct {
	EventName     string  `json:"event_name"`
	EventType     string  `json:"event_type"`
	Duration      uint64  `json:"duration"`
	Centered      bool    `json:"centered"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Scale         float64 `json:"scale"`
	Filename      *string `json:"filename"`
	SoundFilename *string `json:"sound_filename"`
	SoundVolume   float64 `json:"sound_volume"`
	PlayDuplicate bool    `json:"play_duplicate"`
	Impact        bool    `json:"impact"`
}

// FallbackEffect is an effect request for names without a template
type FallbackEffect struct {
	EventName string  `json:"event_name"`
	EventType string  `json:"event_type"`
	Duration  uint64  `json:"duration"`
	Centered  bool    `json:"centered"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Impact    bool    `json:"impact"`
}

type KnifeIcon struct {
	Filename string  `json:"filename"`
	XOff     float64 `json:"x_off"`
	YOff     float64 `json:"y_off"`
	Rotation float64 `json:"rotation"`
	Size     float64 `json:"size"`
	Faction  string  `json:"faction"`
}

// StreakDisplay serializes as {"visible":false} when hidden
type StreakDisplay struct {
	Visible    bool        `json:"visible"`
	BgFilename string      `json:"bg_filename"`
	BgWidth    int64       `json:"bg_width"`
	BgHeight   int64       `json:"bg_height"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Scale      float64     `json:"scale"`
	Count      uint32      `json:"count"`
	TX         float64     `json:"tx"`
	TY         float64     `json:"ty"`
	FontSize   float64     `json:"font_size"`
	Color      string      `json:"color"`
	Bold       bool        `json:"bold"`
	AnimActive bool        `json:"anim_active"`
	AnimSpeed  float64     `json:"anim_speed"`
	StreakGlow bool        `json:"streak_glow"`
	GlowColor  string      `json:"glow_color"`
	Knives     []KnifeIcon `json:"knives"`
}

func (s StreakDisplay) MarshalJSON() ([]byte, error) {
	if !s.Visible {
		return []byte(`{"visible":false}`), nil
	}
	type alias StreakDisplay
	a := alias(s)
	if a.Knives == nil {
		a.Knives = []KnifeIcon{}
	}
	return json.Marshal(a)
}

type VoiceTrigger struct {
	Trigger string `json:"trigger"`
	At      string `json:"at"`
}

type ActivePlayerUpsert struct {
	CharacterID string  `json:"character_id"`
	Faction     string  `json:"faction"`
	WorldID     string  `json:"world_id"`
	LastSeen    float64 `json:"last_seen"`
}

type ActivePlayerRemove struct {
	CharacterID string `json:"character_id"`
}

type ActivePlayerPrune struct {
	CharacterIDs []string `json:"character_ids"`
}

type PlayerCacheBatch struct {
	Names         map[string]string `json:"names"`
	Outfits       map[string]string `json:"outfits"`
	DBPlayerCount int64             `json:"db_player_count"`
}
