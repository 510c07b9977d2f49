package domain

import (
	"fmt"
	"math"
	"time"
)

type SessionDerivedStats struct {
	KD               float64 `json:"kd"`
	KPM              float64 `json:"kpm"`
	KPH              float64 `json:"kph"`
	HSR              float64 `json:"hsr"`
	DHSR             float64 `json:"dhsr"`
	Kills            uint32  `json:"kills"`
	Deaths           uint32  `json:"deaths"`
	EffectiveDeaths  uint32  `json:"effective_deaths"`
	SessionSeconds   uint64  `json:"session_seconds"`
	SessionTimeLabel string  `json:"session_time_label"`
}

// DeriveSessionStats computes the display ratios for a raw session snapshot.
// kdModeReviveDefault applies when the snapshot does not carry its own mode.
func DeriveSessionStats(raw SessionRaw, kdModeReviveDefault bool, now time.Time) SessionDerivedStats {
	kdModeRevive := kdModeReviveDefault
	if raw.KDModeRevive != nil {
		kdModeRevive = *raw.KDModeRevive
	}

	effectiveDeaths := raw.D
	if kdModeRevive {
		effectiveDeaths = saturatingSub(raw.D, raw.RevivesReceived)
	}
	kd := float64(raw.K) / float64(max(effectiveDeaths, 1))

	hsrBase := raw.HSRKill
	if hsrBase == 0 {
		hsrBase = raw.K
	}
	hsr := 0.0
	if hsrBase > 0 {
		hsr = float64(raw.HS) / float64(hsrBase) * 100
	}

	dhsrBase := raw.DHSEligible
	if dhsrBase == 0 {
		dhsrBase = raw.D
	}
	dhsr := float64(raw.DHS) / float64(max(dhsrBase, 1)) * 100

	nowUnix := float64(now.Unix())
	totalSeconds := math.Max(raw.AccT, 0)
	if raw.Start > 0 {
		totalSeconds = math.Max(raw.AccT+(nowUnix-raw.Start), 0)
	}

	kpm := 0.0
	if minutes := totalSeconds / 60; minutes > 0 {
		kpm = float64(raw.K) / minutes
	}

	sessionSeconds := uint64(math.Floor(totalSeconds))

	return SessionDerivedStats{
		KD:               kd,
		KPM:              kpm,
		KPH:              kpm * 60,
		HSR:              hsr,
		DHSR:             dhsr,
		Kills:            raw.K,
		Deaths:           raw.D,
		EffectiveDeaths:  effectiveDeaths,
		SessionSeconds:   sessionSeconds,
		SessionTimeLabel: formatSessionTime(sessionSeconds),
	}
}

func formatSessionTime(totalSeconds uint64) string {
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
