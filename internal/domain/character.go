package domain

// PlayerCacheEntry is a remembered character profile
type PlayerCacheEntry struct {
	CharacterID string
	Name        string
	WorldID     *string
	FactionID   *int64
	OutfitTag   *string
	BattleRank  *int64
}

// CharacterEntry is a character on the tracked roster
type CharacterEntry struct {
	CharacterID string
	Name        string
	WorldID     *string
}

// PlayerCacheMaps holds the remembered names and outfit tags keyed by character id
type PlayerCacheMaps struct {
	Names   map[string]string
	Outfits map[string]string
}
