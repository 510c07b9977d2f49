package characterrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLCharacterRepository works against both the sqlite and the postgres database.
// Queries are written with ? placeholders and rebound for the driver.
type SQLCharacterRepository struct {
	db     *sqlx.DB
	schema string
}

func NewSQLCharacterRepository(db *sqlx.DB, schema string) *SQLCharacterRepository {
	return &SQLCharacterRepository{db: db, schema: schema}
}

type dbPlayerCacheEntry struct {
	CharacterID string         `db:"character_id"`
	Name        sql.NullString `db:"name"`
	WorldID     sql.NullInt64  `db:"world_id"`
	FactionID   sql.NullInt64  `db:"faction_id"`
	OutfitTag   sql.NullString `db:"outfit_tag"`
	BattleRank  sql.NullInt64  `db:"battle_rank"`
}

type dbCharacterEntry struct {
	CharacterID string        `db:"character_id"`
	Name        string        `db:"name"`
	WorldID     sql.NullInt64 `db:"world_id"`
}

// query qualifies the table names and rebinds the placeholders.
// Every %s in query is replaced with the quoted schema.
func (r *SQLCharacterRepository) query(query string) string {
	schema := pq.QuoteIdentifier(r.schema)
	return r.db.Rebind(strings.ReplaceAll(query, "%s", schema))
}

func (r *SQLCharacterRepository) LoadPlayerCache(ctx context.Context) (domain.PlayerCacheMaps, error) {
	var rows []dbPlayerCacheEntry
	err := r.db.SelectContext(ctx, &rows, r.query(`SELECT character_id, name, outfit_tag FROM %s.player_cache`))
	if err != nil {
		err := fmt.Errorf("failed to select player cache: %w", err)
		reporting.Report(ctx, err)
		return domain.PlayerCacheMaps{}, err
	}

	maps := domain.PlayerCacheMaps{
		Names:   make(map[string]string, len(rows)),
		Outfits: make(map[string]string),
	}
	for _, row := range rows {
		if name, ok := sanitizeText(row.Name); ok {
			maps.Names[row.CharacterID] = name
		}
		if tag, ok := sanitizeText(row.OutfitTag); ok {
			maps.Outfits[row.CharacterID] = tag
		}
	}

	return maps, nil
}

func (r *SQLCharacterRepository) FindEntry(ctx context.Context, characterID string) (domain.PlayerCacheEntry, error) {
	var row dbPlayerCacheEntry
	err := r.db.GetContext(ctx, &row, r.query(`SELECT
		character_id, name, world_id, faction_id, outfit_tag, battle_rank
		FROM %s.player_cache
		WHERE character_id = ?
		LIMIT 1`),
		characterID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerCacheEntry{}, domain.ErrCharacterNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to select player cache entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"characterID": characterID,
		})
		return domain.PlayerCacheEntry{}, err
	}

	return row.toDomain(), nil
}

func (r *SQLCharacterRepository) FindName(ctx context.Context, characterID string) (string, error) {
	var name sql.NullString
	err := r.db.GetContext(ctx, &name, r.query(`SELECT name FROM %s.player_cache WHERE character_id = ?`), characterID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrCharacterNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to select player name: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"characterID": characterID,
		})
		return "", err
	}

	trimmed, ok := sanitizeText(name)
	if !ok {
		return "", domain.ErrCharacterNotFound
	}
	return trimmed, nil
}

func (r *SQLCharacterRepository) FindCharacterByName(ctx context.Context, name string) (domain.CharacterEntry, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return domain.CharacterEntry{}, domain.ErrCharacterNotFound
	}

	var row dbCharacterEntry
	err := r.db.GetContext(ctx, &row, r.query(`SELECT
		character_id, name, world_id
		FROM %s.player_cache
		WHERE name_lower = ?
		LIMIT 1`),
		needle,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CharacterEntry{}, domain.ErrCharacterNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to select character by name: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name": name,
		})
		return domain.CharacterEntry{}, err
	}

	return row.toDomain(), nil
}

func (r *SQLCharacterRepository) UpsertPlayerCacheEntries(ctx context.Context, entries []domain.PlayerCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	txx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	for _, entry := range entries {
		if err := r.upsertPlayerCacheEntry(ctx, txx, entry); err != nil {
			return err
		}
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}

func (r *SQLCharacterRepository) upsertPlayerCacheEntry(ctx context.Context, txx *sqlx.Tx, entry domain.PlayerCacheEntry) error {
	_, err := txx.ExecContext(
		ctx,
		r.query(`INSERT INTO %s.player_cache
		(character_id, name, name_lower, faction_id, battle_rank, outfit_tag, world_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (character_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			name_lower = EXCLUDED.name_lower,
			faction_id = EXCLUDED.faction_id,
			battle_rank = EXCLUDED.battle_rank,
			outfit_tag = EXCLUDED.outfit_tag,
			world_id = EXCLUDED.world_id`),
		entry.CharacterID,
		entry.Name,
		strings.ToLower(entry.Name),
		nullInt64(entry.FactionID),
		nullInt64(entry.BattleRank),
		nullText(entry.OutfitTag),
		parseWorldID(entry.WorldID),
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert player cache entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"characterID": entry.CharacterID,
		})
		return err
	}
	return nil
}

func (r *SQLCharacterRepository) CountPlayerCache(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, r.query(`SELECT COUNT(*) FROM %s.player_cache`)); err != nil {
		err := fmt.Errorf("failed to count player cache: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}
	return count, nil
}

func (r *SQLCharacterRepository) LoadMyCharacters(ctx context.Context) ([]domain.CharacterEntry, error) {
	var rows []dbCharacterEntry
	err := r.db.SelectContext(ctx, &rows, r.query(`SELECT
		m.character_id, m.name, p.world_id
		FROM %s.my_chars m
		LEFT JOIN %s.player_cache p ON p.character_id = m.character_id
		ORDER BY lower(m.name), m.character_id`))
	if err != nil {
		err := fmt.Errorf("failed to select tracked characters: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	out := make([]domain.CharacterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SaveMyCharacter remembers the profile and adds it to the tracked roster
func (r *SQLCharacterRepository) SaveMyCharacter(ctx context.Context, entry domain.PlayerCacheEntry) error {
	txx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	if err := r.upsertPlayerCacheEntry(ctx, txx, entry); err != nil {
		return err
	}
	if err := r.upsertMyCharacter(ctx, txx, entry.CharacterID, entry.Name); err != nil {
		return err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	return nil
}

func (r *SQLCharacterRepository) upsertMyCharacter(ctx context.Context, txx *sqlx.Tx, characterID, name string) error {
	// Names are unique on the roster, a rename takes over the name
	_, err := txx.ExecContext(ctx, r.query(`DELETE FROM %s.my_chars WHERE name = ? AND character_id != ?`), name, characterID)
	if err != nil {
		err := fmt.Errorf("failed to delete tracked character with the same name: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"characterID": characterID,
			"name":        name,
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		r.query(`INSERT INTO %s.my_chars
		(character_id, name)
		VALUES (?, ?)
		ON CONFLICT (character_id)
		DO UPDATE SET
			name = EXCLUDED.name`),
		characterID,
		name,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert tracked character: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"characterID": characterID,
			"name":        name,
		})
		return err
	}
	return nil
}

func (r *SQLCharacterRepository) RemoveMyCharacter(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, r.query(`DELETE FROM %s.my_chars WHERE name = ?`), name)
	if err != nil {
		err := fmt.Errorf("failed to delete tracked character: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name": name,
		})
		return err
	}
	return nil
}

// SyncMyCharacters replaces the tracked roster.
// Characters without a remembered profile get a minimal player cache entry.
func (r *SQLCharacterRepository) SyncMyCharacters(ctx context.Context, entries []domain.CharacterEntry) error {
	txx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	if _, err := txx.ExecContext(ctx, r.query(`DELETE FROM %s.my_chars`)); err != nil {
		err := fmt.Errorf("failed to clear tracked characters: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	for _, entry := range entries {
		if err := r.upsertMyCharacter(ctx, txx, entry.CharacterID, entry.Name); err != nil {
			return err
		}

		_, err := txx.ExecContext(
			ctx,
			r.query(`INSERT INTO %s.player_cache
			(character_id, name, name_lower, world_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (character_id) DO NOTHING`),
			entry.CharacterID,
			entry.Name,
			strings.ToLower(entry.Name),
			parseWorldID(entry.WorldID),
		)
		if err != nil {
			err := fmt.Errorf("failed to ensure player cache entry: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"characterID": entry.CharacterID,
			})
			return err
		}
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	return nil
}

func (e dbPlayerCacheEntry) toDomain() domain.PlayerCacheEntry {
	name, _ := sanitizeText(e.Name)
	entry := domain.PlayerCacheEntry{
		CharacterID: e.CharacterID,
		Name:        name,
		WorldID:     formatWorldID(e.WorldID),
	}
	if e.FactionID.Valid {
		entry.FactionID = &e.FactionID.Int64
	}
	if tag, ok := sanitizeText(e.OutfitTag); ok {
		entry.OutfitTag = &tag
	}
	if e.BattleRank.Valid {
		entry.BattleRank = &e.BattleRank.Int64
	}
	return entry
}

func (e dbCharacterEntry) toDomain() domain.CharacterEntry {
	return domain.CharacterEntry{
		CharacterID: e.CharacterID,
		Name:        e.Name,
		WorldID:     formatWorldID(e.WorldID),
	}
}

func sanitizeText(value sql.NullString) (string, bool) {
	if !value.Valid {
		return "", false
	}
	trimmed := strings.TrimSpace(value.String)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func nullText(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	trimmed := strings.TrimSpace(*value)
	return sql.NullString{String: trimmed, Valid: trimmed != ""}
}

func nullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func parseWorldID(value *string) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	worldID, err := strconv.ParseInt(strings.TrimSpace(*value), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: worldID, Valid: true}
}

func formatWorldID(value sql.NullInt64) *string {
	if !value.Valid {
		return nil
	}
	worldID := strconv.FormatInt(value.Int64, 10)
	return &worldID
}
