package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// FetchRange returns entries with start <= logged_at < end, ascending.
func (s *Store) FetchRange(ctx context.Context, userID string, start, end time.Time) ([]store.PainLogEntry, error) {
	query := `
		SELECT id, user_id, logged_at, pain_level, locations, triggers, medications,
		       symptoms, notes, functional_impact, impact_tags, side_effects,
		       created_at, updated_at
		FROM pain_logs
		WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3
		ORDER BY logged_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query pain logs: %w", err)
	}
	defer rows.Close()

	entries := make([]store.PainLogEntry, 0)
	for rows.Next() {
		entry, err := scanPainLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pain logs: %w", err)
	}

	return entries, nil
}

// SaveLog inserts a new entry. The ID is assigned here when not set.
func (s *Store) SaveLog(ctx context.Context, entry *store.PainLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now()
	}

	meds, err := json.Marshal(entry.Medications)
	if err != nil {
		return fmt.Errorf("failed to encode medications: %w", err)
	}

	query := `
		INSERT INTO pain_logs (
			id, user_id, logged_at, pain_level, locations, triggers,
			medications, symptoms, notes, functional_impact, impact_tags, side_effects
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.LoggedAt, entry.PainLevel,
		pq.Array(entry.Locations), pq.Array(entry.Triggers), meds,
		pq.Array(entry.Symptoms), entry.Notes, string(entry.FunctionalImpact),
		pq.Array(entry.ImpactTags), entry.SideEffects,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pain log: %w", err)
	}

	s.changes.Publish(store.ChangeEvent{Kind: store.ChangeInsert, UserID: entry.UserID, EntryID: entry.ID})
	return nil
}

// UpdateLog applies a patch to one entry. Nil patch fields are untouched.
func (s *Store) UpdateLog(ctx context.Context, userID, id string, patch store.LogPatch) error {
	query := "UPDATE pain_logs SET updated_at = NOW()"
	var args []interface{}
	argCount := 0

	add := func(column string, value interface{}) {
		argCount++
		query += fmt.Sprintf(", %s = $%d", column, argCount)
		args = append(args, value)
	}

	if patch.PainLevel != nil {
		add("pain_level", *patch.PainLevel)
	}
	if patch.Locations != nil {
		add("locations", pq.Array(*patch.Locations))
	}
	if patch.Triggers != nil {
		add("triggers", pq.Array(*patch.Triggers))
	}
	if patch.Medications != nil {
		meds, err := json.Marshal(*patch.Medications)
		if err != nil {
			return fmt.Errorf("failed to encode medications: %w", err)
		}
		add("medications", meds)
	}
	if patch.Symptoms != nil {
		add("symptoms", pq.Array(*patch.Symptoms))
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.FunctionalImpact != nil {
		add("functional_impact", string(*patch.FunctionalImpact))
	}
	if patch.ImpactTags != nil {
		add("impact_tags", pq.Array(*patch.ImpactTags))
	}
	if patch.SideEffects != nil {
		add("side_effects", *patch.SideEffects)
	}

	query += fmt.Sprintf(" WHERE id = $%d AND user_id = $%d", argCount+1, argCount+2)
	args = append(args, id, userID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update pain log: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	s.changes.Publish(store.ChangeEvent{Kind: store.ChangeUpdate, UserID: userID, EntryID: id})
	return nil
}

// DeleteLog removes one entry owned by the user.
func (s *Store) DeleteLog(ctx context.Context, userID, id string) error {
	query := `DELETE FROM pain_logs WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete pain log: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	s.changes.Publish(store.ChangeEvent{Kind: store.ChangeDelete, UserID: userID, EntryID: id})
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPainLog(row rowScanner) (store.PainLogEntry, error) {
	var (
		entry  store.PainLogEntry
		level  sql.NullInt64
		impact sql.NullString
		notes  sql.NullString
		sfx    sql.NullString
		meds   []byte
	)

	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.LoggedAt, &level,
		pq.Array(&entry.Locations), pq.Array(&entry.Triggers), &meds,
		pq.Array(&entry.Symptoms), &notes, &impact,
		pq.Array(&entry.ImpactTags), &sfx,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return entry, fmt.Errorf("failed to scan pain log: %w", err)
	}

	if level.Valid {
		v := int(level.Int64)
		entry.PainLevel = &v
	}
	entry.Notes = notes.String
	entry.SideEffects = sfx.String
	if impact.Valid {
		entry.FunctionalImpact = store.FunctionalImpact(impact.String)
	}
	if len(meds) > 0 {
		if err := json.Unmarshal(meds, &entry.Medications); err != nil {
			return entry, fmt.Errorf("failed to decode medications: %w", err)
		}
	}

	return entry, nil
}
