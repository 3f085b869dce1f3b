package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// OpenSession starts a new episode. Only one unresolved episode may
// exist per user.
func (s *Store) OpenSession(ctx context.Context, userID string, startLevel int) (*store.PainSession, error) {
	if _, err := s.UnresolvedSession(ctx, userID); err == nil {
		return nil, store.ErrSessionOpen
	}

	query := `
		INSERT INTO pain_sessions (id, user_id, start_level)
		VALUES ($1, $2, $3)
		RETURNING started_at
	`

	session := &store.PainSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		StartLevel: startLevel,
	}
	err := s.db.QueryRowContext(ctx, query, session.ID, userID, startLevel).Scan(&session.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return session, nil
}

// ResolveSession closes the unresolved episode with its end level.
func (s *Store) ResolveSession(ctx context.Context, userID string, endLevel int) (*store.PainSession, error) {
	query := `
		UPDATE pain_sessions
		SET end_level = $1, resolved_at = NOW()
		WHERE user_id = $2 AND resolved_at IS NULL
		RETURNING id, user_id, start_level, end_level, started_at, resolved_at
	`

	session := &store.PainSession{}
	err := s.db.QueryRowContext(ctx, query, endLevel, userID).Scan(
		&session.ID, &session.UserID, &session.StartLevel,
		&session.EndLevel, &session.StartedAt, &session.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return session, nil
}

// UnresolvedSession returns the open episode, or store.ErrNotFound.
func (s *Store) UnresolvedSession(ctx context.Context, userID string) (*store.PainSession, error) {
	query := `
		SELECT id, user_id, start_level, end_level, started_at, resolved_at
		FROM pain_sessions
		WHERE user_id = $1 AND resolved_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`

	session := &store.PainSession{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&session.ID, &session.UserID, &session.StartLevel,
		&session.EndLevel, &session.StartedAt, &session.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}
