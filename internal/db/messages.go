package db

import (
	"context"
	"fmt"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// SaveMessage appends one transcript line.
func (s *Store) SaveMessage(ctx context.Context, userID, role, content string) (*store.ChatMessage, error) {
	query := `
		INSERT INTO messages (user_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, role, content, created_at
	`

	msg := &store.ChatMessage{}
	err := s.db.QueryRowContext(ctx, query, userID, role, content).Scan(
		&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

// RecentMessages returns the last N messages in chronological order.
func (s *Store) RecentMessages(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, content, created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	messages := make([]store.ChatMessage, 0, limit)
	for rows.Next() {
		var msg store.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
