package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrSessionOpen   = errors.New("an unresolved session already exists")
	ErrNoOpenSession = errors.New("no unresolved session")
)

// LogStore is the persistence boundary for pain log entries.
type LogStore interface {
	// FetchRange returns entries with start <= logged_at < end,
	// ascending by timestamp.
	FetchRange(ctx context.Context, userID string, start, end time.Time) ([]PainLogEntry, error)
	SaveLog(ctx context.Context, entry *PainLogEntry) error
	UpdateLog(ctx context.Context, userID, id string, patch LogPatch) error
	DeleteLog(ctx context.Context, userID, id string) error
}

// SessionStore tracks open-ended pain episodes.
type SessionStore interface {
	OpenSession(ctx context.Context, userID string, startLevel int) (*PainSession, error)
	ResolveSession(ctx context.Context, userID string, endLevel int) (*PainSession, error)
	UnresolvedSession(ctx context.Context, userID string) (*PainSession, error)
}

// ProfileStore reads and updates the user profile snapshot.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
	AppendMedication(ctx context.Context, userID string, med ProfileMedication) error
}

// MessageStore persists the companion transcript.
type MessageStore interface {
	SaveMessage(ctx context.Context, userID, role, content string) (*ChatMessage, error)
	RecentMessages(ctx context.Context, userID string, limit int) ([]ChatMessage, error)
}

// Store is the full persistence surface the server wires together.
type Store interface {
	LogStore
	SessionStore
	ProfileStore
	MessageStore
	Changes() *Notifier
}
