package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for tests and for running the
// server without a DATABASE_URL. It honors the same contracts as the
// Postgres store, including change notifications.
type MemoryStore struct {
	mu       sync.RWMutex
	logs     map[string]*PainLogEntry  // by entry ID
	sessions map[string][]*PainSession // by user ID
	profiles map[string]*Profile
	messages map[string][]ChatMessage
	notifier *Notifier
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:     make(map[string]*PainLogEntry),
		sessions: make(map[string][]*PainSession),
		profiles: make(map[string]*Profile),
		messages: make(map[string][]ChatMessage),
		notifier: NewNotifier(),
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Changes() *Notifier { return m.notifier }

func (m *MemoryStore) FetchRange(ctx context.Context, userID string, start, end time.Time) ([]PainLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	entries := make([]PainLogEntry, 0)
	for _, e := range m.logs {
		if e.UserID != userID {
			continue
		}
		if e.LoggedAt.Before(start) || !e.LoggedAt.Before(end) {
			continue
		}
		entries = append(entries, *e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LoggedAt.Before(entries[j].LoggedAt)
	})
	return entries, nil
}

func (m *MemoryStore) SaveLog(ctx context.Context, entry *PainLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = m.now()
	}
	entry.CreatedAt = m.now()
	entry.UpdatedAt = entry.CreatedAt
	stored := *entry
	m.logs[entry.ID] = &stored
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: ChangeInsert, UserID: entry.UserID, EntryID: entry.ID})
	return nil
}

func (m *MemoryStore) UpdateLog(ctx context.Context, userID, id string, patch LogPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	e, ok := m.logs[id]
	if !ok || e.UserID != userID {
		m.mu.Unlock()
		return ErrNotFound
	}
	applyPatch(e, patch)
	e.UpdatedAt = m.now()
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: ChangeUpdate, UserID: userID, EntryID: id})
	return nil
}

func (m *MemoryStore) DeleteLog(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	e, ok := m.logs[id]
	if !ok || e.UserID != userID {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.logs, id)
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: ChangeDelete, UserID: userID, EntryID: id})
	return nil
}

func applyPatch(e *PainLogEntry, patch LogPatch) {
	if patch.PainLevel != nil {
		e.PainLevel = patch.PainLevel
	}
	if patch.Locations != nil {
		e.Locations = *patch.Locations
	}
	if patch.Triggers != nil {
		e.Triggers = *patch.Triggers
	}
	if patch.Medications != nil {
		e.Medications = *patch.Medications
	}
	if patch.Symptoms != nil {
		e.Symptoms = *patch.Symptoms
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	if patch.FunctionalImpact != nil {
		e.FunctionalImpact = *patch.FunctionalImpact
	}
	if patch.ImpactTags != nil {
		e.ImpactTags = *patch.ImpactTags
	}
	if patch.SideEffects != nil {
		e.SideEffects = *patch.SideEffects
	}
}

func (m *MemoryStore) OpenSession(ctx context.Context, userID string, startLevel int) (*PainSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions[userID] {
		if s.ResolvedAt == nil {
			return nil, ErrSessionOpen
		}
	}

	session := &PainSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		StartLevel: startLevel,
		StartedAt:  m.now(),
	}
	m.sessions[userID] = append(m.sessions[userID], session)
	copied := *session
	return &copied, nil
}

func (m *MemoryStore) ResolveSession(ctx context.Context, userID string, endLevel int) (*PainSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions[userID] {
		if s.ResolvedAt == nil {
			now := m.now()
			s.EndLevel = &endLevel
			s.ResolvedAt = &now
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNoOpenSession
}

func (m *MemoryStore) UnresolvedSession(ctx context.Context, userID string) (*PainSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions[userID] {
		if s.ResolvedAt == nil {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MemoryStore) UpsertProfile(ctx context.Context, profile *Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *profile
	m.profiles[profile.UserID] = &copied
	return nil
}

func (m *MemoryStore) AppendMedication(ctx context.Context, userID string, med ProfileMedication) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID}
		m.profiles[userID] = p
	}
	for _, existing := range p.CurrentMedications {
		if existing.Name == med.Name {
			return nil
		}
	}
	p.CurrentMedications = append(p.CurrentMedications, med)
	return nil
}

func (m *MemoryStore) SaveMessage(ctx context.Context, userID, role, content string) (*ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: m.now(),
	}
	m.messages[userID] = append(m.messages[userID], msg)
	return &msg, nil
}

func (m *MemoryStore) RecentMessages(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
