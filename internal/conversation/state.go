package conversation

import (
	"sync"

	"github.com/themobileprof/paintrack-be/internal/extraction"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// AwaitState is the pending-info cursor of a conversation. The policy asks
// for pain level first, then location; triggers and medications are asked
// about but never block a save.
type AwaitState int

const (
	AwaitNone AwaitState = iota
	AwaitLocation
)

// State is the per-user conversation context.
type State struct {
	Await        AwaitState
	PickerActive bool // true while the location picker owns the turn
	Pending      extraction.ExtractedPainData

	// MedFollowUpID names the saved entry whose "did the medication
	// help?" question is still unanswered; empty otherwise.
	MedFollowUpID   string
	MedFollowUpMeds []store.MedicationDose
}

// Manager tracks conversation state per user.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewManager() *Manager {
	return &Manager{states: make(map[string]*State)}
}

// Get retrieves or creates the state for a user. The returned pointer is
// shared; callers mutate it under the policy's single-turn-per-user
// discipline.
func (m *Manager) Get(userID string) *State {
	m.mu.RLock()
	st, ok := m.states[userID]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok = m.states[userID]; ok {
		return st
	}
	st = &State{}
	m.states[userID] = st
	return st
}

// Reset clears a user's conversation state.
func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
