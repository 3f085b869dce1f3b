package memory

import (
	"sync"
	"time"
)

// Message represents a chat message in short-term memory
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserMemory holds the rolling conversation window for a user
type UserMemory struct {
	ShortTerm []Message // Last N messages
	mu        sync.RWMutex
}

// MemoryManager manages conversation memory for all users
type MemoryManager struct {
	users               map[string]*UserMemory
	shortTermMemorySize int
	mu                  sync.RWMutex
}

// NewMemoryManager creates a new memory manager
func NewMemoryManager(shortTermMemorySize int) *MemoryManager {
	return &MemoryManager{
		users:               make(map[string]*UserMemory),
		shortTermMemorySize: shortTermMemorySize,
	}
}

// AddMessage adds a message to the user's short-term memory
func (m *MemoryManager) AddMessage(userID string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Get or create user memory
	userMem, exists := m.users[userID]
	if !exists {
		userMem = &UserMemory{
			ShortTerm: make([]Message, 0, m.shortTermMemorySize),
		}
		m.users[userID] = userMem
	}

	userMem.mu.Lock()
	defer userMem.mu.Unlock()

	// Add message to short-term memory
	userMem.ShortTerm = append(userMem.ShortTerm, msg)

	// Enforce size limit (keep only the most recent N messages)
	if len(userMem.ShortTerm) > m.shortTermMemorySize {
		// Remove oldest messages
		userMem.ShortTerm = userMem.ShortTerm[len(userMem.ShortTerm)-m.shortTermMemorySize:]
	}
}

// GetShortTermMemory retrieves the user's short-term memory
func (m *MemoryManager) GetShortTermMemory(userID string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userMem, exists := m.users[userID]
	if !exists {
		return []Message{}
	}

	userMem.mu.RLock()
	defer userMem.mu.RUnlock()

	// Return a copy to avoid external mutation
	history := make([]Message, len(userMem.ShortTerm))
	copy(history, userMem.ShortTerm)
	return history
}

// UserContents returns just the user-authored message texts in order.
// Extraction reads these as the accumulated conversation context.
func (m *MemoryManager) UserContents(userID string) []string {
	messages := m.GetShortTermMemory(userID)
	contents := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "user" {
			contents = append(contents, msg.Content)
		}
	}
	return contents
}

// ClearShortTermMemory clears the user's short-term memory
func (m *MemoryManager) ClearShortTermMemory(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userMem, exists := m.users[userID]
	if !exists {
		return
	}

	userMem.mu.Lock()
	defer userMem.mu.Unlock()

	userMem.ShortTerm = make([]Message, 0, m.shortTermMemorySize)
}
