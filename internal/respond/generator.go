// Package respond produces the assistant's side of a turn. The scripted
// generator runs the deterministic logging conversation; the model
// generator asks the LLM backend for open-ended answers and degrades to
// canned fallbacks when the backend is unavailable.
package respond

import (
	"context"

	"github.com/themobileprof/paintrack-be/internal/classifier"
	"github.com/themobileprof/paintrack-be/internal/conversation"
	"github.com/themobileprof/paintrack-be/internal/memory"
	"github.com/themobileprof/paintrack-be/internal/patterns"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// Request is one user turn with everything gathered about the user.
type Request struct {
	UserID  string
	Message string
	Intent  classifier.Intent

	// PriorMessages are the user's earlier texts this conversation,
	// oldest first.
	PriorMessages []string

	// Context for the model generator.
	ShortTermMemory []memory.Message
	Profile         *store.Profile
	Patterns        patterns.UserPatterns
}

// Generator turns a request into a reply.
type Generator interface {
	Generate(ctx context.Context, req Request) (conversation.Reply, error)
}

// Scripted runs the deterministic conversation policy. It never fails:
// when no rule matches it returns one of the fixed open-ended prompts,
// marked as a fallback.
type Scripted struct {
	policy *conversation.Policy
}

func NewScripted(policy *conversation.Policy) *Scripted {
	return &Scripted{policy: policy}
}

var _ Generator = (*Scripted)(nil)

func (s *Scripted) Generate(ctx context.Context, req Request) (conversation.Reply, error) {
	return s.policy.HandleMessage(ctx, req.UserID, req.Message, req.PriorMessages), nil
}

// ConfirmLocations forwards a picker confirmation to the policy.
func (s *Scripted) ConfirmLocations(ctx context.Context, userID string, locations []string) conversation.Reply {
	return s.policy.ConfirmLocations(ctx, userID, locations)
}
