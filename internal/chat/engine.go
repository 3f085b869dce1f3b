package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/themobileprof/paintrack-be/internal/classifier"
	"github.com/themobileprof/paintrack-be/internal/conversation"
	"github.com/themobileprof/paintrack-be/internal/memory"
	"github.com/themobileprof/paintrack-be/internal/patterns"
	"github.com/themobileprof/paintrack-be/internal/privacy"
	"github.com/themobileprof/paintrack-be/internal/respond"
	"github.com/themobileprof/paintrack-be/internal/store"
)

// Responder defines the interface for sending replies to any transport
type Responder interface {
	SendMessage(content string) error
	SendSuggestions(suggestions []string) error
	SendSaved(entryID string) error
	SendNavigate(destination string) error
	SendError(message string) error
	SendDone() error
}

// ProcessRequest contains all data needed to process a message
type ProcessRequest struct {
	UserID    string
	Message   string
	Responder Responder
}

// Interfaces for dependencies
type ClassifierInterface interface {
	Classify(text string) classifier.ClassifierResult
}

type MemoryInterface interface {
	AddMessage(userID string, msg memory.Message)
	GetShortTermMemory(userID string) []memory.Message
	UserContents(userID string) []string
}

// Engine handles core conversation logic independent of transport.
// The scripted generator always runs first; the model generator, when
// configured, replaces open-ended fallbacks with richer answers.
type Engine struct {
	classifier    ClassifierInterface
	memoryManager MemoryInterface
	scripted      *respond.Scripted
	model         respond.Generator
	store         store.Store
	historyWindow time.Duration
}

// NewEngine creates a new transport-agnostic chat engine. model may be
// nil; the engine then runs fully scripted.
func NewEngine(
	cls ClassifierInterface,
	mem MemoryInterface,
	scripted *respond.Scripted,
	model respond.Generator,
	st store.Store,
) *Engine {
	return &Engine{
		classifier:    cls,
		memoryManager: mem,
		scripted:      scripted,
		model:         model,
		store:         st,
		historyWindow: 30 * 24 * time.Hour,
	}
}

// ProcessMessage processes a chat message and sends replies via the
// provided responder.
func (e *Engine) ProcessMessage(ctx context.Context, req ProcessRequest) error {
	log.Printf("Processing message: userID=%s, length=%d", req.UserID, len(req.Message))

	if privacy.ContainsPII(req.Message) {
		log.Printf("Warning: Potential PII detected in message from user=%s", req.UserID)
	}

	result := e.classifier.Classify(req.Message)
	log.Printf("Intent classified: %s (confidence: %.2f)", result.Intent, result.Confidence)

	// Prior user texts feed extraction; captured before the current
	// message joins the window.
	prior := e.memoryManager.UserContents(req.UserID)

	if _, err := e.store.SaveMessage(ctx, req.UserID, "user", req.Message); err != nil {
		log.Printf("Failed to save user message: %v", err)
	}
	e.memoryManager.AddMessage(req.UserID, memory.Message{
		Role:      "user",
		Content:   req.Message,
		Timestamp: time.Now(),
	})

	genReq := respond.Request{
		UserID:        req.UserID,
		Message:       req.Message,
		Intent:        result.Intent,
		PriorMessages: prior,
	}

	reply, _ := e.scripted.Generate(ctx, genReq)

	// An unmatched turn goes to the model when one is configured and
	// the intent is conversational rather than a logging command.
	if reply.Fallback && e.model != nil && modelEligible(result.Intent) {
		modelReq := genReq
		e.gatherContext(ctx, &modelReq)
		if modelReply, err := e.model.Generate(ctx, modelReq); err == nil && modelReply.Text != "" {
			reply.Text = modelReply.Text
			reply.Fallback = modelReply.Fallback
		}
	}

	return e.deliver(ctx, req.UserID, req.Responder, reply)
}

// ConfirmLocations completes a turn suspended on the location picker.
func (e *Engine) ConfirmLocations(ctx context.Context, userID string, locations []string, responder Responder) error {
	reply := e.scripted.ConfirmLocations(ctx, userID, locations)
	return e.deliver(ctx, userID, responder, reply)
}

// Suggestions computes the contextual quick replies for the user's
// current draft message.
func (e *Engine) Suggestions(ctx context.Context, userID, draft string) []string {
	history, err := e.store.FetchRange(ctx, userID, time.Now().Add(-e.historyWindow), time.Now().Add(time.Hour))
	if err != nil {
		log.Printf("Failed to load history for suggestions: %v", err)
		history = nil
	}
	return patterns.ContextualSuggestions(draft, history, time.Now())
}

func (e *Engine) deliver(ctx context.Context, userID string, responder Responder, reply conversation.Reply) error {
	if reply.Navigate != "" {
		if err := responder.SendNavigate(reply.Navigate); err != nil {
			return err
		}
	}

	if err := responder.SendMessage(reply.Text); err != nil {
		return err
	}
	if len(reply.Suggestions) > 0 {
		if err := responder.SendSuggestions(reply.Suggestions); err != nil {
			return err
		}
	}
	if reply.Saved {
		if err := responder.SendSaved(reply.SavedEntryID); err != nil {
			return err
		}
	}

	if _, err := e.store.SaveMessage(ctx, userID, "assistant", reply.Text); err != nil {
		log.Printf("Failed to save assistant message: %v", err)
	}
	e.memoryManager.AddMessage(userID, memory.Message{
		Role:      "assistant",
		Content:   reply.Text,
		Timestamp: time.Now(),
	})

	return responder.SendDone()
}

// gatherContext loads profile, history patterns, and short-term memory
// concurrently for the model prompt.
func (e *Engine) gatherContext(ctx context.Context, req *respond.Request) {
	var (
		profile *store.Profile
		history []store.PainLogEntry
		wg      sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		profile, _ = e.store.GetProfile(ctx, req.UserID)
	}()
	go func() {
		defer wg.Done()
		history, _ = e.store.FetchRange(ctx, req.UserID, time.Now().Add(-e.historyWindow), time.Now().Add(time.Hour))
	}()
	go func() {
		defer wg.Done()
		req.ShortTermMemory = e.memoryManager.GetShortTermMemory(req.UserID)
	}()
	wg.Wait()

	req.Profile = profile
	req.Patterns = patterns.ComputePatterns(history)
}

// modelEligible reports whether an intent should reach the model. The
// scripted policy owns logging commands end to end.
func modelEligible(intent classifier.Intent) bool {
	switch intent {
	case classifier.IntentPainQ, classifier.IntentSmallTalk, classifier.IntentGratitude, classifier.IntentUnclear:
		return true
	}
	return false
}
