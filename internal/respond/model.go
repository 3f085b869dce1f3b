package respond

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/themobileprof/paintrack-be/internal/circuitbreaker"
	"github.com/themobileprof/paintrack-be/internal/classifier"
	"github.com/themobileprof/paintrack-be/internal/conversation"
	"github.com/themobileprof/paintrack-be/internal/fallback"
	"github.com/themobileprof/paintrack-be/internal/privacy"
	"github.com/themobileprof/paintrack-be/internal/prompt"
	"github.com/themobileprof/paintrack-be/pkg/llm"
)

// Model generates open-ended answers through the LLM backend. All calls
// run behind a circuit breaker; any failure degrades to an intent-keyed
// canned response, so Generate never returns an error to the caller.
type Model struct {
	builder *prompt.Builder
	client  llm.Client
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

// NewModel wraps an LLM client. A five-failure window opens the breaker
// for five minutes, matching the backend's observed recovery time.
func NewModel(client llm.Client) *Model {
	return &Model{
		builder: prompt.NewBuilder(),
		client:  client,
		breaker: circuitbreaker.NewCircuitBreaker(5, 5*time.Minute),
		timeout: 30 * time.Second,
	}
}

var _ Generator = (*Model)(nil)

func (m *Model) Generate(ctx context.Context, req Request) (conversation.Reply, error) {
	if m.breaker.State() == circuitbreaker.StateOpen {
		log.Printf("Circuit breaker open, using fallback response")
		return conversation.Reply{Text: fallback.GetCircuitOpenResponse().Content, Fallback: true}, nil
	}

	promptReq := prompt.PromptRequest{
		UserID:          req.UserID,
		UserMessage:     privacy.SanitizeForAPI(req.Message),
		IsSmallTalk:     req.Intent == classifier.IntentSmallTalk,
		ShortTermMemory: req.ShortTermMemory,
		Profile:         req.Profile,
		Patterns:        req.Patterns,
	}
	messages := m.builder.BuildPrompt(promptReq)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	chatReq := llm.ChatRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   200, // Short, chat-sized answers
		Stream:      false,
	}

	var assistantMsg string
	err := m.breaker.Call(func() error {
		response, err := m.client.ChatCompletion(ctxWithTimeout, chatReq)
		if err != nil {
			log.Printf("LLM API error: %v", err)
			return err
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("no response from LLM")
		}
		assistantMsg = response.Choices[0].Message.Content
		return nil
	})

	if err != nil {
		log.Printf("AI call failed: %v", err)
		var fbResp fallback.Response
		if errors.Is(err, context.DeadlineExceeded) {
			fbResp = fallback.GetTimeoutResponse()
		} else {
			fbResp = fallback.GetFallbackResponse(req.Intent)
		}
		return conversation.Reply{Text: fbResp.Content, Fallback: true}, nil
	}

	return conversation.Reply{Text: assistantMsg}, nil
}
