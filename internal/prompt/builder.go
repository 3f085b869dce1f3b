package prompt

import (
	"fmt"
	"strings"

	"github.com/themobileprof/paintrack-be/internal/memory"
	"github.com/themobileprof/paintrack-be/internal/patterns"
	"github.com/themobileprof/paintrack-be/internal/store"
	"github.com/themobileprof/paintrack-be/pkg/deepseek"
)

// PromptRequest contains all information needed to build a super-prompt
type PromptRequest struct {
	UserID          string
	UserMessage     string
	IsSmallTalk     bool
	ShortTermMemory []memory.Message
	Profile         *store.Profile
	Patterns        patterns.UserPatterns
}

// Builder constructs prompts for the DeepSeek API
type Builder struct {
	// Configuration can be added here if needed
}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildPrompt constructs a super-prompt from the request
func (b *Builder) BuildPrompt(req PromptRequest) []deepseek.ChatMessage {
	// Pre-allocate with estimated capacity (system + history + user)
	capacity := 2 + len(req.ShortTermMemory)
	messages := make([]deepseek.ChatMessage, 0, capacity)

	// For small talk, return minimal prompt
	if req.IsSmallTalk {
		messages = append(messages, deepseek.ChatMessage{
			Role:    "system",
			Content: "You are a friendly pain tracking companion. Keep responses brief and warm.",
		})
		messages = append(messages, deepseek.ChatMessage{
			Role:    "user",
			Content: req.UserMessage,
		})
		return messages
	}

	// Build system prompt with context
	systemPrompt := b.buildSystemPrompt(req)
	messages = append(messages, deepseek.ChatMessage{
		Role:    "system",
		Content: systemPrompt,
	})

	// Add relevant conversation history (skip small talk)
	for _, msg := range req.ShortTermMemory {
		// Only include substantive messages
		if !isLikelySmallTalk(msg.Content) {
			messages = append(messages, deepseek.ChatMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	// Add current user message
	messages = append(messages, deepseek.ChatMessage{
		Role:    "user",
		Content: req.UserMessage,
	})

	return messages
}

// buildSystemPrompt creates the system prompt with user context
func (b *Builder) buildSystemPrompt(req PromptRequest) string {
	// Pre-allocate with estimated capacity to reduce allocations
	var sb strings.Builder
	sb.Grow(1024)

	// Base instruction
	sb.WriteString("You are a knowledgeable and empathetic chronic pain companion. ")
	sb.WriteString("Your role is to help the user describe, log, and understand their pain, never to diagnose. ")
	sb.WriteString("\n\n")

	// Response style
	sb.WriteString("RESPONSE STYLE:\n")
	sb.WriteString("- Keep responses brief and conversational (2-4 sentences maximum)\n")
	sb.WriteString("- Speak like a caring friend, not a medical textbook\n")
	sb.WriteString("- When pain is mentioned without a 0-10 rating, ask for one before anything else\n")
	sb.WriteString("- Ask about: location, timing, triggers, medication taken, or what makes it better/worse\n")
	sb.WriteString("- Examples: 'Where does it hurt?', 'When did this start?', 'Did the medication help?'\n")
	sb.WriteString("\n")

	// User context from profile and computed patterns
	var context []string
	if req.Profile != nil {
		if len(req.Profile.DefaultPainLocations) > 0 {
			context = append(context, fmt.Sprintf("- Usual pain locations: %s", strings.Join(req.Profile.DefaultPainLocations, ", ")))
		}
		if len(req.Profile.CurrentMedications) > 0 {
			names := make([]string, 0, len(req.Profile.CurrentMedications))
			for _, med := range req.Profile.CurrentMedications {
				names = append(names, med.Name)
			}
			context = append(context, fmt.Sprintf("- Current medications: %s", strings.Join(names, ", ")))
		}
	}
	if len(req.Patterns.CommonTriggers) > 0 {
		context = append(context, fmt.Sprintf("- Frequent triggers: %s", strings.Join(req.Patterns.CommonTriggers, ", ")))
	}
	if len(req.Patterns.FrequentLocations) > 0 {
		context = append(context, fmt.Sprintf("- Frequent locations: %s", strings.Join(req.Patterns.FrequentLocations, ", ")))
	}
	if len(context) > 0 {
		sb.WriteString("User Context:\n")
		sb.WriteString(strings.Join(context, "\n"))
		sb.WriteString("\n\n")
	}

	// Guidelines
	sb.WriteString("CONVERSATION GUIDELINES:\n")
	sb.WriteString("1. First response to a pain report: collect the missing rating or location\n")
	sb.WriteString("2. After getting details: acknowledge briefly and confirm what was logged\n")
	sb.WriteString("3. For worrying or worsening pain: gently suggest consulting a healthcare provider\n")
	sb.WriteString("4. Be warm and supportive, like talking to a close friend\n")
	sb.WriteString("5. Avoid medical jargon - use simple, everyday language\n")

	return sb.String()
}

// isLikelySmallTalk checks if a message is likely small talk
func isLikelySmallTalk(content string) bool {
	content = strings.ToLower(content)

	smallTalkPatterns := []string{
		"hello", "hi", "hey",
		"goodbye", "bye", "see you",
		"thanks", "thank you",
		"how are you", "what's up",
	}

	// Very short messages are likely small talk
	if len(content) < 15 {
		for _, pattern := range smallTalkPatterns {
			if strings.Contains(content, pattern) {
				return true
			}
		}
	}

	return false
}
