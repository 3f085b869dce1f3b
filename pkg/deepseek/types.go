package deepseek

import (
	"github.com/themobileprof/paintrack-be/pkg/llm"
)

// The DeepSeek wire format is the generic OpenAI-style chat format, so
// the types are aliases of the provider-neutral llm ones. Code written
// against this package interoperates with any llm.Client.

// ChatMessage represents a message in the conversation
type ChatMessage = llm.ChatMessage

// ChatRequest represents a request to the DeepSeek API
type ChatRequest = llm.ChatRequest

// ChatChunk represents a streaming response chunk
type ChatChunk = llm.ChatChunk

// Delta represents the incremental content in a stream
type Delta = llm.Delta

// ChatResponse represents a non-streaming response
type ChatResponse = llm.ChatResponse

// Client interface for DeepSeek API interactions
type Client = llm.Client
