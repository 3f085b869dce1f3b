package fallback

import (
	"github.com/themobileprof/paintrack-be/internal/classifier"
)

// Response represents a fallback response
type Response struct {
	Content string
	Action  string // "retry", "contact_support", "emergency"
}

var (
	intentFallbacks = map[classifier.Intent]Response{
		classifier.IntentPainReport: {
			Content: "I'm having trouble processing your message right now, but your pain details are safe. If the pain is severe or unusual for you, please contact your healthcare provider.",
			Action:  "emergency",
		},
		classifier.IntentPainQ: {
			Content: "I'm having a brief connection issue. Let me try again in a moment. If your question is urgent, please reach out to your healthcare provider.",
			Action:  "retry",
		},
		classifier.IntentInsights: {
			Content: "I can't build your insights right now, but your logs are all saved. Try the insights tab again in a moment.",
			Action:  "retry",
		},
		classifier.IntentLogEdit: {
			Content: "I couldn't reach your log just now. Your entries are intact; please try the edit again shortly.",
			Action:  "retry",
		},
		classifier.IntentSmallTalk: {
			Content: "I'm here! Having a small technical hiccup. How can I help you today?",
			Action:  "retry",
		},
		classifier.IntentGratitude: {
			Content: "You're welcome! I'm having a small technical hiccup, but I'm still here.",
			Action:  "retry",
		},
		classifier.IntentUnclear: {
			Content: "I'm having trouble understanding right now. Could you try rephrasing?",
			Action:  "retry",
		},
	}

	timeoutFallback = Response{
		Content: "I'm taking longer than usual to respond. This might be a temporary issue. Your logged entries are safe.",
		Action:  "retry",
	}

	circuitOpenFallback = Response{
		Content: "I'm temporarily unavailable due to technical difficulties. I'll be back shortly. Your pain log keeps working in the meantime.",
		Action:  "contact_support",
	}
)

// GetFallbackResponse returns an appropriate fallback response
func GetFallbackResponse(intent classifier.Intent) Response {
	if response, ok := intentFallbacks[intent]; ok {
		return response
	}

	// Default fallback
	return Response{
		Content: "I'm sorry, I'm having technical difficulties. Please try again.",
		Action:  "retry",
	}
}

// GetTimeoutResponse returns a timeout-specific fallback
func GetTimeoutResponse() Response {
	return timeoutFallback
}

// GetCircuitOpenResponse returns a circuit breaker open fallback
func GetCircuitOpenResponse() Response {
	return circuitOpenFallback
}

// IsEmergencyIntent checks if intent requires emergency handling
func IsEmergencyIntent(intent classifier.Intent) bool {
	return intent == classifier.IntentPainReport
}
