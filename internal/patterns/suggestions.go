package patterns

import (
	"fmt"
	"strings"
	"time"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// maxSuggestions caps the quick-reply pills shown under the chat box.
const maxSuggestions = 4

// ContextualSuggestions produces up to four deduplicated quick replies for
// the current message, personalised by the user's history. Priority order
// is fixed: pain hints, trigger hints, medication hints, time-of-day hint,
// then the generic actions; truncation keeps the first four after dedup.
func ContextualSuggestions(message string, history []store.PainLogEntry, at time.Time) []string {
	lower := strings.ToLower(message)
	p := ComputePatterns(history)

	var candidates []string

	if strings.Contains(lower, "pain") || strings.Contains(lower, "hurt") || strings.Contains(lower, "ache") {
		if len(p.CommonPainLevels) > 0 {
			candidates = append(candidates, fmt.Sprintf("Pain level %d", p.CommonPainLevels[0]))
		}
		if len(p.FrequentLocations) > 0 {
			candidates = append(candidates, "In my "+p.FrequentLocations[0])
		}
	}

	if strings.Contains(lower, "why") || strings.Contains(lower, "trigger") || strings.Contains(lower, "cause") {
		for _, trig := range p.CommonTriggers {
			candidates = append(candidates, "Maybe "+trig)
		}
	}

	if strings.Contains(lower, "help") || strings.Contains(lower, "what should") || strings.Contains(lower, "what can i") {
		for _, med := range p.EffectiveMedications {
			candidates = append(candidates, "Try "+med.Name)
		}
	}

	switch hour := at.Hour(); {
	case hour < 12 && p.TimePatterns.Morning:
		candidates = append(candidates, "Morning pain again")
	case hour >= 12 && hour < 17 && p.TimePatterns.Afternoon:
		candidates = append(candidates, "Afternoon flare-up")
	case hour >= 17 && p.TimePatterns.Evening:
		candidates = append(candidates, "Evening pain again")
	}

	candidates = append(candidates, "Quick pain log", "Voice recording")

	seen := make(map[string]bool)
	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
