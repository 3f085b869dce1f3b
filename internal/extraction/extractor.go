package extraction

import (
	"regexp"
	"strings"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// ExtractedPainData is the transient output of Extract. It is mapped into
// a store.PainLogEntry at save time, never persisted as-is.
type ExtractedPainData struct {
	PainLevel   *int
	Locations   []string
	Triggers    []string
	Medications []store.MedicationDose
	Symptoms    []string
	Notes       string
}

// IsEmpty reports whether nothing was extracted.
func (d ExtractedPainData) IsEmpty() bool {
	return d.PainLevel == nil && len(d.Locations) == 0 && len(d.Triggers) == 0 &&
		len(d.Medications) == 0 && len(d.Symptoms) == 0
}

// levelToken matches a standalone 0-10 integer. A numeral always beats the
// adjective lexicon.
var levelToken = regexp.MustCompile(`\b(10|[0-9])\b`)

// severityLexicon maps adjectives to representative levels. First matching
// rule wins; a single pass, no blending.
var severityLexicon = []struct {
	keyword string
	level   int
}{
	{"excruciating", 8},
	{"unbearable", 8},
	{"worst", 8},
	{"horrible", 8},
	{"terrible", 8},
	{"severe", 7},
	{"really bad", 7},
	{"moderate", 5},
	{"bothersome", 5},
	{"uncomfortable", 5},
	{"mild", 3},
	{"slight", 3},
	{"little", 3},
}

// locationLexicon maps message keywords to canonical body-area labels.
var locationLexicon = []struct {
	keyword string
	label   string
}{
	{"forehead", "forehead"},
	{"temple", "temples"},
	{"behind my eyes", "behind eyes"},
	{"behind eyes", "behind eyes"},
	{"behind the eyes", "behind eyes"},
	{"back of my head", "back of head"},
	{"back of head", "back of head"},
	{"back of the head", "back of head"},
	{"whole head", "whole head"},
	{"entire head", "whole head"},
	{"neck", "neck"},
	{"shoulder", "shoulders"},
}

var triggerLexicon = []struct {
	keyword string
	label   string
}{
	{"stress", "stress"},
	{"poor sleep", "poor sleep"},
	{"didn't sleep", "poor sleep"},
	{"lack of sleep", "poor sleep"},
	{"tired", "poor sleep"},
	{"dehydrat", "dehydration"},
	{"bright light", "bright lights"},
	{"screen", "screen time"},
	{"diet", "diet"},
	{"food", "diet"},
	{"weather", "weather"},
	{"hormon", "hormones"},
	{"period", "hormones"},
}

var medicationLexicon = []struct {
	keyword string
	name    string
}{
	{"ibuprofen", "ibuprofen"},
	{"advil", "ibuprofen"},
	{"tylenol", "tylenol"},
	{"acetaminophen", "tylenol"},
	{"aspirin", "aspirin"},
}

// ineffectiveMarkers flag that a mentioned medication did not help.
var ineffectiveMarkers = []string{
	"still",
	"not helping",
	"doesn't help",
	"didn't help",
	"isn't helping",
	"not working",
	"no relief",
}

var symptomLexicon = []struct {
	keyword string
	label   string
}{
	{"nausea", "nausea"},
	{"nauseous", "nausea"},
	{"dizzy", "dizziness"},
	{"lightheaded", "dizziness"},
	{"vomit", "nausea"},
}

// Extract parses a free-text utterance into a partial pain record.
//
// The scope is deliberately asymmetric: the pain level reflects only the
// latest message, while locations, triggers, medications, and symptoms
// accumulate across the prior user messages as well. A single utterance
// rarely restates everything already said this conversation.
//
// Extract is pure and never fails; unmatched input yields the zero value.
func Extract(message string, prior []string) ExtractedPainData {
	data := ExtractedPainData{Notes: strings.TrimSpace(message)}
	data.PainLevel = extractLevel(strings.ToLower(message))

	scope := make([]string, 0, len(prior)+1)
	scope = append(scope, prior...)
	scope = append(scope, message)

	seenLocations := make(map[string]bool)
	seenTriggers := make(map[string]bool)
	seenSymptoms := make(map[string]bool)
	medEffect := make(map[string]*bool)
	medOrder := make([]string, 0, 2)

	for _, msg := range scope {
		lower := strings.ToLower(msg)

		for _, loc := range locationLexicon {
			if strings.Contains(lower, loc.keyword) && !seenLocations[loc.label] {
				seenLocations[loc.label] = true
				data.Locations = append(data.Locations, loc.label)
			}
		}

		for _, trig := range triggerLexicon {
			if strings.Contains(lower, trig.keyword) && !seenTriggers[trig.label] {
				seenTriggers[trig.label] = true
				data.Triggers = append(data.Triggers, trig.label)
			}
		}

		for _, sym := range symptomLexicon {
			if strings.Contains(lower, sym.keyword) && !seenSymptoms[sym.label] {
				seenSymptoms[sym.label] = true
				data.Symptoms = append(data.Symptoms, sym.label)
			}
		}
		// Sensitivity symptoms need both words in the same message.
		if strings.Contains(lower, "sensitive") {
			if strings.Contains(lower, "light") && !seenSymptoms["light sensitivity"] {
				seenSymptoms["light sensitivity"] = true
				data.Symptoms = append(data.Symptoms, "light sensitivity")
			}
			if strings.Contains(lower, "sound") && !seenSymptoms["sound sensitivity"] {
				seenSymptoms["sound sensitivity"] = true
				data.Symptoms = append(data.Symptoms, "sound sensitivity")
			}
		}

		negated := containsAny(lower, ineffectiveMarkers)
		for _, med := range medicationLexicon {
			if !strings.Contains(lower, med.keyword) {
				continue
			}
			effective := !negated
			if _, seen := medEffect[med.name]; !seen {
				medOrder = append(medOrder, med.name)
			}
			// A later mention overrides an earlier judgment.
			medEffect[med.name] = &effective
		}
	}

	for _, name := range medOrder {
		data.Medications = append(data.Medications, store.MedicationDose{
			Name:      name,
			Effective: medEffect[name],
		})
	}

	return data
}

// extractLevel finds the pain level in a single lowercased message.
func extractLevel(lower string) *int {
	if tok := levelToken.FindString(lower); tok != "" {
		level := int(tok[0] - '0')
		if tok == "10" {
			level = 10
		}
		return &level
	}

	for _, rule := range severityLexicon {
		if strings.Contains(lower, rule.keyword) {
			level := rule.level
			return &level
		}
	}
	return nil
}

// MentionsPain reports whether the message uses pain language without
// necessarily rating it.
func MentionsPain(message string) bool {
	lower := strings.ToLower(message)
	return containsAny(lower, []string{"pain", "hurt", "ache", "aching", "headache", "migraine"})
}

// StatesIneffective reports whether the message says a medication is not
// working.
func StatesIneffective(message string) bool {
	return containsAny(strings.ToLower(message), ineffectiveMarkers)
}

// QuickLocationMatch resolves a quick-reply location answer against the
// location lexicon. Used while the conversation waits for a location.
func QuickLocationMatch(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, loc := range locationLexicon {
		if strings.Contains(lower, loc.keyword) {
			return loc.label, true
		}
	}
	return "", false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
