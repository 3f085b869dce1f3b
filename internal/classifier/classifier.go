package classifier

import (
	"regexp"
	"strings"
)

// Intent represents the classified intent of a user message
type Intent string

const (
	IntentSmallTalk  Intent = "small_talk"
	IntentGratitude  Intent = "gratitude"
	IntentPainReport Intent = "pain_report"
	IntentPainQ      Intent = "pain_question"
	IntentInsights   Intent = "insights_request"
	IntentLogEdit    Intent = "log_management"
	IntentUnclear    Intent = "unclear"
)

// ClassifierResult contains the classification result
type ClassifierResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classifier performs rule-based intent classification
type Classifier struct {
	greetingPatterns []*regexp.Regexp
	goodbyePatterns  []*regexp.Regexp
	thanksPatterns   []*regexp.Regexp
	reportPatterns   []*regexp.Regexp
	questionPatterns []*regexp.Regexp
	insightsPatterns []*regexp.Regexp
	logEditPatterns  []*regexp.Regexp
	spaceNormalizer  *regexp.Regexp // Pre-compiled for performance
}

// NewClassifier creates a new intent classifier
func NewClassifier() *Classifier {
	return &Classifier{
		spaceNormalizer: regexp.MustCompile(`\s+`), // Pre-compile once
		greetingPatterns: compilePatterns([]string{
			`\b(hi|hello|hey|good morning|good afternoon|good evening)\b`,
			`\bhow are you\b`,
			`\bwhat's up\b`,
			`\bhow's it going\b`,
		}),
		goodbyePatterns: compilePatterns([]string{
			`\b(bye|goodbye|see you|farewell|good night)\b`,
			`\btalk to you later\b`,
			`\bcatch you later\b`,
		}),
		thanksPatterns: compilePatterns([]string{
			`\b(thanks|thank you|thx)\b`,
			`\bappreciate it\b`,
			`\bthanks a lot\b`,
		}),
		reportPatterns: compilePatterns([]string{
			`\b(pain|hurt|hurting|ache|aching|sore|throbbing|pounding)\b`,
			`\b(headache|migraine)\b`,
			`\b(nausea|nauseous|dizzy|dizziness)\b`,
			`\b(took|taking|take)\b.*\b(ibuprofen|advil|tylenol|acetaminophen|aspirin|medication|meds|pill)\b`,
			`\b([0-9]|10)\s*(/|out of)\s*10\b`,
			`\bI('m| am| have).*\b(experiencing|feeling|having|noticing|noticed)\b`,
			`\bmy.*(hurts|aches|is killing me)\b`,
			`\bflare[- ]?up\b`,
		}),
		questionPatterns: compilePatterns([]string{
			`\bwhy.*(hurt|pain|headache)\b`,
			`\bwhat.*(trigger|cause|causing)\b`,
			`\bwhat (should|can) i (do|take)\b`,
			`\b(help|helps|helping) with\b`,
			`\bis (this|that) normal\b`,
			`\bhow (do|can) i (stop|prevent|avoid)\b`,
		}),
		insightsPatterns: compilePatterns([]string{
			`\b(show|see|view).*(insights|progress|trends|history|summary)\b`,
			`\bhow (have i|has my pain) been\b`,
			`\b(doctor|report|summary for)\b`,
			`\bmy patterns\b`,
		}),
		logEditPatterns: compilePatterns([]string{
			`\b(edit|change|fix|correct|update).*(log|entry|record)\b`,
			`\b(delete|remove).*(log|entry|record)\b`,
			`\bthat was wrong\b`,
			`\blogged.*(by mistake|accidentally)\b`,
		}),
	}
}

// Classify determines the intent of the input message
func (c *Classifier) Classify(input string) ClassifierResult {
	normalized := c.normalizeText(input)

	// Empty input handling
	if normalized == "" {
		return ClassifierResult{
			Intent:     IntentUnclear,
			Confidence: 0.1,
		}
	}

	// Log management and insights requests are explicit commands, so
	// they win over everything else.
	if c.matchesPatterns(normalized, c.logEditPatterns) {
		return ClassifierResult{
			Intent:     IntentLogEdit,
			Confidence: 0.9,
		}
	}

	if c.matchesPatterns(normalized, c.insightsPatterns) {
		return ClassifierResult{
			Intent:     IntentInsights,
			Confidence: 0.9,
		}
	}

	// A question that also mentions pain is answered as a question;
	// the extractor still reads the text for loggable details.
	reportMatches := c.countMatches(normalized, c.reportPatterns)
	questionMatches := c.countMatches(normalized, c.questionPatterns)
	if questionMatches > 0 && questionMatches >= reportMatches {
		confidence := 0.75 + float64(questionMatches)*0.05
		if confidence > 0.95 {
			confidence = 0.95
		}
		return ClassifierResult{
			Intent:     IntentPainQ,
			Confidence: confidence,
		}
	}
	if reportMatches > 0 {
		confidence := 0.75 + float64(reportMatches)*0.05
		if confidence > 0.95 {
			confidence = 0.95
		}
		return ClassifierResult{
			Intent:     IntentPainReport,
			Confidence: confidence,
		}
	}

	// Check for small talk (greetings, goodbyes)
	if c.matchesPatterns(normalized, c.greetingPatterns) {
		return ClassifierResult{
			Intent:     IntentSmallTalk,
			Confidence: 0.9,
		}
	}

	if c.matchesPatterns(normalized, c.goodbyePatterns) {
		return ClassifierResult{
			Intent:     IntentSmallTalk,
			Confidence: 0.9,
		}
	}

	// Check for gratitude (handled separately to preserve context)
	if c.matchesPatterns(normalized, c.thanksPatterns) {
		return ClassifierResult{
			Intent:     IntentGratitude,
			Confidence: 0.9,
		}
	}

	// Default to unclear if no patterns match
	return ClassifierResult{
		Intent:     IntentUnclear,
		Confidence: 0.3,
	}
}

// normalizeText preprocesses input text for classification
func (c *Classifier) normalizeText(input string) string {
	// Convert to lowercase
	text := strings.ToLower(input)

	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove multiple spaces using pre-compiled regex
	text = c.spaceNormalizer.ReplaceAllString(text, " ")

	// Remove trailing punctuation
	text = strings.TrimRight(text, "!?.,;:")

	return text
}

// matchesPatterns checks if any pattern matches
func (c *Classifier) matchesPatterns(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// countMatches counts how many patterns match
func (c *Classifier) countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			count++
		}
	}
	return count
}

// compilePatterns compiles a slice of regex patterns
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re := regexp.MustCompile(p)
		compiled = append(compiled, re)
	}
	return compiled
}
