package store

import (
	"time"
)

// FunctionalImpact describes how much a pain episode limited the user's day.
type FunctionalImpact string

const (
	ImpactUnset   FunctionalImpact = ""
	ImpactNone    FunctionalImpact = "none"
	ImpactLimited FunctionalImpact = "limited"
	ImpactStopped FunctionalImpact = "stopped"
	ImpactBed     FunctionalImpact = "bed"
)

// Rank returns the ordinal severity of the impact level. Higher is worse.
func (f FunctionalImpact) Rank() int {
	switch f {
	case ImpactNone:
		return 0
	case ImpactLimited:
		return 1
	case ImpactStopped:
		return 2
	case ImpactBed:
		return 3
	default:
		return -1
	}
}

// ParseFunctionalImpact maps a raw string to a known impact level.
func ParseFunctionalImpact(s string) (FunctionalImpact, bool) {
	switch FunctionalImpact(s) {
	case ImpactNone, ImpactLimited, ImpactStopped, ImpactBed:
		return FunctionalImpact(s), true
	case ImpactUnset:
		return ImpactUnset, true
	}
	return ImpactUnset, false
}

// MedicationDose is the single normalized shape for a medication mention.
// Effective is nil when the user never said whether it helped.
type MedicationDose struct {
	Name      string `json:"name"`
	Effective *bool  `json:"effective,omitempty"`
}

// PainLogEntry is one reported observation.
type PainLogEntry struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	LoggedAt         time.Time        `json:"logged_at"`
	PainLevel        *int             `json:"pain_level"` // nil when no rating was given
	Locations        []string         `json:"locations"`
	Triggers         []string         `json:"triggers"`
	Medications      []MedicationDose `json:"medications"`
	Symptoms         []string         `json:"symptoms"`
	Notes            string           `json:"notes,omitempty"`
	FunctionalImpact FunctionalImpact `json:"functional_impact,omitempty"`
	ImpactTags       []string         `json:"impact_tags,omitempty"`
	SideEffects      string           `json:"side_effects,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Day returns the calendar-day projection of LoggedAt. The day is always
// derived from the timestamp, never stored on its own.
func (e *PainLogEntry) Day() string {
	return e.LoggedAt.Format("2006-01-02")
}

// LogPatch carries the fields of an explicit edit. Nil fields are untouched.
type LogPatch struct {
	PainLevel        *int              `json:"pain_level,omitempty"`
	Locations        *[]string         `json:"locations,omitempty"`
	Triggers         *[]string         `json:"triggers,omitempty"`
	Medications      *[]MedicationDose `json:"medications,omitempty"`
	Symptoms         *[]string         `json:"symptoms,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	FunctionalImpact *FunctionalImpact `json:"functional_impact,omitempty"`
	ImpactTags       *[]string         `json:"impact_tags,omitempty"`
	SideEffects      *string           `json:"side_effects,omitempty"`
}

// PainSession bounds a period of sustained pain.
type PainSession struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	StartLevel int        `json:"start_level"`
	EndLevel   *int       `json:"end_level,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ProfileMedication is a medication the user takes regularly.
type ProfileMedication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Profile is the slice of the user profile the companion reads.
type Profile struct {
	UserID               string              `json:"user_id"`
	PainIsConsistent     bool                `json:"pain_is_consistent"`
	DefaultPainLocations []string            `json:"default_pain_locations"`
	CurrentMedications   []ProfileMedication `json:"current_medications"`
}

// ChatMessage is one line of the companion transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeMedications collapses the duck-typed wire shape
// (plain string or {name, effective}) into []MedicationDose.
// Unknown shapes are dropped.
func NormalizeMedications(raw []interface{}) []MedicationDose {
	doses := make([]MedicationDose, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				doses = append(doses, MedicationDose{Name: v})
			}
		case map[string]interface{}:
			name, _ := v["name"].(string)
			if name == "" {
				continue
			}
			dose := MedicationDose{Name: name}
			if eff, ok := v["effective"].(bool); ok {
				e := eff
				dose.Effective = &e
			}
			doses = append(doses, dose)
		}
	}
	return doses
}
