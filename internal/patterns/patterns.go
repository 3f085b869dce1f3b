package patterns

import (
	"sort"
	"strconv"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// TimePatterns marks the periods of day a user tends to report pain in.
// Buckets are independent booleans; more than one may be true, or none.
type TimePatterns struct {
	Morning   bool `json:"morning"`   // local hour < 12
	Afternoon bool `json:"afternoon"` // 12-17
	Evening   bool `json:"evening"`   // >= 17
}

// MedicationRating is a medication with its historical effectiveness ratio.
type MedicationRating struct {
	Name  string  `json:"name"`
	Ratio float64 `json:"ratio"` // effective mentions / total mentions, in [0,1]
}

// UserPatterns is derived from a history window, recomputed on demand.
type UserPatterns struct {
	CommonPainLevels     []int              `json:"common_pain_levels"`
	FrequentLocations    []string           `json:"frequent_locations"`
	CommonTriggers       []string           `json:"common_triggers"`
	EffectiveMedications []MedicationRating `json:"effective_medications"`
	TypicalSymptoms      []string           `json:"typical_symptoms"`
	TimePatterns         TimePatterns       `json:"time_patterns"`
}

// timeShareThreshold is the share of entries a time bucket needs before it
// counts as a tendency.
const timeShareThreshold = 0.3

// ComputePatterns derives user-specific statistics from a log history.
// Pure and deterministic for a fixed history; callers re-run it per request.
func ComputePatterns(history []store.PainLogEntry) UserPatterns {
	p := UserPatterns{}

	levelCounts := newHistogram()
	locations := newHistogram()
	triggers := newHistogram()
	symptoms := newHistogram()
	medTotals := newHistogram()
	medEffective := make(map[string]int)

	var morning, afternoon, evening int

	for _, e := range history {
		if e.PainLevel != nil && *e.PainLevel > 0 {
			levelCounts.add(strconv.Itoa(*e.PainLevel))
		}
		for _, loc := range e.Locations {
			locations.add(loc)
		}
		for _, trig := range e.Triggers {
			triggers.add(trig)
		}
		for _, sym := range e.Symptoms {
			symptoms.add(sym)
		}
		for _, med := range e.Medications {
			medTotals.add(med.Name)
			if med.Effective != nil && *med.Effective {
				medEffective[med.Name]++
			}
		}

		switch hour := e.LoggedAt.Hour(); {
		case hour < 12:
			morning++
		case hour < 17:
			afternoon++
		default:
			evening++
		}
	}

	for _, label := range levelCounts.top(3) {
		level, _ := strconv.Atoi(label)
		p.CommonPainLevels = append(p.CommonPainLevels, level)
	}
	p.FrequentLocations = locations.top(3)
	p.CommonTriggers = triggers.top(3)
	p.TypicalSymptoms = symptoms.top(3)

	// Effectiveness ratio per medication name. A name with zero total
	// mentions never appears in the histogram, so the division is safe.
	ratings := make([]MedicationRating, 0, len(medTotals.order))
	for _, name := range medTotals.order {
		total := medTotals.counts[name]
		ratings = append(ratings, MedicationRating{
			Name:  name,
			Ratio: float64(medEffective[name]) / float64(total),
		})
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Ratio > ratings[j].Ratio
	})
	if len(ratings) > 3 {
		ratings = ratings[:3]
	}
	p.EffectiveMedications = ratings

	if total := len(history); total > 0 {
		p.TimePatterns.Morning = float64(morning)/float64(total) > timeShareThreshold
		p.TimePatterns.Afternoon = float64(afternoon)/float64(total) > timeShareThreshold
		p.TimePatterns.Evening = float64(evening)/float64(total) > timeShareThreshold
	}

	return p
}

// histogram counts labels while remembering first-encounter order, which
// doubles as the deterministic tie-break.
type histogram struct {
	counts map[string]int
	order  []string
}

func newHistogram() *histogram {
	return &histogram{counts: make(map[string]int)}
}

func (h *histogram) add(label string) {
	if _, seen := h.counts[label]; !seen {
		h.order = append(h.order, label)
	}
	h.counts[label]++
}

// top returns up to n labels sorted by count descending, ties broken by
// first-encounter order.
func (h *histogram) top(n int) []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	sort.SliceStable(out, func(i, j int) bool {
		return h.counts[out[i]] > h.counts[out[j]]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
