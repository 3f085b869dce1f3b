package insights

import (
	"math"
	"sort"
	"time"

	"github.com/themobileprof/paintrack-be/internal/store"
)

// Range is a half-open time window: start inclusive, end exclusive.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Point is one chart point: a per-entry time for single-day ranges, a
// calendar day for multi-day ranges.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BucketStat is a named group with its mean pain level.
type BucketStat struct {
	Name    string  `json:"name"`
	AvgPain float64 `json:"avg_pain"`
	Entries int     `json:"entries"`
}

// ImpactShare is the percentage of impact-recorded days at one severity.
type ImpactShare struct {
	Level   store.FunctionalImpact `json:"level"`
	Days    int                    `json:"days"`
	Percent int                    `json:"percent"`
}

// MedicationLine summarizes one medication's observed effect.
type MedicationLine struct {
	Name           string  `json:"name"`
	MeanDelta      float64 `json:"mean_delta"` // signed; negative means pain went down
	Observations   int     `json:"observations"`
	SideEffectRate int     `json:"side_effect_rate"` // whole-number percent
}

// Summary is the range-scoped aggregate behind the insights view and the
// doctor report. Derived per request, never persisted.
type Summary struct {
	EntryCount     int              `json:"entry_count"`
	RatedEntries   int              `json:"rated_entries"`
	AvgDailyPain   float64          `json:"avg_daily_pain"`
	SevereDays     int              `json:"severe_days"`
	TopTimesOfDay  []BucketStat     `json:"top_times_of_day"`
	TopWeekdays    []BucketStat     `json:"top_weekdays"`
	DaysWithImpact int              `json:"days_with_impact"`
	ImpactShares   []ImpactShare    `json:"impact_shares"`
	TopImpactTags  []string         `json:"top_impact_tags"`
	Medications    []MedicationLine `json:"medications"`
}

// severeThreshold marks a day as severe when its max level reaches it.
const severeThreshold = 7

// Medication efficacy window: the next rated entry strictly between
// 2h and 4h after a dose.
const (
	efficacyWindowMin = 2 * time.Hour
	efficacyWindowMax = 4 * time.Hour
)

// filterRange keeps entries with start <= LoggedAt < end.
func filterRange(entries []store.PainLogEntry, rng Range) []store.PainLogEntry {
	out := make([]store.PainLogEntry, 0, len(entries))
	for _, e := range entries {
		if e.LoggedAt.Before(rng.Start) || !e.LoggedAt.Before(rng.End) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LoggedAt.Before(out[j].LoggedAt)
	})
	return out
}

// Summarize computes the full range-scoped summary. Empty or degenerate
// input produces a zero summary, never an error.
func Summarize(entries []store.PainLogEntry, rng Range) Summary {
	scoped := filterRange(entries, rng)

	s := Summary{EntryCount: len(scoped)}

	var sum, rated int
	dayMax := make(map[string]int)
	for _, e := range scoped {
		if e.PainLevel == nil {
			continue
		}
		rated++
		sum += *e.PainLevel
		day := e.Day()
		if *e.PainLevel > dayMax[day] {
			dayMax[day] = *e.PainLevel
		}
	}
	s.RatedEntries = rated
	if rated > 0 {
		// Flat average across rated entries, not a mean of daily means.
		s.AvgDailyPain = round1(float64(sum) / float64(rated))
	}
	for _, max := range dayMax {
		if max >= severeThreshold {
			s.SevereDays++
		}
	}

	s.TopTimesOfDay = topBuckets(scoped, timeOfDayBucket, 2)
	s.TopWeekdays = topBuckets(scoped, weekdayBucket, 2)

	s.DaysWithImpact, s.ImpactShares = impactShares(scoped)
	s.TopImpactTags = topImpactTags(scoped, 3)
	s.Medications = medicationLines(scoped)

	return s
}

// ToSeries projects entries onto chart points. A single-day range yields a
// per-entry series; a multi-day range yields one point per calendar day
// holding the mean of that day's rated entries. Days without rated entries
// are omitted so gaps render as gaps, not as zero pain.
func ToSeries(entries []store.PainLogEntry, rng Range) []Point {
	scoped := filterRange(entries, rng)

	if singleDay(rng) {
		points := make([]Point, 0, len(scoped))
		for _, e := range scoped {
			if e.PainLevel == nil {
				continue
			}
			points = append(points, Point{
				Label: e.LoggedAt.Format("15:04"),
				Value: float64(*e.PainLevel),
			})
		}
		return points
	}

	daySum := make(map[string]int)
	dayCount := make(map[string]int)
	dayOrder := make([]string, 0)
	for _, e := range scoped {
		if e.PainLevel == nil {
			continue
		}
		day := e.Day()
		if dayCount[day] == 0 {
			dayOrder = append(dayOrder, day)
		}
		daySum[day] += *e.PainLevel
		dayCount[day]++
	}

	sort.Strings(dayOrder)
	points := make([]Point, 0, len(dayOrder))
	for _, day := range dayOrder {
		points = append(points, Point{
			Label: day,
			Value: round1(float64(daySum[day]) / float64(dayCount[day])),
		})
	}
	return points
}

// singleDay reports whether the half-open range stays inside one calendar
// day. The last covered instant sits just before End, so a midnight End
// still counts as the starting day.
func singleDay(rng Range) bool {
	if !rng.Start.Before(rng.End) {
		return true
	}
	y1, m1, d1 := rng.Start.Date()
	y2, m2, d2 := rng.End.Add(-time.Nanosecond).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// timeOfDayBucket maps an hour to its named quarter of the day.
func timeOfDayBucket(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 6:
		return "Night"
	case hour < 12:
		return "Morning"
	case hour < 18:
		return "Afternoon"
	default:
		return "Evening"
	}
}

func weekdayBucket(t time.Time) string {
	return t.Weekday().String()
}

// topBuckets groups rated entries, computes the mean pain per bucket, and
// returns the top n by mean descending.
func topBuckets(entries []store.PainLogEntry, bucket func(time.Time) string, n int) []BucketStat {
	sums := make(map[string]int)
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, e := range entries {
		if e.PainLevel == nil {
			continue
		}
		name := bucket(e.LoggedAt)
		if counts[name] == 0 {
			order = append(order, name)
		}
		sums[name] += *e.PainLevel
		counts[name]++
	}

	stats := make([]BucketStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, BucketStat{
			Name:    name,
			AvgPain: round1(float64(sums[name]) / float64(counts[name])),
			Entries: counts[name],
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AvgPain > stats[j].AvgPain
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// impactLevels is the contractual report order.
var impactLevels = []store.FunctionalImpact{
	store.ImpactNone, store.ImpactLimited, store.ImpactStopped, store.ImpactBed,
}

// impactShares takes each day's maximum-severity impact and computes the
// share of impact-recorded days at each level.
func impactShares(entries []store.PainLogEntry) (int, []ImpactShare) {
	dayWorst := make(map[string]store.FunctionalImpact)
	for _, e := range entries {
		if e.FunctionalImpact == store.ImpactUnset {
			continue
		}
		day := e.Day()
		if worst, ok := dayWorst[day]; !ok || e.FunctionalImpact.Rank() > worst.Rank() {
			dayWorst[day] = e.FunctionalImpact
		}
	}

	total := len(dayWorst)
	if total == 0 {
		return 0, nil
	}

	dayCounts := make(map[store.FunctionalImpact]int)
	for _, worst := range dayWorst {
		dayCounts[worst]++
	}

	shares := make([]ImpactShare, 0, len(impactLevels))
	for _, level := range impactLevels {
		days := dayCounts[level]
		shares = append(shares, ImpactShare{
			Level:   level,
			Days:    days,
			Percent: int(math.Round(float64(days) / float64(total) * 100)),
		})
	}
	return total, shares
}

func topImpactTags(entries []store.PainLogEntry, n int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range entries {
		for _, tag := range e.ImpactTags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// medicationLines searches, for each medicated entry, the next rated entry
// strictly between 2h and 4h later and attributes the pain-level delta to
// every medication named in the earlier entry. Lines sort ascending by
// mean delta, most pain-reducing first.
func medicationLines(entries []store.PainLogEntry) []MedicationLine {
	type acc struct {
		deltaSum    int
		n           int
		mentions    int
		sideEffects int
	}
	byName := make(map[string]*acc)
	order := make([]string, 0)

	get := func(name string) *acc {
		a, ok := byName[name]
		if !ok {
			a = &acc{}
			byName[name] = a
			order = append(order, name)
		}
		return a
	}

	for i, e := range entries {
		if len(e.Medications) == 0 {
			continue
		}

		for _, med := range e.Medications {
			a := get(med.Name)
			a.mentions++
			if e.SideEffects != "" {
				a.sideEffects++
			}
		}

		if e.PainLevel == nil {
			continue
		}
		for _, later := range entries[i+1:] {
			gap := later.LoggedAt.Sub(e.LoggedAt)
			if gap <= efficacyWindowMin {
				continue
			}
			if gap >= efficacyWindowMax {
				break
			}
			if later.PainLevel == nil {
				continue
			}
			delta := *later.PainLevel - *e.PainLevel
			for _, med := range e.Medications {
				a := get(med.Name)
				a.deltaSum += delta
				a.n++
			}
			break
		}
	}

	lines := make([]MedicationLine, 0, len(order))
	for _, name := range order {
		a := byName[name]
		line := MedicationLine{Name: name, Observations: a.n}
		if a.n > 0 {
			line.MeanDelta = round1(float64(a.deltaSum) / float64(a.n))
		}
		if a.mentions > 0 {
			line.SideEffectRate = int(math.Round(float64(a.sideEffects) / float64(a.mentions) * 100))
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].MeanDelta < lines[j].MeanDelta
	})
	return lines
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
