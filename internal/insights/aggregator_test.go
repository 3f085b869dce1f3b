package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themobileprof/paintrack-be/internal/store"
)

var day1 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

func intp(v int) *int { return &v }

func at(day int, hour int) time.Time {
	return day1.AddDate(0, 0, day-1).Add(time.Duration(hour) * time.Hour)
}

func week() Range {
	return Range{Start: day1, End: day1.AddDate(0, 0, 7)}
}

func TestAvgDailyPainIgnoresUnrated(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(4)},
		{LoggedAt: at(1, 12), PainLevel: intp(8)},
		{LoggedAt: at(1, 15)}, // note without a rating
	}

	s := Summarize(entries, week())
	// (4+8)/2, not (4+8+0)/3.
	assert.Equal(t, 6.0, s.AvgDailyPain)
	assert.Equal(t, 3, s.EntryCount)
	assert.Equal(t, 2, s.RatedEntries)
}

func TestSevereDaysUseDailyMax(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(5)},
		{LoggedAt: at(1, 14), PainLevel: intp(8)},
		{LoggedAt: at(2, 9), PainLevel: intp(3)},
	}

	s := Summarize(entries, week())
	assert.Equal(t, 1, s.SevereDays)
}

func TestRangeFilterIsHalfOpen(t *testing.T) {
	rng := Range{Start: at(1, 0), End: at(2, 0)}
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 0), PainLevel: intp(5)},  // start inclusive
		{LoggedAt: at(2, 0), PainLevel: intp(9)},  // end exclusive
		{LoggedAt: at(1, 23), PainLevel: intp(2)}, // inside
	}

	s := Summarize(entries, rng)
	assert.Equal(t, 2, s.EntryCount)
	assert.Equal(t, 3.5, s.AvgDailyPain)
}

func TestSingleDaySeriesPerEntry(t *testing.T) {
	rng := Range{Start: at(1, 0), End: at(2, 0)}
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 8), PainLevel: intp(3)},
		{LoggedAt: at(1, 13), PainLevel: intp(7)},
		{LoggedAt: at(1, 20)}, // null excluded
	}

	points := ToSeries(entries, rng)
	require.Len(t, points, 2)
	assert.Equal(t, Point{Label: "08:00", Value: 3}, points[0])
	assert.Equal(t, Point{Label: "13:00", Value: 7}, points[1])
}

func TestNoonToNoonRangeIsMultiDay(t *testing.T) {
	// Exactly 24 hours, but crossing midnight: two calendar days, so the
	// series must use day labels, not clock times.
	rng := Range{Start: at(1, 12), End: at(2, 12)}
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 15), PainLevel: intp(6)},
		{LoggedAt: at(2, 9), PainLevel: intp(2)},
	}

	points := ToSeries(entries, rng)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-02", points[0].Label)
	assert.Equal(t, "2026-03-03", points[1].Label)
}

func TestMidnightEndStaysSingleDay(t *testing.T) {
	// [00:00, next 00:00) covers one calendar day; the exclusive end must
	// not push it into the multi-day branch.
	rng := Range{Start: at(1, 0), End: at(2, 0)}
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 8), PainLevel: intp(3)},
	}

	points := ToSeries(entries, rng)
	require.Len(t, points, 1)
	assert.Equal(t, "08:00", points[0].Label)
}

func TestMultiDaySeriesOmitsEmptyDays(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(4)},
		{LoggedAt: at(1, 18), PainLevel: intp(7)},
		// day 2 has no entries at all
		{LoggedAt: at(3, 9)}, // day 3 has only an unrated note
		{LoggedAt: at(4, 9), PainLevel: intp(2)},
	}

	points := ToSeries(entries, week())
	require.Len(t, points, 2, "empty days must appear as gaps, not zeroes")
	assert.Equal(t, "2026-03-02", points[0].Label)
	assert.Equal(t, 5.5, points[0].Value)
	assert.Equal(t, "2026-03-05", points[1].Label)
	assert.Equal(t, 2.0, points[1].Value)
}

func TestTimeOfDayRanking(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 3), PainLevel: intp(2)},  // Night
		{LoggedAt: at(1, 9), PainLevel: intp(8)},  // Morning
		{LoggedAt: at(2, 9), PainLevel: intp(6)},  // Morning
		{LoggedAt: at(1, 20), PainLevel: intp(5)}, // Evening
	}

	s := Summarize(entries, week())
	require.Len(t, s.TopTimesOfDay, 2)
	assert.Equal(t, "Morning", s.TopTimesOfDay[0].Name)
	assert.Equal(t, 7.0, s.TopTimesOfDay[0].AvgPain)
	assert.Equal(t, "Evening", s.TopTimesOfDay[1].Name)
}

func TestWeekdayRanking(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(8)}, // Monday
		{LoggedAt: at(2, 9), PainLevel: intp(3)}, // Tuesday
		{LoggedAt: at(3, 9), PainLevel: intp(5)}, // Wednesday
	}

	s := Summarize(entries, week())
	require.Len(t, s.TopWeekdays, 2)
	assert.Equal(t, "Monday", s.TopWeekdays[0].Name)
	assert.Equal(t, "Wednesday", s.TopWeekdays[1].Name)
}

func TestImpactPercentagesUseDailyMax(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), FunctionalImpact: store.ImpactLimited},
		{LoggedAt: at(2, 9), FunctionalImpact: store.ImpactBed},
		{LoggedAt: at(2, 14), FunctionalImpact: store.ImpactStopped},
	}

	s := Summarize(entries, week())
	assert.Equal(t, 2, s.DaysWithImpact)

	byLevel := make(map[store.FunctionalImpact]ImpactShare)
	for _, share := range s.ImpactShares {
		byLevel[share.Level] = share
	}
	// Day 2's recorded max is bed (rank 3 beats stopped's rank 2).
	assert.Equal(t, 50, byLevel[store.ImpactLimited].Percent)
	assert.Equal(t, 50, byLevel[store.ImpactBed].Percent)
	assert.Equal(t, 0, byLevel[store.ImpactStopped].Percent)
}

func TestMedicationEfficacyWindow(t *testing.T) {
	entries := []store.PainLogEntry{
		{
			LoggedAt:    at(1, 9),
			PainLevel:   intp(7),
			Medications: []store.MedicationDose{{Name: "ibuprofen"}},
		},
		{LoggedAt: at(1, 12), PainLevel: intp(3)}, // +3h, inside the window
	}

	s := Summarize(entries, week())
	require.Len(t, s.Medications, 1)
	line := s.Medications[0]
	assert.Equal(t, "ibuprofen", line.Name)
	assert.Equal(t, -4.0, line.MeanDelta)
	assert.Equal(t, 1, line.Observations)
}

func TestMedicationEfficacyWindowIsStrict(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(7), Medications: []store.MedicationDose{{Name: "aspirin"}}},
		{LoggedAt: at(1, 11), PainLevel: intp(1)}, // exactly +2h: excluded
		{LoggedAt: at(1, 13), PainLevel: intp(5)}, // +4h exactly: excluded too
	}

	s := Summarize(entries, week())
	require.Len(t, s.Medications, 1)
	assert.Equal(t, 0, s.Medications[0].Observations)
}

func TestMedicationLinesSortAscendingByDelta(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 8), PainLevel: intp(6), Medications: []store.MedicationDose{{Name: "tylenol"}}},
		{LoggedAt: at(1, 11), PainLevel: intp(6)}, // tylenol delta 0
		{LoggedAt: at(2, 8), PainLevel: intp(8), Medications: []store.MedicationDose{{Name: "ibuprofen"}}},
		{LoggedAt: at(2, 11), PainLevel: intp(2)}, // ibuprofen delta -6
	}

	s := Summarize(entries, week())
	require.Len(t, s.Medications, 2)
	assert.Equal(t, "ibuprofen", s.Medications[0].Name, "most pain-reducing first")
	assert.Equal(t, "tylenol", s.Medications[1].Name)
}

func TestSideEffectRate(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 8), Medications: []store.MedicationDose{{Name: "ibuprofen"}}, SideEffects: "stomach upset"},
		{LoggedAt: at(2, 8), Medications: []store.MedicationDose{{Name: "ibuprofen"}}},
	}

	s := Summarize(entries, week())
	require.Len(t, s.Medications, 1)
	assert.Equal(t, 50, s.Medications[0].SideEffectRate)
}

func TestEmptyHistoryNeverPanics(t *testing.T) {
	s := Summarize(nil, week())
	assert.Equal(t, 0.0, s.AvgDailyPain)
	assert.Equal(t, 0, s.SevereDays)
	assert.Empty(t, s.TopTimesOfDay)
	assert.Empty(t, s.Medications)

	assert.Empty(t, ToSeries(nil, week()))
}

func TestFormatReportFieldOrder(t *testing.T) {
	entries := []store.PainLogEntry{
		{LoggedAt: at(1, 9), PainLevel: intp(7), FunctionalImpact: store.ImpactLimited, ImpactTags: []string{"work"}},
		{LoggedAt: at(1, 12), PainLevel: intp(3), Medications: []store.MedicationDose{{Name: "ibuprofen"}}},
		{LoggedAt: at(1, 15), PainLevel: intp(1)},
	}

	report := FormatReport(Summarize(entries, week()), week())

	wantOrder := []string{
		"Average pain level",
		"Severe pain days",
		"Worst times of day",
		"Worst days of week",
		"Functional impact",
		"ibuprofen",
	}
	last := -1
	for _, field := range wantOrder {
		idx := strings.Index(report, field)
		require.GreaterOrEqual(t, idx, 0, "missing field %q in report:\n%s", field, report)
		assert.Greater(t, idx, last, "field %q out of order", field)
		last = idx
	}

	// One decimal for pain values.
	assert.Contains(t, report, "3.7/10")
}

func TestFormatReportNoData(t *testing.T) {
	report := FormatReport(Summarize(nil, week()), week())
	assert.Contains(t, report, "No pain entries recorded")
}
