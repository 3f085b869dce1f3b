package insights

import (
	"fmt"
	"strings"
)

// FormatReport renders the doctor-summary text. Field order and rounding
// (one decimal for pain, whole-number percentages) are part of the
// contract with the copy/print feature; do not reorder.
func FormatReport(s Summary, rng Range) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pain Summary (%s to %s)\n\n",
		rng.Start.Format("Jan 2, 2006"), rng.End.Add(-1).Format("Jan 2, 2006"))

	if s.RatedEntries == 0 {
		b.WriteString("No pain entries recorded in this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- Average pain level: %.1f/10 (%d entries)\n", s.AvgDailyPain, s.RatedEntries)
	fmt.Fprintf(&b, "- Severe pain days (7+): %d\n", s.SevereDays)

	if len(s.TopTimesOfDay) > 0 {
		parts := make([]string, 0, len(s.TopTimesOfDay))
		for _, t := range s.TopTimesOfDay {
			parts = append(parts, fmt.Sprintf("%s (avg %.1f)", t.Name, t.AvgPain))
		}
		fmt.Fprintf(&b, "- Worst times of day: %s\n", strings.Join(parts, ", "))
	}

	if len(s.TopWeekdays) > 0 {
		parts := make([]string, 0, len(s.TopWeekdays))
		for _, w := range s.TopWeekdays {
			parts = append(parts, fmt.Sprintf("%s (avg %.1f)", w.Name, w.AvgPain))
		}
		fmt.Fprintf(&b, "- Worst days of week: %s\n", strings.Join(parts, ", "))
	}

	if s.DaysWithImpact > 0 {
		parts := make([]string, 0, len(s.ImpactShares))
		for _, share := range s.ImpactShares {
			if share.Days == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %d%%", share.Level, share.Percent))
		}
		fmt.Fprintf(&b, "- Functional impact (%d days recorded): %s\n",
			s.DaysWithImpact, strings.Join(parts, ", "))
		if len(s.TopImpactTags) > 0 {
			fmt.Fprintf(&b, "- Most affected: %s\n", strings.Join(s.TopImpactTags, ", "))
		}
	}

	for _, med := range s.Medications {
		if med.Observations == 0 {
			fmt.Fprintf(&b, "- %s: no follow-up readings (side effects %d%%)\n",
				med.Name, med.SideEffectRate)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s pain change over %d observations (side effects %d%%)\n",
			med.Name, formatDelta(med.MeanDelta), med.Observations, med.SideEffectRate)
	}

	return b.String()
}

func formatDelta(delta float64) string {
	// The minus sign is rendered explicitly so "pain went down" reads
	// unambiguously in plain text.
	if delta < 0 {
		return fmt.Sprintf("−%.1f", -delta)
	}
	return fmt.Sprintf("+%.1f", delta)
}
