package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/limbo/discipline/pkg/entity"
)

const (
	// MinInsightDays is the minimum number of distinct recorded days before any
	// insight is produced.
	MinInsightDays = 28

	dayOfWeekThreshold = 15.0
	peakHourThreshold  = 30
	weekendThreshold   = 15.0
)

// GenerateInsights runs the day-of-week, time-of-day and weekend detectors over
// the history. Each detector yields at most one insight and all thresholds are
// strict. A history with fewer than MinInsightDays distinct days yields none.
func GenerateInsights(checkIns []entity.CheckIn, schedule entity.Schedule) []entity.Insight {
	insights := []entity.Insight{}
	if _, _, distinct := historySpan(checkIns); distinct < MinInsightDays {
		return insights
	}
	stats := DayOfWeek(checkIns, schedule)
	if in, ok := dayOfWeekInsight(stats); ok {
		insights = append(insights, in)
	}
	if in, ok := timeOfDayInsight(HourDistribution(checkIns)); ok {
		insights = append(insights, in)
	}
	if in, ok := weekendInsight(stats); ok {
		insights = append(insights, in)
	}
	return insights
}

func dayOfWeekInsight(stats [7]entity.DayOfWeekStats) (entity.Insight, bool) {
	best, worst, ok := bestAndWorst(stats)
	if !ok || round2(best.CompletionRate-worst.CompletionRate) <= dayOfWeekThreshold {
		return entity.Insight{}, false
	}
	return entity.Insight{
		Type: entity.InsightDayOfWeekPattern,
		Message: fmt.Sprintf("You complete this habit most on %ss (%s) and least on %ss (%s).",
			best.Weekday, formatPercent(best.CompletionRate),
			worst.Weekday, formatPercent(worst.CompletionRate)),
		Actionable: true,
		Recommendation: fmt.Sprintf("Set an extra reminder or plan a lighter version of the habit for %ss.",
			worst.Weekday),
	}, true
}

func timeOfDayInsight(dist entity.TimeDistribution) (entity.Insight, bool) {
	if dist.Total == 0 || len(dist.PeakHours) == 0 {
		return entity.Insight{}, false
	}
	peak := dist.PeakHours[0]
	count := dist.Hours[peak]
	// Integer comparison keeps "exactly 30%" from tipping over the threshold.
	if count*100 <= dist.Total*peakHourThreshold {
		return entity.Insight{}, false
	}
	label := hourLabel(peak)
	return entity.Insight{
		Type: entity.InsightTimeOfDayPattern,
		Message: fmt.Sprintf("%s of your check-ins happen around %s.",
			formatPercent(percent(count, dist.Total)), label),
		Actionable:     true,
		Recommendation: fmt.Sprintf("Keep the habit anchored around %s, when you are most reliable.", label),
	}, true
}

func weekendInsight(stats [7]entity.DayOfWeekStats) (entity.Insight, bool) {
	weekend, weekday, ok := weekendAndWeekdayRates(stats)
	if !ok {
		return entity.Insight{}, false
	}
	diff := round2(weekend - weekday)
	if math.Abs(diff) <= weekendThreshold {
		return entity.Insight{}, false
	}
	if diff > 0 {
		return entity.Insight{
			Type: entity.InsightWeekendBehavior,
			Message: fmt.Sprintf("You're more consistent on weekends (%s) than on weekdays (%s).",
				formatPercent(weekend), formatPercent(weekday)),
			Actionable:     true,
			Recommendation: "Give the habit a fixed slot in your weekday routine, like you naturally do on weekends.",
		}, true
	}
	return entity.Insight{
		Type: entity.InsightWeekendBehavior,
		Message: fmt.Sprintf("You're more consistent on weekdays (%s) than on weekends (%s).",
			formatPercent(weekday), formatPercent(weekend)),
		Actionable:     true,
		Recommendation: "Weekends break the routine: pick a time on Saturday and Sunday and stick to it.",
	}, true
}

func hourLabel(hour int) string {
	return time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC).Format("3 PM")
}

func formatPercent(v float64) string {
	s := strconv.FormatFloat(round2(v), 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
