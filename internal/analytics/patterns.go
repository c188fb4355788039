package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/limbo/discipline/pkg/entity"
)

const peakHoursLimit = 3

// historySpan returns the first and last valid date keys and the number of
// distinct days that carry any record at all.
func historySpan(checkIns []entity.CheckIn) (first, last entity.DateKey, distinct int) {
	seen := make(map[entity.DateKey]struct{}, len(checkIns))
	for _, c := range checkIns {
		if !c.DateKey.Valid() {
			continue
		}
		if _, ok := seen[c.DateKey]; ok {
			continue
		}
		seen[c.DateKey] = struct{}{}
		if first == "" || c.DateKey < first {
			first = c.DateKey
		}
		if last == "" || c.DateKey > last {
			last = c.DateKey
		}
	}
	return first, last, len(seen)
}

// DayOfWeek computes per-weekday completion over the calendar span of the
// history. Only days the schedule includes are counted, so a weekday the habit
// never runs on has Scheduled == 0. The result is indexed by time.Weekday.
func DayOfWeek(checkIns []entity.CheckIn, schedule entity.Schedule) [7]entity.DayOfWeekStats {
	var stats [7]entity.DayOfWeekStats
	for d := time.Sunday; d <= time.Saturday; d++ {
		stats[d].Weekday = d
	}
	first, last, _ := historySpan(checkIns)
	if first == "" {
		return stats
	}
	done := doneKeys(checkIns)
	start, _ := first.Time()
	end, _ := last.Time()
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		wd := day.Weekday()
		if !schedule.Includes(wd) {
			continue
		}
		stats[wd].Scheduled++
		if _, ok := done[entity.DateKeyOf(day)]; ok {
			stats[wd].Completed++
		}
	}
	for i := range stats {
		stats[i].CompletionRate = percent(stats[i].Completed, stats[i].Scheduled)
	}
	return stats
}

// HourDistribution buckets done check-ins by the hour of their completion
// timestamp. Records without a timestamp are ignored.
func HourDistribution(checkIns []entity.CheckIn) entity.TimeDistribution {
	var dist entity.TimeDistribution
	for _, c := range checkIns {
		if c.Status != entity.StatusDone || c.CompletedAt.IsZero() {
			continue
		}
		dist.Hours[c.CompletedAt.Hour()]++
		dist.Total++
	}
	hours := make([]int, 0, 24)
	for h, n := range dist.Hours {
		if n > 0 {
			hours = append(hours, h)
		}
	}
	slices.SortStableFunc(hours, func(a, b int) int {
		return cmp.Compare(dist.Hours[b], dist.Hours[a])
	})
	if len(hours) > peakHoursLimit {
		hours = hours[:peakHoursLimit]
	}
	dist.PeakHours = hours
	return dist
}

// mondayFirst is the order used to break ties between weekdays.
var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// bestAndWorst picks the weekdays with the highest and lowest completion rate
// among those with at least one scheduled day.
func bestAndWorst(stats [7]entity.DayOfWeekStats) (best, worst entity.DayOfWeekStats, ok bool) {
	found := 0
	for _, wd := range mondayFirst {
		s := stats[wd]
		if s.Scheduled == 0 {
			continue
		}
		if found == 0 || s.CompletionRate > best.CompletionRate {
			best = s
		}
		if found == 0 || s.CompletionRate < worst.CompletionRate {
			worst = s
		}
		found++
	}
	return best, worst, found >= 2
}

// weekendAndWeekdayRates averages per-weekday rates for Sat+Sun and Mon-Fri.
func weekendAndWeekdayRates(stats [7]entity.DayOfWeekStats) (weekend, weekday float64, ok bool) {
	var weekendSum, weekdaySum float64
	var weekendN, weekdayN int
	for _, s := range stats {
		if s.Scheduled == 0 {
			continue
		}
		if s.Weekday == time.Saturday || s.Weekday == time.Sunday {
			weekendSum += s.CompletionRate
			weekendN++
			continue
		}
		weekdaySum += s.CompletionRate
		weekdayN++
	}
	if weekendN == 0 || weekdayN == 0 {
		return 0, 0, false
	}
	return round2(weekendSum / float64(weekendN)), round2(weekdaySum / float64(weekdayN)), true
}
