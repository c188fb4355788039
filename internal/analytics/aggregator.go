package analytics

import (
	"time"

	"github.com/limbo/discipline/pkg/entity"
)

// CalculateAnalytics builds the full summary for one habit. An empty ref means
// "today" as seen from now. The result depends only on the arguments.
func CalculateAnalytics(checkIns []entity.CheckIn, start, ref entity.DateKey, now time.Time) entity.Analytics {
	if ref == "" {
		ref = entity.DateKeyOf(now)
	}
	return entity.Analytics{
		CurrentStreak:  CurrentStreak(checkIns, ref),
		LongestStreak:  LongestStreak(checkIns),
		CompletionRate: CompletionRate(checkIns, start, ref),
		TotalDays:      InclusiveDayCount(start, ref),
		CompletedDays:  len(doneKeys(checkIns)),
		LastCalculated: now,
	}
}

// CalculateForLog is CalculateAnalytics over a check-in log.
func CalculateForLog(log entity.CheckInLog, start, ref entity.DateKey, now time.Time) entity.Analytics {
	return CalculateAnalytics(log.Slice(), start, ref, now)
}
