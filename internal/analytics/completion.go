package analytics

import (
	"math"

	"github.com/limbo/discipline/pkg/entity"
)

// InclusiveDayCount is the number of calendar days in [from, to]; 0 when to
// precedes from or either key is invalid.
func InclusiveDayCount(from, to entity.DateKey) int {
	diff, err := entity.DaysBetween(from, to)
	if err != nil || diff < 0 {
		return 0
	}
	return diff + 1
}

// CompletionRate is the share of days in [start, end] with a done record,
// as a percentage rounded to two decimals.
func CompletionRate(checkIns []entity.CheckIn, start, end entity.DateKey) float64 {
	total := InclusiveDayCount(start, end)
	if total == 0 {
		return 0
	}
	rng := entity.DateRange{From: start, To: end}
	completed := 0
	for k := range doneKeys(checkIns) {
		if rng.Contains(k) {
			completed++
		}
	}
	return percent(completed, total)
}

// percent computes part/whole*100 rounded to two decimals. Multiplying before
// dividing keeps whole results exact, so N/N is 100 and not 99.99.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part*100) / float64(whole))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
