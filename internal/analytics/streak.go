// Package analytics turns a habit's check-in history into streaks, completion
// rates and behavioral insights. Every function here is pure and total: it never
// touches storage and returns a defined result for empty or malformed input.
package analytics

import (
	"slices"

	"github.com/limbo/discipline/pkg/entity"
)

// doneKeys collects the distinct, valid date keys that carry a done record.
func doneKeys(checkIns []entity.CheckIn) map[entity.DateKey]struct{} {
	keys := make(map[entity.DateKey]struct{}, len(checkIns))
	for _, c := range checkIns {
		if c.Status != entity.StatusDone || !c.DateKey.Valid() {
			continue
		}
		keys[c.DateKey] = struct{}{}
	}
	return keys
}

// CurrentStreak counts consecutive done days walking back from ref.
// It is 0 when ref itself has no done record.
func CurrentStreak(checkIns []entity.CheckIn, ref entity.DateKey) int {
	if len(checkIns) == 0 || !ref.Valid() {
		return 0
	}
	done := doneKeys(checkIns)
	streak := 0
	for day := ref; ; day = day.AddDays(-1) {
		if _, ok := done[day]; !ok {
			return streak
		}
		streak++
	}
}

// LongestStreak is the longest run of calendar-consecutive done days.
func LongestStreak(checkIns []entity.CheckIn) int {
	done := doneKeys(checkIns)
	if len(done) == 0 {
		return 0
	}
	keys := make([]entity.DateKey, 0, len(done))
	for k := range done {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	longest, run := 1, 1
	for i := 1; i < len(keys); i++ {
		if keys[i-1].AddDays(1) == keys[i] {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}
