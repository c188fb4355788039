package analytics_test

import (
	"testing"
	"time"

	"github.com/limbo/discipline/internal/analytics"
	"github.com/limbo/discipline/pkg/entity"
	"github.com/stretchr/testify/assert"
)

func done(keys ...string) []entity.CheckIn {
	out := make([]entity.CheckIn, 0, len(keys))
	for _, k := range keys {
		out = append(out, entity.CheckIn{DateKey: entity.DateKey(k), Status: entity.StatusDone})
	}
	return out
}

func notDone(keys ...string) []entity.CheckIn {
	out := make([]entity.CheckIn, 0, len(keys))
	for _, k := range keys {
		out = append(out, entity.CheckIn{DateKey: entity.DateKey(k), Status: entity.StatusNotDone})
	}
	return out
}

// consecutive returns n date keys ending at last, oldest first.
func consecutive(last string, n int) []string {
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, entity.DateKey(last).AddDays(-i).String())
	}
	return out
}

func TestCurrentStreak(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Desc     string
		CheckIns []entity.CheckIn
		Ref      entity.DateKey
		Result   int
	}{
		{
			Desc:     "empty log",
			CheckIns: nil,
			Ref:      "2024-11-08",
			Result:   0,
		},
		{
			Desc:     "every day up to reference",
			CheckIns: done(consecutive("2024-11-08", 5)...),
			Ref:      "2024-11-08",
			Result:   5,
		},
		{
			Desc:     "reference day missing",
			CheckIns: done(consecutive("2024-11-07", 10)...),
			Ref:      "2024-11-08",
			Result:   0,
		},
		{
			Desc:     "stops at first gap",
			CheckIns: done("2024-11-01", "2024-11-02", "2024-11-04", "2024-11-05"),
			Ref:      "2024-11-05",
			Result:   2,
		},
		{
			Desc:     "not done breaks the streak",
			CheckIns: append(done("2024-11-01", "2024-11-03"), notDone("2024-11-02")...),
			Ref:      "2024-11-03",
			Result:   1,
		},
		{
			Desc:     "reference day not done",
			CheckIns: append(done("2024-11-01", "2024-11-02"), notDone("2024-11-03")...),
			Ref:      "2024-11-03",
			Result:   0,
		},
		{
			Desc:     "crosses month and year boundaries",
			CheckIns: done("2023-12-30", "2023-12-31", "2024-01-01"),
			Ref:      "2024-01-01",
			Result:   3,
		},
		{
			Desc:     "duplicate records count once",
			CheckIns: done("2024-11-07", "2024-11-08", "2024-11-08"),
			Ref:      "2024-11-08",
			Result:   2,
		},
		{
			Desc:     "invalid reference",
			CheckIns: done("2024-11-08"),
			Ref:      "08/11/2024",
			Result:   0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Result, analytics.CurrentStreak(tc.CheckIns, tc.Ref))
		})
	}
}

func TestCurrentStreakMatchesWindowLength(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 40; n++ {
		checkIns := done(consecutive("2024-03-10", n)...)
		assert.Equal(t, n, analytics.CurrentStreak(checkIns, "2024-03-10"), "window of %d days", n)
	}
}

func TestLongestStreak(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Desc     string
		CheckIns []entity.CheckIn
		Result   int
	}{
		{
			Desc:     "empty log",
			CheckIns: nil,
			Result:   0,
		},
		{
			Desc:     "single done day",
			CheckIns: done("2024-11-01"),
			Result:   1,
		},
		{
			Desc:     "longest run after a gap",
			CheckIns: done("2024-11-01", "2024-11-02", "2024-11-03", "2024-11-05", "2024-11-06", "2024-11-07", "2024-11-08"),
			Result:   4,
		},
		{
			Desc:     "every other day",
			CheckIns: done("2024-11-01", "2024-11-03", "2024-11-05", "2024-11-07"),
			Result:   1,
		},
		{
			Desc:     "unordered input",
			CheckIns: done("2024-11-08", "2024-11-06", "2024-11-07", "2024-11-01"),
			Result:   3,
		},
		{
			Desc:     "only not done records",
			CheckIns: notDone("2024-11-01", "2024-11-02"),
			Result:   0,
		},
		{
			Desc:     "leap day",
			CheckIns: done("2024-02-28", "2024-02-29", "2024-03-01"),
			Result:   3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Result, analytics.LongestStreak(tc.CheckIns))
		})
	}
}

func TestCompletionRate(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Desc     string
		CheckIns []entity.CheckIn
		Start    entity.DateKey
		End      entity.DateKey
		Result   float64
	}{
		{
			Desc:     "three of ten",
			CheckIns: done("2024-11-01", "2024-11-04", "2024-11-10"),
			Start:    "2024-11-01",
			End:      "2024-11-10",
			Result:   30,
		},
		{
			Desc:     "one of three rounds to two decimals",
			CheckIns: done("2024-11-02"),
			Start:    "2024-11-01",
			End:      "2024-11-03",
			Result:   33.33,
		},
		{
			Desc:     "two of three",
			CheckIns: done("2024-11-02", "2024-11-03"),
			Start:    "2024-11-01",
			End:      "2024-11-03",
			Result:   66.67,
		},
		{
			Desc:     "none completed",
			CheckIns: notDone("2024-11-01", "2024-11-02"),
			Start:    "2024-11-01",
			End:      "2024-11-07",
			Result:   0,
		},
		{
			Desc:     "all completed",
			CheckIns: done(consecutive("2024-11-07", 7)...),
			Start:    "2024-11-01",
			End:      "2024-11-07",
			Result:   100,
		},
		{
			Desc:     "days outside the range are ignored",
			CheckIns: done("2024-10-31", "2024-11-01", "2024-11-05"),
			Start:    "2024-11-01",
			End:      "2024-11-04",
			Result:   25,
		},
		{
			Desc:     "start after end",
			CheckIns: done("2024-11-01"),
			Start:    "2024-11-05",
			End:      "2024-11-01",
			Result:   0,
		},
		{
			Desc:     "range of several centuries",
			CheckIns: done(consecutive("2024-11-08", 1554)...),
			Start:    "1600-01-01",
			End:      "2024-11-08",
			Result:   1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Result, analytics.CompletionRate(tc.CheckIns, tc.Start, tc.End))
		})
	}
}

func TestInclusiveDayCount(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		Desc   string
		From   entity.DateKey
		To     entity.DateKey
		Result int
	}{
		{Desc: "same day", From: "2024-11-08", To: "2024-11-08", Result: 1},
		{Desc: "across a leap day", From: "2024-02-28", To: "2024-03-01", Result: 3},
		{Desc: "several centuries", From: "1600-01-01", To: "2024-11-08", Result: 155176},
		{Desc: "whole calendar", From: "0001-01-01", To: "9999-12-31", Result: 3652059},
		{Desc: "reversed", From: "2024-11-08", To: "2024-11-07", Result: 0},
		{Desc: "invalid key", From: "2024-13-01", To: "2024-11-07", Result: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Result, analytics.InclusiveDayCount(tc.From, tc.To))
		})
	}
}

func TestCompletionRateAllDaysIsExactlyHundred(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 400; n++ {
		keys := consecutive("2025-06-30", n)
		rate := analytics.CompletionRate(done(keys...), entity.DateKey(keys[0]), "2025-06-30")
		assert.Equal(t, 100.0, rate, "range of %d days", n)
	}
}

func TestCalculateAnalytics(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, time.November, 8, 21, 30, 0, 0, time.UTC)
	checkIns := append(
		done("2024-11-01", "2024-11-02", "2024-11-03", "2024-11-06", "2024-11-07", "2024-11-08"),
		notDone("2024-11-04", "2024-11-05")...,
	)

	t.Run("explicit reference", func(t *testing.T) {
		a := analytics.CalculateAnalytics(checkIns, "2024-11-01", "2024-11-08", now)
		assert.Equal(t, entity.Analytics{
			CurrentStreak:  3,
			LongestStreak:  3,
			CompletionRate: 75,
			TotalDays:      8,
			CompletedDays:  6,
			LastCalculated: now,
		}, a)
	})
	t.Run("reference defaults to today", func(t *testing.T) {
		a := analytics.CalculateAnalytics(checkIns, "2024-11-01", "", now)
		assert.Equal(t, 3, a.CurrentStreak)
		assert.Equal(t, 8, a.TotalDays)
	})
	t.Run("same input same output", func(t *testing.T) {
		a := analytics.CalculateAnalytics(checkIns, "2024-11-01", "2024-11-08", now)
		b := analytics.CalculateAnalytics(checkIns, "2024-11-01", "2024-11-08", now)
		assert.Equal(t, a, b)
	})
	t.Run("empty log", func(t *testing.T) {
		a := analytics.CalculateAnalytics(nil, "2024-11-01", "2024-11-08", now)
		assert.Equal(t, 0, a.CurrentStreak)
		assert.Equal(t, 0, a.LongestStreak)
		assert.Equal(t, 0.0, a.CompletionRate)
		assert.Equal(t, 8, a.TotalDays)
	})
	t.Run("log form", func(t *testing.T) {
		a := analytics.CalculateForLog(entity.NewCheckInLog(checkIns), "2024-11-01", "2024-11-08", now)
		assert.Equal(t, analytics.CalculateAnalytics(checkIns, "2024-11-01", "2024-11-08", now), a)
	})
}
