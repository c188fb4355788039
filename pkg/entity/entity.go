package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrStartDateImmutable = errors.New("habit start date is already set")

type TrackingMode string

const (
	TrackingSimple TrackingMode = "simple"
	TrackingCount  TrackingMode = "count"
	TrackingTime   TrackingMode = "time"
)

type Habit struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Schedule     Schedule     `json:"schedule"`
	TrackingMode TrackingMode `json:"tracking_mode,omitempty"`
	Target       *float64     `json:"target,omitempty"`
	Unit         string       `json:"unit,omitempty"`
	StartDate    DateKey      `json:"start_date"`
	Active       bool         `json:"active"`
}

// Mode treats an unset tracking mode as simple.
func (h *Habit) Mode() TrackingMode {
	if h.TrackingMode == "" {
		return TrackingSimple
	}
	return h.TrackingMode
}

// WithStartDate sets the start date once. Re-setting the same value is a no-op.
func (h *Habit) WithStartDate(date DateKey) error {
	if h.StartDate != "" && h.StartDate != date {
		return ErrStartDateImmutable
	}
	if !date.Valid() {
		return ErrInvalidDateKey
	}
	h.StartDate = date
	return nil
}

type CheckIn struct {
	HabitID       uuid.UUID `json:"habit_id"`
	DateKey       DateKey   `json:"date"`
	Status        Status    `json:"status"`
	CompletedAt   time.Time `json:"completed_at"`
	Progress      *float64  `json:"progress,omitempty"`
	TargetReached bool      `json:"target_reached,omitempty"`
}

// CompletionTime normalises a completion timestamp. Records built locally and
// records read from the store must bucket into the same hour.
func CompletionTime(t time.Time) time.Time {
	return t.UTC()
}

type Analytics struct {
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	CompletionRate float64   `json:"completion_rate"`
	TotalDays      int       `json:"total_days"`
	CompletedDays  int       `json:"completed_days"`
	LastCalculated time.Time `json:"last_calculated"`
}

type InsightType string

const (
	InsightDayOfWeekPattern InsightType = "day-of-week-pattern"
	InsightTimeOfDayPattern InsightType = "time-of-day-pattern"
	InsightWeekendBehavior  InsightType = "weekend-behavior"
)

type Insight struct {
	Type           InsightType `json:"type"`
	Message        string      `json:"message"`
	Actionable     bool        `json:"actionable"`
	Recommendation string      `json:"recommendation,omitempty"`
}

type DayOfWeekStats struct {
	Weekday        time.Weekday `json:"weekday"`
	Scheduled      int          `json:"scheduled"`
	Completed      int          `json:"completed"`
	CompletionRate float64      `json:"completion_rate"`
}

type TimeDistribution struct {
	Hours     [24]int `json:"hours"`
	Total     int     `json:"total"`
	PeakHours []int   `json:"peak_hours"`
}
