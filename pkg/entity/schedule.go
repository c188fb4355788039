package entity

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

var ErrInvalidSchedule = errors.New("schedule must be \"daily\" or a list of weekday names")

type scheduleKind int

const (
	scheduleDaily scheduleKind = iota
	scheduleSpecificDays
)

// Schedule is either Daily or SpecificDays(set of weekdays).
// The zero value is Daily.
type Schedule struct {
	kind scheduleKind
	days [7]bool
}

func Daily() Schedule {
	return Schedule{kind: scheduleDaily}
}

func SpecificDays(days ...time.Weekday) Schedule {
	s := Schedule{kind: scheduleSpecificDays}
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s.days[d] = true
		}
	}
	return s
}

func (s Schedule) IsDaily() bool {
	return s.kind == scheduleDaily
}

// Days lists the scheduled weekdays, Sunday first. Daily lists all seven.
func (s Schedule) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Includes(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s Schedule) Includes(d time.Weekday) bool {
	switch s.kind {
	case scheduleDaily:
		return true
	case scheduleSpecificDays:
		return d >= time.Sunday && d <= time.Saturday && s.days[d]
	default:
		return false
	}
}

// IsScheduled reports whether the habit is active on the given date.
// Invalid date keys are never scheduled.
func (s Schedule) IsScheduled(date DateKey) bool {
	wd, err := date.Weekday()
	if err != nil {
		return false
	}
	return s.Includes(wd)
}

// String renders "daily" or comma separated lowercase weekday names.
func (s Schedule) String() string {
	if s.kind == scheduleDaily {
		return "daily"
	}
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()))
	}
	return strings.Join(names, ",")
}

// ParseSchedule accepts "daily" or comma separated weekday names (any case).
func ParseSchedule(s string) (Schedule, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "daily") {
		return Daily(), nil
	}
	if s == "" {
		return Schedule{}, ErrInvalidSchedule
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		d, ok := ParseWeekday(p)
		if !ok {
			return Schedule{}, ErrInvalidSchedule
		}
		days = append(days, d)
	}
	return SpecificDays(days...), nil
}

func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, true
		}
	}
	return time.Sunday, false
}

// MarshalJSON encodes Daily as "daily" and SpecificDays as an array of weekday names.
func (s Schedule) MarshalJSON() ([]byte, error) {
	if s.kind == scheduleDaily {
		return sonic.Marshal("daily")
	}
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()))
	}
	return sonic.Marshal(names)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		parsed, err := ParseSchedule(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var names []string
	if err := sonic.Unmarshal(data, &names); err != nil {
		return ErrInvalidSchedule
	}
	if len(names) == 0 {
		return ErrInvalidSchedule
	}
	days := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		d, ok := ParseWeekday(n)
		if !ok {
			return ErrInvalidSchedule
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	*s = SpecificDays(days...)
	return nil
}
