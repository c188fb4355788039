package entity

import (
	"errors"
	"time"
)

const DateKeyLayout = "2006-01-02"

var ErrInvalidDateKey = errors.New("date key must be in YYYY-MM-DD form")

// DateKey is a calendar date serialized as YYYY-MM-DD.
// All arithmetic on date keys is done on UTC midnights, so DST never shifts a day.
type DateKey string

func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", ErrInvalidDateKey
	}
	return DateKey(t.Format(DateKeyLayout)), nil
}

// DateKeyOf takes the calendar date of t in its own location.
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

func (k DateKey) String() string {
	return string(k)
}

func (k DateKey) Valid() bool {
	_, err := time.Parse(DateKeyLayout, string(k))
	return err == nil
}

// Time returns UTC midnight of the date.
func (k DateKey) Time() (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, string(k))
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

// AddDays shifts the key by n calendar days. Invalid keys are returned unchanged.
func (k DateKey) AddDays(n int) DateKey {
	t, err := k.Time()
	if err != nil {
		return k
	}
	return DateKeyOf(t.AddDate(0, 0, n))
}

func (k DateKey) Weekday() (time.Weekday, error) {
	t, err := k.Time()
	if err != nil {
		return time.Sunday, err
	}
	return t.Weekday(), nil
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b DateKey) (int, error) {
	ta, err := a.Time()
	if err != nil {
		return 0, err
	}
	tb, err := b.Time()
	if err != nil {
		return 0, err
	}
	return int((tb.Unix() - ta.Unix()) / secondsPerDay), nil
}

// DateRange is an inclusive range of date keys. Empty bounds are open.
type DateRange struct {
	From DateKey
	To   DateKey
}

func (r DateRange) Contains(k DateKey) bool {
	// YYYY-MM-DD compares lexicographically in calendar order.
	if r.From != "" && k < r.From {
		return false
	}
	if r.To != "" && k > r.To {
		return false
	}
	return true
}
