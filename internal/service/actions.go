package service

import (
	"math"
	"time"

	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

const (
	// MaxTimeProgress is the number of minutes in a day.
	MaxTimeProgress  = 1440.0
	MaxCountProgress = 100000.0
)

// targetDate resolves the action's date key against today and checks that it
// lies within [habit start, today].
func targetDate(a Action, habit entity.Habit, now time.Time) (entity.DateKey, error) {
	today := entity.DateKeyOf(now)
	date := a.DateKey
	if date == "" {
		date = today
	}
	if !date.Valid() {
		return "", errorvalues.ErrInvalidDateKey
	}
	if date > today {
		return "", errorvalues.ErrCheckDateNotAllowed
	}
	if habit.StartDate.Valid() && date < habit.StartDate {
		return "", errorvalues.ErrCheckDateNotAllowed
	}
	return date, nil
}

// applyAction returns the record that date should hold after the action; nil
// means the record is removed. It never touches the log.
func applyAction(a Action, habit entity.Habit, log entity.CheckInLog, date entity.DateKey, now time.Time) (*entity.CheckIn, error) {
	existing, has := log[date]
	now = entity.CompletionTime(now)
	switch a.Type {
	case ActionCheckIn:
		if has && existing.Status == entity.StatusDone {
			return nil, errorvalues.ErrDuplicateCheckIn
		}
		rec := entity.CheckIn{HabitID: habit.ID, DateKey: date, Status: entity.StatusDone, CompletedAt: now}
		if has {
			rec.Progress, rec.TargetReached = existing.Progress, existing.TargetReached
		}
		return &rec, nil
	case ActionUndo:
		if !has {
			return nil, errorvalues.ErrNothingToUndo
		}
		return nil, nil
	case ActionToggleStatus:
		next := entity.NextStatus(log.StatusOf(date))
		if next == entity.StatusSkipped {
			return nil, nil
		}
		rec := entity.CheckIn{HabitID: habit.ID, DateKey: date, Status: next, CompletedAt: now}
		if has {
			rec.Progress, rec.TargetReached = existing.Progress, existing.TargetReached
		}
		return &rec, nil
	case ActionUpdateProgress:
		return progressRecord(a, habit, date, now)
	default:
		return nil, errorvalues.ErrInvalidAction
	}
}

func progressRecord(a Action, habit entity.Habit, date entity.DateKey, now time.Time) (*entity.CheckIn, error) {
	var limit float64
	switch habit.Mode() {
	case entity.TrackingCount:
		limit = MaxCountProgress
	case entity.TrackingTime:
		limit = MaxTimeProgress
	default:
		return nil, errorvalues.ErrProgressNotTracked
	}
	if a.Value == nil {
		return nil, errorvalues.ErrInvalidAction
	}
	value := *a.Value
	if math.IsNaN(value) || value < 0 || value > limit {
		return nil, errorvalues.ErrProgressOutOfRange
	}
	reached := value > 0
	if habit.Target != nil {
		reached = value >= *habit.Target
	}
	status := entity.StatusNotDone
	if reached {
		status = entity.StatusDone
	}
	return &entity.CheckIn{
		HabitID:       habit.ID,
		DateKey:       date,
		Status:        status,
		CompletedAt:   now,
		Progress:      &value,
		TargetReached: reached,
	}, nil
}
