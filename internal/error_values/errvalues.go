package errorvalues

import (
	"errors"

	"github.com/limbo/discipline/pkg/entity"
)

var (
	ErrHabitNotFound       = errors.New("habit doesn't exist")
	ErrCheckNotFound       = errors.New("check-in doesn't exist")
	ErrDuplicateCheckIn    = errors.New("habit already checked in for this date")
	ErrProgressOutOfRange  = errors.New("progress value is out of the habit's accepted range")
	ErrProgressNotTracked  = errors.New("habit doesn't track progress")
	ErrInvalidAction       = errors.New("invalid mutation action")
	ErrNothingToUndo       = errors.New("no check-in to undo for this date")
	ErrInvalidDateKey      = entity.ErrInvalidDateKey
	ErrCheckDateNotAllowed = errors.New("check-in date is outside the habit's tracked period")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrUnavailable         = errors.New("store is unavailable")
	ErrStaleToken          = errors.New("mutation token is no longer pending")
)
