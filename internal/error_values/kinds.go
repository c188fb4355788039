package errorvalues

import (
	"context"
	"errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindAvailability
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindAvailability:
		return "availability"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Classify maps an error from the store or from local validation to its kind.
func Classify(err error) Kind {
	var mErr *MutationError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &mErr):
		return mErr.Kind
	case errors.Is(err, ErrDuplicateCheckIn),
		errors.Is(err, ErrProgressOutOfRange),
		errors.Is(err, ErrProgressNotTracked),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrInvalidDateKey),
		errors.Is(err, ErrCheckDateNotAllowed):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied):
		return KindAuthorization
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindAvailability
	case errors.Is(err, ErrHabitNotFound), errors.Is(err, ErrCheckNotFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}

// Retryable reports whether a failed remote write is worth another attempt.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	k := Classify(err)
	return k == KindAvailability || k == KindUnknown
}

// MutationError is what the coordinator surfaces for a failed mutation.
type MutationError struct {
	Kind       Kind
	Err        error
	RolledBack bool
	// Queued is set when the write was kept locally and will sync later.
	Queued bool
}

func (e *MutationError) Error() string {
	return e.Kind.String() + " error: " + e.Err.Error()
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user for this failure.
func (e *MutationError) UserMessage() string {
	switch e.Kind {
	case KindValidation, KindAuthorization, KindNotFound:
		return e.Err.Error()
	case KindAvailability:
		if e.Queued {
			return "You're offline. Your check-in will sync when online."
		}
		return "You're offline and the change couldn't be saved. Try again once you're back online."
	default:
		return "Something went wrong while saving your check-in. Please try again."
	}
}
