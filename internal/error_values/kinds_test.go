package errorvalues_test

import (
	"context"
	"errors"
	"testing"

	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		Desc      string
		Error     error
		Kind      errorvalues.Kind
		Retryable bool
	}{
		{Desc: "duplicate", Error: errorvalues.ErrDuplicateCheckIn, Kind: errorvalues.KindValidation},
		{Desc: "wrapped range error", Error: errors.Join(errors.New("update-progress"), errorvalues.ErrProgressOutOfRange), Kind: errorvalues.KindValidation},
		{Desc: "nothing to undo", Error: errorvalues.ErrNothingToUndo, Kind: errorvalues.KindValidation},
		{Desc: "permission", Error: errorvalues.ErrPermissionDenied, Kind: errorvalues.KindAuthorization},
		{Desc: "offline", Error: errorvalues.ErrUnavailable, Kind: errorvalues.KindAvailability, Retryable: true},
		{Desc: "deadline", Error: context.DeadlineExceeded, Kind: errorvalues.KindAvailability, Retryable: true},
		{Desc: "cancelled", Error: context.Canceled, Kind: errorvalues.KindUnknown},
		{Desc: "missing habit", Error: errorvalues.ErrHabitNotFound, Kind: errorvalues.KindNotFound},
		{Desc: "unknown", Error: errors.New("driver exploded"), Kind: errorvalues.KindUnknown, Retryable: true},
		{
			Desc:  "mutation error keeps its kind",
			Error: &errorvalues.MutationError{Kind: errorvalues.KindAuthorization, Err: errors.New("row level security")},
			Kind:  errorvalues.KindAuthorization,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Kind, errorvalues.Classify(tc.Error))
			assert.Equal(t, tc.Retryable, errorvalues.Retryable(tc.Error))
		})
	}
}

func TestMutationErrorMessages(t *testing.T) {
	testCases := []struct {
		Desc    string
		Error   *errorvalues.MutationError
		Message string
	}{
		{
			Desc:    "validation is shown verbatim",
			Error:   &errorvalues.MutationError{Kind: errorvalues.KindValidation, Err: errorvalues.ErrDuplicateCheckIn},
			Message: "habit already checked in for this date",
		},
		{
			Desc:    "queued offline write",
			Error:   &errorvalues.MutationError{Kind: errorvalues.KindAvailability, Err: errorvalues.ErrUnavailable, Queued: true},
			Message: "You're offline. Your check-in will sync when online.",
		},
		{
			Desc:    "unknown failure",
			Error:   &errorvalues.MutationError{Kind: errorvalues.KindUnknown, Err: errors.New("boom"), RolledBack: true},
			Message: "Something went wrong while saving your check-in. Please try again.",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Message, tc.Error.UserMessage())
			assert.ErrorIs(t, tc.Error, tc.Error.Err)
		})
	}
}
