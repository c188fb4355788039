package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/internal/repository"
	"github.com/limbo/discipline/pkg/entity"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUpsertCheckIn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewCheckInsRepoWithConn(mock)
	query := regexp.QuoteMeta(`INSERT INTO check_ins (habit_id, date_key, status, completed_at, progress, target_reached)`)
	checkIn := entity.CheckIn{
		HabitID:       uuid.New(),
		DateKey:       "2024-11-08",
		Status:        entity.StatusDone,
		CompletedAt:   time.Date(2024, 11, 8, 7, 30, 0, 0, time.UTC),
		Progress:      ptr(12.0),
		TargetReached: true,
	}
	args := []any{checkIn.HabitID, "2024-11-08", "done", checkIn.CompletedAt, checkIn.Progress, true}
	testCases := []struct {
		Desc            string
		Error           error
		MockPrepareFunc func()
	}{
		{
			Desc:  "successful",
			Error: nil,
			MockPrepareFunc: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			Desc:  "fk violation",
			Error: errorvalues.ErrHabitNotFound,
			MockPrepareFunc: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "23503"})
			},
		},
		{
			Desc:  "insufficient privilege",
			Error: errorvalues.ErrPermissionDenied,
			MockPrepareFunc: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "42501"})
			},
		},
		{
			Desc:  "connection failure",
			Error: errorvalues.ErrUnavailable,
			MockPrepareFunc: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "08006"})
			},
		},
		{
			Desc:  "server shutting down",
			Error: errorvalues.ErrUnavailable,
			MockPrepareFunc: func() {
				mock.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{Code: "57P01"})
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepareFunc()
			err := repo.Upsert(ctx, checkIn)
			assert.ErrorIs(t, err, tc.Error)
		})
	}
	t.Run("db error", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(args...).WillReturnError(errors.New("db error"))
		err := repo.Upsert(ctx, checkIn)
		assert.EqualError(t, err, "upserting check-in error: db error")
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCheckIn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewCheckInsRepoWithConn(mock)
	query := regexp.QuoteMeta(`DELETE FROM check_ins WHERE habit_id = $1 AND date_key = $2;`)
	habitID := uuid.New()
	date := entity.DateKey("2024-11-08")
	testCases := []struct {
		Desc         string
		Error        error
		MockPrepFunc func()
	}{
		{
			Desc:  "successful",
			Error: nil,
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(habitID, "2024-11-08").WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			Desc:  "check-in not found",
			Error: errorvalues.ErrCheckNotFound,
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(habitID, "2024-11-08").WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
		},
		{
			Desc:  "context deadline",
			Error: context.DeadlineExceeded,
			MockPrepFunc: func() {
				mock.ExpectExec(query).WithArgs(habitID, "2024-11-08").WillReturnError(context.DeadlineExceeded)
			},
		},
	}
	ctx := context.Background()
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			tc.MockPrepFunc()
			err := repo.Delete(ctx, habitID, date)
			assert.ErrorIs(t, err, tc.Error)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCheckInsByHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := repository.NewCheckInsRepoWithConn(mock)
	query := regexp.QuoteMeta(`SELECT date_key, status, completed_at, progress, target_reached FROM check_ins`)
	habitID := uuid.New()
	at := time.Date(2024, 11, 8, 7, 0, 0, 0, time.UTC)
	columns := []string{"date_key", "status", "completed_at", "progress", "target_reached"}
	ctx := context.Background()

	t.Run("whole history", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(habitID, "", "").WillReturnRows(
			pgxmock.NewRows(columns).
				AddRow("2024-11-07", "not_done", at.Add(-24*time.Hour), ptr(3.0), false).
				AddRow("2024-11-08", "done", at, ptr(10.0), true),
		)
		result, err := repo.GetByHabit(ctx, habitID, nil)
		require.NoError(t, err)
		assert.Equal(t, []entity.CheckIn{
			{HabitID: habitID, DateKey: "2024-11-07", Status: entity.StatusNotDone, CompletedAt: at.Add(-24 * time.Hour), Progress: ptr(3.0)},
			{HabitID: habitID, DateKey: "2024-11-08", Status: entity.StatusDone, CompletedAt: at, Progress: ptr(10.0), TargetReached: true},
		}, result)
	})
	t.Run("bounded period", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(habitID, "2024-11-01", "2024-11-30").WillReturnRows(pgxmock.NewRows(columns))
		result, err := repo.GetByHabit(ctx, habitID, &entity.DateRange{From: "2024-11-01", To: "2024-11-30"})
		require.NoError(t, err)
		assert.Empty(t, result)
	})
	t.Run("connection refused", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(habitID, "", "").WillReturnError(&pgconn.PgError{Code: "08001"})
		_, err := repo.GetByHabit(ctx, habitID, nil)
		assert.ErrorIs(t, err, errorvalues.ErrUnavailable)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
