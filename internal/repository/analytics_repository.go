package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

// AnalyticsRepository keeps a denormalized summary per habit so list views
// don't need the whole history.
type AnalyticsRepository struct {
	conn PgConnection
}

func NewAnalyticsRepoWithConn(conn PgConnection) *AnalyticsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for analyticsRepo: " + err.Error())
	}
	return &AnalyticsRepository{
		conn: conn,
	}
}

func (ar *AnalyticsRepository) Save(ctx context.Context, habitID uuid.UUID, a entity.Analytics) error {
	_, err := ar.conn.Exec(
		ctx,
		`INSERT INTO habit_analytics (habit_id, current_streak, longest_streak, completion_rate, total_days, completed_days, last_calculated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (habit_id) DO UPDATE SET current_streak = EXCLUDED.current_streak, longest_streak = EXCLUDED.longest_streak,
		completion_rate = EXCLUDED.completion_rate, total_days = EXCLUDED.total_days,
		completed_days = EXCLUDED.completed_days, last_calculated = EXCLUDED.last_calculated;`,
		habitID,
		a.CurrentStreak,
		a.LongestStreak,
		a.CompletionRate,
		a.TotalDays,
		a.CompletedDays,
		a.LastCalculated,
	)
	if err != nil {
		return storeError("saving analytics", err)
	}
	return nil
}

func (ar *AnalyticsRepository) Get(ctx context.Context, habitID uuid.UUID) (*entity.Analytics, error) {
	var a entity.Analytics
	row := ar.conn.QueryRow(ctx,
		`SELECT current_streak, longest_streak, completion_rate, total_days, completed_days, last_calculated
		FROM habit_analytics WHERE habit_id = $1;`, habitID)
	err := row.Scan(&a.CurrentStreak, &a.LongestStreak, &a.CompletionRate, &a.TotalDays, &a.CompletedDays, &a.LastCalculated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, storeError("getting analytics", err)
	}
	a.LastCalculated = a.LastCalculated.UTC()
	return &a, nil
}
