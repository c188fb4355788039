package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

type CheckInsRepository struct {
	conn PgConnection
}

func NewCheckInsRepoWithConn(conn PgConnection) *CheckInsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for checkInsRepo: " + err.Error())
	}
	return &CheckInsRepository{
		conn: conn,
	}
}

func (cr *CheckInsRepository) GetByHabit(ctx context.Context, habitID uuid.UUID, period *entity.DateRange) ([]entity.CheckIn, error) {
	var from, to string
	if period != nil {
		from, to = period.From.String(), period.To.String()
	}
	rows, err := cr.conn.Query(
		ctx,
		`SELECT date_key, status, completed_at, progress, target_reached FROM check_ins
		WHERE habit_id = $1 AND ($2 = '' OR date_key >= $2) AND ($3 = '' OR date_key <= $3) ORDER BY date_key;`,
		habitID,
		from,
		to,
	)
	if err != nil {
		return nil, storeError("getting check-ins", err)
	}
	defer rows.Close()
	result := make([]entity.CheckIn, 0, 32)
	for rows.Next() {
		var (
			dateKey, status string
			completedAt     time.Time
		)
		c := entity.CheckIn{HabitID: habitID}
		err = rows.Scan(&dateKey, &status, &completedAt, &c.Progress, &c.TargetReached)
		if err != nil {
			return nil, errors.New("check-in row parsing error: " + err.Error())
		}
		c.DateKey = entity.DateKey(dateKey)
		c.Status = entity.Status(status)
		c.CompletedAt = entity.CompletionTime(completedAt)
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("getting check-ins", err)
	}
	return result, nil
}

func (cr *CheckInsRepository) Upsert(ctx context.Context, checkIn entity.CheckIn) error {
	_, err := cr.conn.Exec(
		ctx,
		`INSERT INTO check_ins (habit_id, date_key, status, completed_at, progress, target_reached)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (habit_id, date_key) DO UPDATE SET status = EXCLUDED.status, completed_at = EXCLUDED.completed_at,
		progress = EXCLUDED.progress, target_reached = EXCLUDED.target_reached;`,
		checkIn.HabitID,
		checkIn.DateKey.String(),
		string(checkIn.Status),
		checkIn.CompletedAt,
		checkIn.Progress,
		checkIn.TargetReached,
	)
	if err != nil {
		return storeError("upserting check-in", err)
	}
	return nil
}

func (cr *CheckInsRepository) Delete(ctx context.Context, habitID uuid.UUID, date entity.DateKey) error {
	ct, err := cr.conn.Exec(
		ctx,
		`DELETE FROM check_ins WHERE habit_id = $1 AND date_key = $2;`,
		habitID,
		date.String(),
	)
	if err != nil {
		return storeError("deleting check-in", err)
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrCheckNotFound
	}
	return nil
}
