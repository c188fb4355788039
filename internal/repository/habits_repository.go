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

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepoWithConn(conn PgConnection) *HabitsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for habitsRepo: " + err.Error())
	}
	return &HabitsRepository{
		conn: conn,
	}
}

type habitRow struct {
	name, schedule, mode, unit, startDate string
	target                                *float64
	active                                bool
}

func (r habitRow) toEntity(id uuid.UUID) (*entity.Habit, error) {
	schedule, err := entity.ParseSchedule(r.schedule)
	if err != nil {
		return nil, errors.New("parsing habit schedule error: " + err.Error())
	}
	return &entity.Habit{
		ID:           id,
		Name:         r.name,
		Schedule:     schedule,
		TrackingMode: entity.TrackingMode(r.mode),
		Target:       r.target,
		Unit:         r.unit,
		StartDate:    entity.DateKey(r.startDate),
		Active:       r.active,
	}, nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	var r habitRow
	row := hr.conn.QueryRow(ctx,
		`SELECT name, schedule, tracking_mode, target, unit, start_date, active FROM habits WHERE id = $1;`, id)
	if err := row.Scan(&r.name, &r.schedule, &r.mode, &r.target, &r.unit, &r.startDate, &r.active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, storeError("getting habit by id", err)
	}
	return r.toEntity(id)
}

func (hr *HabitsRepository) List(ctx context.Context) ([]*entity.Habit, error) {
	habits := make([]*entity.Habit, 0)
	rows, err := hr.conn.Query(ctx, `SELECT id, name, schedule, tracking_mode, target, unit, start_date, active
		FROM habits WHERE active ORDER BY created_at;`)
	if err != nil {
		return nil, storeError("listing habits", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id uuid.UUID
			r  habitRow
		)
		err = rows.Scan(&id, &r.name, &r.schedule, &r.mode, &r.target, &r.unit, &r.startDate, &r.active)
		if err != nil {
			return nil, errors.New("unmarshalling habit error: " + err.Error())
		}
		h, err := r.toEntity(id)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError("listing habits", err)
	}
	return habits, nil
}
