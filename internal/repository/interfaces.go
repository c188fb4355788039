package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/discipline/pkg/entity"
)

type HabitsRepositoryI interface {
	// Searches habit with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error)
	// Lists active habits
	List(ctx context.Context) ([]*entity.Habit, error)
}

type CheckInsRepositoryI interface {
	// Provides check-ins of habitID. A nil period means the whole history
	GetByHabit(ctx context.Context, habitID uuid.UUID, period *entity.DateRange) ([]entity.CheckIn, error)
	// Creates or replaces the check-in for (HabitID, DateKey)
	Upsert(ctx context.Context, checkIn entity.CheckIn) error
	// Deletes check-in of habitID at date (uncheck)
	Delete(ctx context.Context, habitID uuid.UUID, date entity.DateKey) error
}

type AnalyticsRepositoryI interface {
	// Stores the analytics summary of habitID
	Save(ctx context.Context, habitID uuid.UUID, a entity.Analytics) error
	// Returns the last stored summary of habitID
	Get(ctx context.Context, habitID uuid.UUID) (*entity.Analytics, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
