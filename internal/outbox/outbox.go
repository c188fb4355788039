// Package outbox keeps check-in writes that could not reach the store so they
// can be replayed later. Only the latest write per (habit, date) is kept.
package outbox

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/limbo/discipline/pkg/entity"
	_ "modernc.org/sqlite"
)

// Write is one queued mutation. A nil Record means the check-in is removed.
type Write struct {
	HabitID  uuid.UUID
	DateKey  entity.DateKey
	Record   *entity.CheckIn
	Seq      int64
	Attempts int
	QueuedAt time.Time
}

type Queue interface {
	// Stores w, replacing any earlier write for the same habit and date
	Enqueue(ctx context.Context, w Write) error
	// Lists all queued writes, oldest first
	Pending(ctx context.Context) ([]Write, error)
	// Lists queued writes of habitID, oldest first
	PendingFor(ctx context.Context, habitID uuid.UUID) ([]Write, error)
	// Removes the write if it wasn't replaced since it was read
	Remove(ctx context.Context, w Write) error
	// Counts a failed replay of w
	MarkAttempt(ctx context.Context, w Write) error
	// Drops whatever is queued for habitID at date
	RemoveKey(ctx context.Context, habitID uuid.UUID, date entity.DateKey) error
}

const schema = `CREATE TABLE IF NOT EXISTS pending_writes (
	habit_id TEXT NOT NULL,
	date_key TEXT NOT NULL,
	payload TEXT NOT NULL,
	seq INTEGER NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	queued_at INTEGER NOT NULL,
	UNIQUE (habit_id, date_key)
);`

type SQLiteQueue struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the queue at path. ":memory:" keeps it in memory.
func OpenSQLite(path string) (*SQLiteQueue, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.New("creating outbox directory error: " + err.Error())
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New("opening outbox error: " + err.Error())
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, errors.New("setting WAL mode error: " + err.Error())
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.New("creating outbox schema error: " + err.Error())
	}
	return &SQLiteQueue{db: db, now: time.Now}, nil
}

func (q *SQLiteQueue) Close() error {
	return q.db.Close()
}

func (q *SQLiteQueue) Enqueue(ctx context.Context, w Write) error {
	payload, err := sonic.MarshalString(w.Record)
	if err != nil {
		return errors.New("encoding queued write error: " + err.Error())
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO pending_writes (habit_id, date_key, payload, seq, attempts, queued_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM pending_writes), 0, ?)
		ON CONFLICT (habit_id, date_key) DO UPDATE SET payload = excluded.payload, seq = excluded.seq,
		attempts = 0, queued_at = excluded.queued_at;`,
		w.HabitID.String(), w.DateKey.String(), payload, q.now().UTC().UnixNano(),
	)
	if err != nil {
		return errors.New("enqueueing write error: " + err.Error())
	}
	return nil
}

func (q *SQLiteQueue) Pending(ctx context.Context) ([]Write, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT habit_id, date_key, payload, seq, attempts, queued_at FROM pending_writes ORDER BY seq;`)
	if err != nil {
		return nil, errors.New("listing queued writes error: " + err.Error())
	}
	return scanWrites(rows)
}

func (q *SQLiteQueue) PendingFor(ctx context.Context, habitID uuid.UUID) ([]Write, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT habit_id, date_key, payload, seq, attempts, queued_at FROM pending_writes WHERE habit_id = ? ORDER BY seq;`,
		habitID.String())
	if err != nil {
		return nil, errors.New("listing queued writes error: " + err.Error())
	}
	return scanWrites(rows)
}

func scanWrites(rows *sql.Rows) ([]Write, error) {
	defer rows.Close()
	result := make([]Write, 0)
	for rows.Next() {
		var (
			habitID, dateKey, payload string
			queuedAt                  int64
			w                         Write
		)
		if err := rows.Scan(&habitID, &dateKey, &payload, &w.Seq, &w.Attempts, &queuedAt); err != nil {
			return nil, errors.New("queued write row parsing error: " + err.Error())
		}
		id, err := uuid.Parse(habitID)
		if err != nil {
			return nil, errors.New("queued write habit id error: " + err.Error())
		}
		if err := sonic.UnmarshalString(payload, &w.Record); err != nil {
			return nil, errors.New("decoding queued write error: " + err.Error())
		}
		w.HabitID = id
		w.DateKey = entity.DateKey(dateKey)
		w.QueuedAt = time.Unix(0, queuedAt).UTC()
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New("unexpected queued write rows error: " + err.Error())
	}
	return result, nil
}

func (q *SQLiteQueue) Remove(ctx context.Context, w Write) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM pending_writes WHERE habit_id = ? AND date_key = ? AND seq = ?;`,
		w.HabitID.String(), w.DateKey.String(), w.Seq)
	if err != nil {
		return errors.New("removing queued write error: " + err.Error())
	}
	return nil
}

// RemoveKey is used once the store confirmed a newer write of the same date.
func (q *SQLiteQueue) RemoveKey(ctx context.Context, habitID uuid.UUID, date entity.DateKey) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM pending_writes WHERE habit_id = ? AND date_key = ?;`,
		habitID.String(), date.String())
	if err != nil {
		return errors.New("removing queued write error: " + err.Error())
	}
	return nil
}

func (q *SQLiteQueue) MarkAttempt(ctx context.Context, w Write) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pending_writes SET attempts = attempts + 1 WHERE habit_id = ? AND date_key = ? AND seq = ?;`,
		w.HabitID.String(), w.DateKey.String(), w.Seq)
	if err != nil {
		return errors.New("marking queued write attempt error: " + err.Error())
	}
	return nil
}
