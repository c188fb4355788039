package service_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/pkg/entity"
)

// storeMock is an in-memory store with scripted write failures and a gate
// that can hold the next check-in read.
type storeMock struct {
	mu        sync.Mutex
	habits    map[uuid.UUID]entity.Habit
	checkIns  map[uuid.UUID]entity.CheckInLog
	summaries map[uuid.UUID]entity.Analytics

	writeErrs []error
	writes    int

	readGate      chan struct{}
	readStarted   chan struct{}
	readIgnoreCtx bool

	writeGate    chan struct{}
	writeStarted chan struct{}
}

func newStoreMock() *storeMock {
	return &storeMock{
		habits:    make(map[uuid.UUID]entity.Habit),
		checkIns:  make(map[uuid.UUID]entity.CheckInLog),
		summaries: make(map[uuid.UUID]entity.Analytics),
	}
}

func (s *storeMock) addHabit(h entity.Habit, checkIns ...entity.CheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits[h.ID] = h
	for i := range checkIns {
		checkIns[i].HabitID = h.ID
	}
	s.checkIns[h.ID] = entity.NewCheckInLog(checkIns)
}

func (s *storeMock) removeHabit(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.habits, id)
	delete(s.checkIns, id)
}

// failWrites makes the next writes return errs in order; nil entries succeed.
func (s *storeMock) failWrites(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErrs = append(s.writeErrs, errs...)
}

// holdNextRead blocks the next GetByHabit until the returned gate is closed.
// The data it returns is read before blocking.
func (s *storeMock) holdNextRead(ignoreCtx bool) (gate chan struct{}, started chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readGate = make(chan struct{})
	s.readStarted = make(chan struct{})
	s.readIgnoreCtx = ignoreCtx
	return s.readGate, s.readStarted
}

// holdNextWrite blocks the next write until the returned gate is closed.
func (s *storeMock) holdNextWrite() (gate chan struct{}, started chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeGate = make(chan struct{})
	s.writeStarted = make(chan struct{})
	return s.writeGate, s.writeStarted
}

func (s *storeMock) log(habitID uuid.UUID) entity.CheckInLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkIns[habitID].Clone()
}

func (s *storeMock) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *storeMock) summary(habitID uuid.UUID) (entity.Analytics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.summaries[habitID]
	return a, ok
}

func (s *storeMock) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	return &h, nil
}

func (s *storeMock) List(ctx context.Context) ([]*entity.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		out = append(out, &h)
	}
	return out, nil
}

func (s *storeMock) GetByHabit(ctx context.Context, habitID uuid.UUID, period *entity.DateRange) ([]entity.CheckIn, error) {
	s.mu.Lock()
	result := s.checkIns[habitID].Slice()
	gate, started, ignoreCtx := s.readGate, s.readStarted, s.readIgnoreCtx
	s.readGate, s.readStarted = nil, nil
	s.mu.Unlock()
	if gate != nil {
		close(started)
		if ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if period == nil {
		return result, nil
	}
	filtered := make([]entity.CheckIn, 0, len(result))
	for _, c := range result {
		if period.Contains(c.DateKey) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (s *storeMock) beforeWrite(ctx context.Context) error {
	s.mu.Lock()
	gate, started := s.writeGate, s.writeStarted
	s.writeGate, s.writeStarted = nil, nil
	s.mu.Unlock()
	if gate != nil {
		close(started)
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if len(s.writeErrs) == 0 {
		return nil
	}
	err := s.writeErrs[0]
	s.writeErrs = s.writeErrs[1:]
	return err
}

func (s *storeMock) Upsert(ctx context.Context, checkIn entity.CheckIn) error {
	if err := s.beforeWrite(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.habits[checkIn.HabitID]; !ok {
		return errorvalues.ErrHabitNotFound
	}
	s.checkIns[checkIn.HabitID] = s.checkIns[checkIn.HabitID].With(checkIn.DateKey, &checkIn)
	return nil
}

func (s *storeMock) Delete(ctx context.Context, habitID uuid.UUID, date entity.DateKey) error {
	if err := s.beforeWrite(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checkIns[habitID][date]; !ok {
		return errorvalues.ErrCheckNotFound
	}
	s.checkIns[habitID] = s.checkIns[habitID].With(date, nil)
	return nil
}

func (s *storeMock) Save(ctx context.Context, habitID uuid.UUID, a entity.Analytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[habitID] = a
	return nil
}

func (s *storeMock) Get(ctx context.Context, habitID uuid.UUID) (*entity.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.summaries[habitID]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	return &a, nil
}
