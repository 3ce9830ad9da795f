package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lobatera/asistencia/internal/models"
)

var errStoreDown = errors.New("connection refused")

type fakeRegistry struct {
	people map[string]*models.Person
	err    error
	calls  atomic.Int32
}

func (f *fakeRegistry) FindPerson(_ context.Context, cedula string) (*models.Person, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.people[cedula]
	if !ok {
		return nil, models.ErrPersonNotFound
	}
	return p, nil
}

type fakeEvents struct {
	active *models.Event
	byID   map[int64]*models.Event
	err    error
	calls  atomic.Int32
}

func (f *fakeEvents) ActiveEventFor(_ context.Context, _ time.Time) (*models.Event, error) {
	f.calls.Add(1)
	return f.active, f.err
}

func (f *fakeEvents) GetEvent(_ context.Context, id int64) (*models.Event, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	ev, ok := f.byID[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return ev, nil
}

type fakeConfirmations struct {
	mu     sync.Mutex
	policy models.ConfirmationPolicy
	rows   []models.Confirmation
	calls  atomic.Int32
}

func (f *fakeConfirmations) GetConfirmation(_ context.Context, cedula string, eventID int64) (*models.Confirmation, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].Cedula == cedula && f.rows[i].EventID == eventID {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeConfirmations) RecordConfirmation(ctx context.Context, c *models.Confirmation) error {
	existing, _ := f.GetConfirmation(ctx, c.Cedula, c.EventID)
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case existing != nil && f.policy == models.ConfirmationReject:
		return models.ErrAlreadyConfirmed
	case existing != nil && f.policy == models.ConfirmationUpsert:
		for i := range f.rows {
			if f.rows[i].ID == existing.ID {
				c.ID = existing.ID
				f.rows[i] = *c
			}
		}
		return nil
	}
	c.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *c)
	return nil
}

// fakeAttendance checks then inserts without holding its mutex across both
// steps, like an unguarded store, so only the engine's lock prevents duplicates.
type fakeAttendance struct {
	mu      sync.Mutex
	rows    []models.AttendanceRecord
	gap     time.Duration
	err     error
	calls   atomic.Int32
	inserts atomic.Int32
}

func (f *fakeAttendance) FindAttendance(_ context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Key() == key {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendance) RecordAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	existing, err := f.FindAttendance(ctx, rec.Key())
	if err != nil {
		return err
	}
	if existing != nil {
		*rec = *existing
		return models.ErrAlreadyRegistered
	}
	time.Sleep(f.gap)
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *rec)
	f.inserts.Add(1)
	return nil
}

func (f *fakeAttendance) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeMetrics struct {
	mu       sync.Mutex
	states   []string
	intents  []string
	failures []string
}

func (m *fakeMetrics) ObserveState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *fakeMetrics) ObserveIntent(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, kind+":"+outcome)
}

func (m *fakeMetrics) StoreFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, op)
}
