// Package memory is an in-process record store. It keeps nothing across
// restarts and backs tests and single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"schedule_bot/internal/idgen"
	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	events table[models.EventModel]
	images table[models.ImageModel]
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// WithClock replaces the clock used for CreatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// table keeps records in insertion order, which is also CreatedAt order.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func (t *table[T]) insert(id string, v T) {
	if t.rows == nil {
		t.rows = make(map[string]T)
	}
	t.order = append(t.order, id)
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, error) {
	v, ok := t.rows[id]
	if !ok {
		return v, store.ErrNotFound
	}
	return v, nil
}

func (t *table[T]) replace(id string, v T) error {
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	t.rows[id] = v
	return nil
}

func (t *table[T]) remove(id string) error {
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *table[T]) find(match func(*T) bool) []T {
	out := make([]T, 0)
	for _, id := range t.order {
		v := t.rows[id]
		if match(&v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) FindEvents(_ context.Context, f store.EventFilter) ([]models.EventModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.find(f.Match), nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*models.EventModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, err := s.events.get(id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEvent(_ context.Context, e *models.EventModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = id
	e.CreatedAt = s.now()
	s.events.insert(id, *e)
	return nil
}

func (s *Store) SaveEvent(_ context.Context, e *models.EventModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.replace(e.ID, *e)
}

func (s *Store) RemoveEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.remove(id)
}

func (s *Store) FindImages(_ context.Context, f store.ImageFilter) ([]models.ImageModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images.find(f.Match), nil
}

func (s *Store) GetImage(_ context.Context, id string) (*models.ImageModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.images.get(id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateImage(_ context.Context, m *models.ImageModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = id
	m.CreatedAt = s.now()
	if m.Asset == nil {
		m.Asset = models.Pending{}
	}
	s.images.insert(id, *m)
	return nil
}

func (s *Store) SaveImage(_ context.Context, m *models.ImageModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.replace(m.ID, *m)
}

func (s *Store) RemoveImage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.remove(id)
}

func (s *Store) Close(context.Context) error {
	return nil
}
