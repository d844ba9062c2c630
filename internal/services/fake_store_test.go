package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"todo-list/backend/internal/models"

	"github.com/gofrs/uuid"
)

// fakeStore is an in-memory TodoStore that records how often it was called.
type fakeStore struct {
	mu    sync.Mutex
	rows  []models.Todo
	err   error
	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (f *fakeStore) record(op string) error {
	f.calls[op]++
	return f.err
}

func (f *fakeStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("find"); err != nil {
		return nil, err
	}

	var out []models.Todo
	for _, r := range f.rows {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate.Time) })
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, todo *models.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("insert"); err != nil {
		return err
	}
	if todo.ID == uuid.Nil {
		todo.ID = uuid.Must(uuid.NewV4())
	}
	f.rows = append(f.rows, *todo)
	return nil
}

func (f *fakeStore) UpdateWhere(_ context.Context, ownerID, id uuid.UUID, changes models.TodoChanges) ([]models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return nil, err
	}
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == ownerID {
			changes.ApplyTo(&f.rows[i])
			return []models.Todo{f.rows[i]}, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteWhere(_ context.Context, ownerID, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return 0, err
	}
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == ownerID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return nil
}

var errDatastore = errors.New(`relation "todos" does not exist`)
