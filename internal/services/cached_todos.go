package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"todo-list/backend/internal/cache"
	"todo-list/backend/internal/models"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/uuid"
	"golang.org/x/sync/singleflight"
)

const generationStripes = 256

// CachedTodoService keeps each owner's list in the cache and drops it on
// every successful write. Cache faults never fail a request.
//
// Every write bumps the owner's generation. A list read only stores its
// snapshot if the generation it started under is still current, so a read
// that overlaps a write cannot put the old list back.
type CachedTodoService struct {
	next    TodoService
	cache   cache.Cache
	listTTL time.Duration
	group   singleflight.Group
	gens    [generationStripes]atomic.Uint64
}

func NewCachedTodoService(next TodoService, c cache.Cache, listTTL time.Duration) *CachedTodoService {
	if listTTL <= 0 {
		listTTL = 15 * time.Minute
	}
	return &CachedTodoService{next: next, cache: c, listTTL: listTTL}
}

func listKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("todos:%s", ownerID)
}

// generation returns the write counter for key. Owners share stripes, so an
// unrelated write can at worst skip one cache fill.
func (s *CachedTodoService) generation(key string) *atomic.Uint64 {
	return &s.gens[xxhash.Sum64String(key)%generationStripes]
}

func (s *CachedTodoService) ListTodos(ctx context.Context, ownerID uuid.UUID) ([]models.Todo, error) {
	key := listKey(ownerID)

	var cached []models.Todo
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		if cached == nil {
			cached = []models.Todo{}
		}
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("[cache] get %s: %v", key, err)
	}

	// Concurrent misses for one owner share a single datastore read.
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		gen := s.generation(key)
		started := gen.Load()
		todos, err := s.next.ListTodos(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if gen.Load() != started {
			return todos, nil
		}
		if err := s.cache.Set(ctx, key, todos, s.listTTL); err != nil {
			log.Printf("[cache] set %s: %v", key, err)
		}
		// a write that invalidated while Set was in flight may have deleted first
		if gen.Load() != started {
			s.drop(ctx, key)
		}
		return todos, nil
	})
	if err != nil {
		return nil, err
	}

	todos := v.([]models.Todo)
	out := make([]models.Todo, len(todos))
	copy(out, todos)
	return out, nil
}

func (s *CachedTodoService) CreateTodo(ctx context.Context, ownerID uuid.UUID, input models.TodoInput) (*models.Todo, error) {
	todo, err := s.next.CreateTodo(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return todo, nil
}

func (s *CachedTodoService) UpdateTodo(ctx context.Context, ownerID, todoID uuid.UUID, patch models.TodoPatch) (*models.Todo, error) {
	todo, err := s.next.UpdateTodo(ctx, ownerID, todoID, patch)
	if err != nil {
		return nil, err
	}
	if todo != nil {
		s.invalidate(ctx, ownerID)
	}
	return todo, nil
}

func (s *CachedTodoService) DeleteTodo(ctx context.Context, ownerID, todoID uuid.UUID) error {
	if err := s.next.DeleteTodo(ctx, ownerID, todoID); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *CachedTodoService) invalidate(ctx context.Context, ownerID uuid.UUID) {
	key := listKey(ownerID)
	s.generation(key).Add(1)
	s.group.Forget(key)
	s.drop(ctx, key)
}

func (s *CachedTodoService) drop(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("[cache] invalidate %s: %v", key, err)
	}
}

func (s *CachedTodoService) Stats() map[string]interface{} {
	return s.cache.Stats()
}
