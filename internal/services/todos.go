package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-list/backend/internal/models"
	"todo-list/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// TodoService is the owner-scoped todo lifecycle. Every method takes the
// resolved owner explicitly and never looks at request state.
type TodoService interface {
	ListTodos(ctx context.Context, ownerID uuid.UUID) ([]models.Todo, error)
	CreateTodo(ctx context.Context, ownerID uuid.UUID, input models.TodoInput) (*models.Todo, error)
	// UpdateTodo returns nil without an error when no todo matches both the
	// id and the owner.
	UpdateTodo(ctx context.Context, ownerID, todoID uuid.UUID, patch models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, ownerID, todoID uuid.UUID) error
}

type TodoServiceImpl struct {
	store repositories.TodoStore
	now   func() time.Time
}

// NewTodoService builds the service over store. A nil clock means time.Now.
func NewTodoService(store repositories.TodoStore, clock func() time.Time) *TodoServiceImpl {
	if clock == nil {
		clock = time.Now
	}
	return &TodoServiceImpl{store: store, now: clock}
}

func (s *TodoServiceImpl) ListTodos(ctx context.Context, ownerID uuid.UUID) ([]models.Todo, error) {
	todos, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

func (s *TodoServiceImpl) CreateTodo(ctx context.Context, ownerID uuid.UUID, input models.TodoInput) (*models.Todo, error) {
	if blank(input.Category) || blank(input.Title) || input.StartDate.IsZero() || input.DueDate.IsZero() {
		return nil, &ValidationError{Message: msgMissingFields}
	}

	now := s.now()
	subtasks := input.Subtasks
	if subtasks == nil {
		subtasks = models.Subtasks{}
	}

	todo := &models.Todo{
		UserID:       ownerID,
		Category:     input.Category,
		Title:        input.Title,
		Subtasks:     subtasks,
		StartDate:    input.StartDate,
		DueDate:      input.DueDate,
		Status:       models.ComputeStatus(input.StartDate.Time, input.DueDate.Time, now),
		IsDeleted:    false,
		DateModified: now.UTC(),
	}

	if err := s.store.Insert(ctx, todo); err != nil {
		return nil, &StorageError{Err: err}
	}
	return todo, nil
}

func (s *TodoServiceImpl) UpdateTodo(ctx context.Context, ownerID, todoID uuid.UUID, patch models.TodoPatch) (*models.Todo, error) {
	now := s.now()
	changes, err := resolveChanges(patch, now)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateWhere(ctx, ownerID, todoID, changes)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	if len(updated) == 0 {
		return nil, nil
	}
	return &updated[0], nil
}

func (s *TodoServiceImpl) DeleteTodo(ctx context.Context, ownerID, todoID uuid.UUID) error {
	if _, err := s.store.DeleteWhere(ctx, ownerID, todoID); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

// resolveChanges turns a patch into the columns to write. Empty category and
// title are skipped so both stay non-empty; subtasks and is_deleted apply
// whenever supplied. Status is recomputed only when both dates arrive
// together, otherwise an explicit status overrides it. The override is
// checked rather than written verbatim: anything but upcoming, ongoing or
// pending fails with a ValidationError.
func resolveChanges(patch models.TodoPatch, now time.Time) (models.TodoChanges, error) {
	changes := models.TodoChanges{DateModified: now.UTC()}

	if patch.Category != nil && !blank(*patch.Category) {
		changes.Category = patch.Category
	}
	if patch.Title != nil && !blank(*patch.Title) {
		changes.Title = patch.Title
	}
	if patch.Subtasks != nil {
		subtasks := *patch.Subtasks
		if subtasks == nil {
			subtasks = models.Subtasks{}
		}
		changes.Subtasks = &subtasks
	}
	if patch.StartDate != nil && !patch.StartDate.IsZero() {
		changes.StartDate = patch.StartDate
	}
	if patch.DueDate != nil && !patch.DueDate.IsZero() {
		changes.DueDate = patch.DueDate
	}
	if patch.IsDeleted != nil {
		changes.IsDeleted = patch.IsDeleted
	}

	switch {
	case changes.StartDate != nil && changes.DueDate != nil:
		status := models.ComputeStatus(changes.StartDate.Time, changes.DueDate.Time, now)
		changes.Status = &status
	case patch.Status != nil && *patch.Status != "":
		if !patch.Status.Valid() {
			return changes, &ValidationError{Message: fmt.Sprintf("invalid status %q", *patch.Status)}
		}
		changes.Status = patch.Status
	}

	return changes, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
