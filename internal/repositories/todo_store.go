package repositories

import (
	"context"

	"todo-list/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TodoStore is the row-level contract the todo service needs from storage.
// Every call is a single statement; failures are returned as-is.
type TodoStore interface {
	// FindByOwner returns the owner's rows ordered by start_date ascending.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Todo, error)
	// Insert persists todo and refreshes it with the stored row.
	Insert(ctx context.Context, todo *models.Todo) error
	// UpdateWhere applies changes to the row matching both id and owner and
	// returns the updated rows, empty when nothing matched.
	UpdateWhere(ctx context.Context, ownerID, id uuid.UUID, changes models.TodoChanges) ([]models.Todo, error)
	// DeleteWhere removes the row matching both id and owner.
	DeleteWhere(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
	Ping(ctx context.Context) error
}

type GormTodoStore struct {
	db *gorm.DB
}

func NewGormTodoStore(db *gorm.DB) *GormTodoStore {
	return &GormTodoStore{db: db}
}

func (s *GormTodoStore) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Todo, error) {
	var todos []models.Todo
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("start_date ASC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *GormTodoStore) Insert(ctx context.Context, todo *models.Todo) error {
	return s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(todo).Error
}

func (s *GormTodoStore) UpdateWhere(ctx context.Context, ownerID, id uuid.UUID, changes models.TodoChanges) ([]models.Todo, error) {
	var updated []models.Todo
	err := s.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(changes.Columns()).Error
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormTodoStore) DeleteWhere(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Todo{})
	return result.RowsAffected, result.Error
}

func (s *GormTodoStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
