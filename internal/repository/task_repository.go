package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"todo/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// Listing order: due_date ascending with nulls last, then the priority value
// as stored (high, low, medium), then newest first. The id keeps the order total.
const (
	orderDueDateNullsLast = "due_date IS NULL"
	orderDueDate          = "due_date ASC"
	orderPriority         = "priority ASC"
	orderCreatedAt        = "created_at DESC"
	orderID               = "id"
)

// Columns a task update may write; id, user_id and created_at never change.
var mutableTaskColumns = []string{"title", "description", "completed", "priority", "status", "due_date", "updated_at"}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByOwner returns every task of the owner in listing order
func (r *TaskRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	tasks := []model.Task{}
	result := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order(orderDueDateNullsLast).
		Order(orderDueDate).
		Order(orderPriority).
		Order(orderCreatedAt).
		Order(orderID).
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// FindByID retrieves a task by its ID, nil if it does not exist
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &task, nil
}

// Insert adds a new task to the database
func (r *TaskRepository) Insert(ctx context.Context, task *model.Task) (*model.Task, error) {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// Update writes the mutable columns of an existing task. The owner is part of
// the filter so a task can never be written through another user's id.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.OwnerID).
		Select(mutableTaskColumns).
		Updates(task)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Delete removes the owner's task and reports whether anything was removed
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ? AND user_id = ?", id, ownerID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
