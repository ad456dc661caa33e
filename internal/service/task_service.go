// Package service holds the task rules: every read and write is scoped to
// the requesting user, and status drives the completed flag.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo/internal/model"
	"todo/internal/repository"
	"todo/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrTaskNotFound covers both missing tasks and tasks owned by someone else.
var ErrTaskNotFound = errors.New("task not found")

type TaskRepository interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	Insert(ctx context.Context, task *model.Task) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

// TaskCreate is the body of a create request. Owner, completed and
// timestamps are never taken from the client.
type TaskCreate struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description *string        `json:"description"`
	Priority    model.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      model.Status   `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	DueDate     *time.Time     `json:"due_date"`
}

// TaskUpdate is a partial update; only fields present in the body change.
// A JSON null clears description and due_date.
type TaskUpdate struct {
	Title       model.Optional[string]         `json:"title"`
	Description model.Optional[*string]        `json:"description"`
	Priority    model.Optional[model.Priority] `json:"priority"`
	Status      model.Optional[model.Status]   `json:"status"`
	DueDate     model.Optional[*time.Time]     `json:"due_date"`
}

type taskUpdateRules struct {
	Title    *string         `json:"title" validate:"omitnil,min=1,max=200"`
	Priority *model.Priority `json:"priority" validate:"omitnil,oneof=low medium high"`
	Status   *model.Status   `json:"status" validate:"omitnil,oneof=pending in_progress completed cancelled"`
}

type statusRules struct {
	Status model.Status `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

type TaskService struct {
	repo     TaskRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validation.New(),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for created_at and updated_at.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns the owner's tasks in listing order.
func (s *TaskService) List(ctx context.Context, owner *model.User) ([]model.Task, error) {
	tasks, err := s.repo.FindByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, owner *model.User, id uuid.UUID) (*model.Task, error) {
	return s.owned(ctx, owner, id)
}

func (s *TaskService) Create(ctx context.Context, owner *model.User, in TaskCreate) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	task := &model.Task{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    model.PriorityMedium,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     owner.ID,
	}
	if in.Priority != "" {
		task.Priority = in.Priority
	}
	status := model.StatusPending
	if in.Status != "" {
		status = in.Status
	}
	task.SetStatus(status)

	created, err := s.repo.Insert(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// Update applies the supplied fields to the owner's task.
func (s *TaskService) Update(ctx context.Context, owner *model.User, id uuid.UUID, in TaskUpdate) (*model.Task, error) {
	if in.Title.Set {
		in.Title.Value = strings.TrimSpace(in.Title.Value)
	}
	rules := taskUpdateRules{
		Title:    in.Title.Ptr(),
		Priority: in.Priority.Ptr(),
		Status:   in.Status.Ptr(),
	}
	if err := validation.Struct(s.validate, rules); err != nil {
		return nil, err
	}

	task, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Title.Set {
		task.Title = in.Title.Value
	}
	if in.Description.Set {
		task.Description = in.Description.Value
	}
	if in.Priority.Set {
		task.Priority = in.Priority.Value
	}
	if in.DueDate.Set {
		task.DueDate = in.DueDate.Value
	}
	// re-derive completed even when status is untouched
	status := task.Status
	if in.Status.Set {
		status = in.Status.Value
	}
	task.SetStatus(status)

	return s.save(ctx, task)
}

// UpdateStatus changes only the status of the owner's task.
func (s *TaskService) UpdateStatus(ctx context.Context, owner *model.User, id uuid.UUID, status model.Status) (*model.Task, error) {
	if err := validation.Struct(s.validate, statusRules{Status: status}); err != nil {
		return nil, err
	}

	task, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	task.SetStatus(status)

	return s.save(ctx, task)
}

// Delete removes the owner's task. A second delete of the same id is ErrTaskNotFound.
func (s *TaskService) Delete(ctx context.Context, owner *model.User, id uuid.UUID) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, owner.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

// owned loads a task and hides it unless the requester owns it.
func (s *TaskService) owned(ctx context.Context, owner *model.User, id uuid.UUID) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil || task.OwnerID != owner.ID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) save(ctx context.Context, task *model.Task) (*model.Task, error) {
	task.UpdatedAt = s.timestamp()
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			// deleted between the ownership check and the write
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}
