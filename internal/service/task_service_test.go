package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"todo/internal/model"
	"todo/internal/repository"
	"todo/internal/service"
	"todo/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskRepository) Insert(ctx context.Context, task *model.Task) (*model.Task, error) {
	args := m.Called(ctx, task)
	return task, args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	args := m.Called(ctx, task)
	return task, args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupSQLiteService(t *testing.T) (*service.TaskService, *model.User, *model.User) {
	db := testutil.NewSQLite(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	svc := service.NewTaskService(repository.NewTaskRepository(db))
	return svc, alice, bob
}

func fields(t *testing.T, err error) map[string][]string {
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

func TestCreate_Defaults(t *testing.T) {
	// Arrange
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo).WithClock(func() time.Time { return fixedNow })
	owner := &model.User{ID: uuid.New()}
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	// Act
	task, err := svc.Create(context.Background(), owner, service.TaskCreate{Title: "  Buy milk "})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, owner.ID, task.OwnerID)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.False(t, task.Completed)
	assert.Equal(t, fixedNow, task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
	assert.NotEqual(t, uuid.Nil, task.ID)
	repo.AssertExpectations(t)
}

func TestCreate_CompletedStatus(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	task, err := svc.Create(context.Background(), &model.User{ID: uuid.New()},
		service.TaskCreate{Title: "Done already", Status: model.StatusCompleted, Priority: model.PriorityHigh})

	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, model.PriorityHigh, task.Priority)
}

func TestCreate_Invalid(t *testing.T) {
	cases := map[string]struct {
		in    service.TaskCreate
		field string
	}{
		"empty title":      {service.TaskCreate{Title: ""}, "title"},
		"blank title":      {service.TaskCreate{Title: "   "}, "title"},
		"long title":       {service.TaskCreate{Title: strings.Repeat("a", 201)}, "title"},
		"unknown priority": {service.TaskCreate{Title: "x", Priority: "urgent"}, "priority"},
		"unknown status":   {service.TaskCreate{Title: "x", Status: "done"}, "status"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			svc := service.NewTaskService(repo)

			_, err := svc.Create(context.Background(), &model.User{ID: uuid.New()}, tc.in)

			assert.Contains(t, fields(t, err), tc.field)
			repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Create(context.Background(), &model.User{ID: uuid.New()}, service.TaskCreate{Title: "x"})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	// Arrange
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo).WithClock(func() time.Time { return fixedNow })
	owner := &model.User{ID: uuid.New()}
	desc := "two litres"
	due := fixedNow.Add(24 * time.Hour)
	stored := &model.Task{
		ID: uuid.New(), Title: "Buy milk", Description: &desc, Priority: model.PriorityLow,
		Status: model.StatusPending, DueDate: &due, OwnerID: owner.ID,
		CreatedAt: fixedNow.Add(-time.Hour), UpdatedAt: fixedNow.Add(-time.Hour),
	}
	repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	// Act
	task, err := svc.Update(context.Background(), owner, stored.ID, service.TaskUpdate{
		Priority: model.Some(model.PriorityHigh),
		DueDate:  model.Some[*time.Time](nil),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, &desc, task.Description)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, fixedNow.Add(-time.Hour), task.CreatedAt)
	assert.Equal(t, fixedNow, task.UpdatedAt)
}

func TestUpdate_StatusSync(t *testing.T) {
	cases := []struct {
		status    model.Status
		completed bool
	}{
		{model.StatusCompleted, true},
		{model.StatusPending, false},
		{model.StatusInProgress, false},
		{model.StatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			repo := new(MockTaskRepository)
			svc := service.NewTaskService(repo)
			owner := &model.User{ID: uuid.New()}
			stored := &model.Task{ID: uuid.New(), Title: "x", OwnerID: owner.ID}
			stored.SetStatus(model.StatusCompleted)
			if tc.status == model.StatusCompleted {
				stored.SetStatus(model.StatusPending)
			}
			repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
			repo.On("Update", mock.Anything, mock.Anything).Return(nil)

			viaUpdate, err := svc.Update(context.Background(), owner, stored.ID, service.TaskUpdate{Status: model.Some(tc.status)})
			require.NoError(t, err)
			assert.Equal(t, tc.completed, viaUpdate.Completed)

			viaStatus, err := svc.UpdateStatus(context.Background(), owner, stored.ID, tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.status, viaStatus.Status)
			assert.Equal(t, tc.completed, viaStatus.Completed)
		})
	}
}

func TestUpdate_Invalid(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)

	_, err := svc.Update(context.Background(), &model.User{ID: uuid.New()}, uuid.New(), service.TaskUpdate{
		Title:    model.Some(" "),
		Priority: model.Some[model.Priority]("urgent"),
	})

	got := fields(t, err)
	assert.Equal(t, []string{"This field may not be blank."}, got["title"])
	assert.Contains(t, got, "priority")
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateStatus_Invalid(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)

	for _, status := range []model.Status{"", "done", "COMPLETED"} {
		_, err := svc.UpdateStatus(context.Background(), &model.User{ID: uuid.New()}, uuid.New(), status)
		assert.Contains(t, fields(t, err), "status")
	}
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOwnership_HidesOtherUsersTasks(t *testing.T) {
	// Arrange
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)
	owner := &model.User{ID: uuid.New()}
	intruder := &model.User{ID: uuid.New()}
	stored := &model.Task{ID: uuid.New(), Title: "secret", OwnerID: owner.ID}
	repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
	ctx := context.Background()

	// Act
	_, getErr := svc.Get(ctx, intruder, stored.ID)
	_, updateErr := svc.Update(ctx, intruder, stored.ID, service.TaskUpdate{Title: model.Some("mine")})
	_, statusErr := svc.UpdateStatus(ctx, intruder, stored.ID, model.StatusCompleted)
	deleteErr := svc.Delete(ctx, intruder, stored.ID)

	// Assert
	assert.ErrorIs(t, getErr, service.ErrTaskNotFound)
	assert.ErrorIs(t, updateErr, service.ErrTaskNotFound)
	assert.ErrorIs(t, statusErr, service.ErrTaskNotFound)
	assert.ErrorIs(t, deleteErr, service.ErrTaskNotFound)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGet_RepositoryError(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := svc.Get(context.Background(), &model.User{ID: uuid.New()}, uuid.New())

	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, service.ErrTaskNotFound)
}

func TestUpdate_VanishedBeforeWrite(t *testing.T) {
	repo := new(MockTaskRepository)
	svc := service.NewTaskService(repo)
	owner := &model.User{ID: uuid.New()}
	stored := &model.Task{ID: uuid.New(), Title: "x", OwnerID: owner.ID}
	repo.On("FindByID", mock.Anything, stored.ID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(repository.ErrTaskNotFound)

	_, err := svc.UpdateStatus(context.Background(), owner, stored.ID, model.StatusInProgress)

	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestSQLite_ListIsolationAndDeleteTwice(t *testing.T) {
	// Arrange
	svc, alice, bob := setupSQLiteService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, service.TaskCreate{Title: "Buy milk"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, service.TaskCreate{Title: "Walk dog"})
	require.NoError(t, err)

	// Act
	aliceTasks, err := svc.List(ctx, alice)
	require.NoError(t, err)
	bobTasks, err := svc.List(ctx, bob)
	require.NoError(t, err)

	// Assert
	require.Len(t, aliceTasks, 1)
	assert.Equal(t, "Buy milk", aliceTasks[0].Title)
	require.Len(t, bobTasks, 1)
	assert.Equal(t, "Walk dog", bobTasks[0].Title)

	assert.ErrorIs(t, svc.Delete(ctx, bob, task.ID), service.ErrTaskNotFound)
	assert.NoError(t, svc.Delete(ctx, alice, task.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice, task.ID), service.ErrTaskNotFound)

	aliceTasks, err = svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, aliceTasks)
}

func TestSQLite_UpdatePersists(t *testing.T) {
	svc, alice, _ := setupSQLiteService(t)
	ctx := context.Background()
	task, err := svc.Create(ctx, alice, service.TaskCreate{Title: "Buy milk"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, alice, task.ID, model.StatusCompleted)
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.True(t, got.Completed)
}
