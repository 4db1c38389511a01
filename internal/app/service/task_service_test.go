package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"taskhive/internal/common"
	"taskhive/internal/domain/model"
	"taskhive/internal/domain/repository"
)

const (
	ownerA  = "11111111-1111-4111-8111-111111111111"
	ownerB  = "33333333-3333-4333-8333-333333333333"
	taskID1 = "22222222-2222-4222-8222-222222222222"
)

type mockTaskRepository struct {
	createFunc    func(ctx context.Context, task *model.Task) error
	findByIDFunc  func(ctx context.Context, id string) (*model.Task, error)
	findOwnedFunc func(ctx context.Context, ownerID, id string) (*model.Task, error)
	listFunc      func(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int, error)
	updateFunc    func(ctx context.Context, task *model.Task) error
	deleteAnyFunc func(ctx context.Context, id string) error
}

func (m *mockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, task)
	}
	return errors.New("not implemented")
}

func (m *mockTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskRepository) FindOwned(ctx context.Context, ownerID, id string) (*model.Task, error) {
	if m.findOwnedFunc != nil {
		return m.findOwnedFunc(ctx, ownerID, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, 0, errors.New("not implemented")
}

func (m *mockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, task)
	}
	return errors.New("not implemented")
}

func (m *mockTaskRepository) DeleteAny(ctx context.Context, id string) error {
	if m.deleteAnyFunc != nil {
		return m.deleteAnyFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func ownerRepo() *mockUserRepository {
	return &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "alice", Email: "alice@example.com", Role: model.RoleUser}, nil
		},
	}
}

// =============================================================================
// Pagination and sort coercion
// =============================================================================

func TestListOwnedPaginationCoercion(t *testing.T) {
	tests := []struct {
		name       string
		req        ListTasksRequest
		wantLimit  int
		wantOffset int
		wantPage   int
	}{
		{"defaults", ListTasksRequest{}, 10, 0, 1},
		{"page zero coerced", ListTasksRequest{Page: "0"}, 10, 0, 1},
		{"negative page coerced", ListTasksRequest{Page: "-5"}, 10, 0, 1},
		{"non-numeric page coerced", ListTasksRequest{Page: "abc"}, 10, 0, 1},
		{"limit clamped to 100", ListTasksRequest{Limit: "500"}, 100, 0, 1},
		{"page times limit offset", ListTasksRequest{Page: "3", Limit: "20"}, 20, 40, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got repository.TaskFilter
			taskRepo := &mockTaskRepository{
				listFunc: func(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int, error) {
					got = filter
					return []model.Task{}, 0, nil
				},
			}
			svc := NewTaskService(taskRepo, ownerRepo())

			page, err := svc.ListOwned(context.Background(), ownerA, tt.req)
			if err != nil {
				t.Fatalf("ListOwned() error = %v", err)
			}
			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Errorf("filter limit/offset = %d/%d, want %d/%d", got.Limit, got.Offset, tt.wantLimit, tt.wantOffset)
			}
			if page.Page != tt.wantPage || page.Limit != tt.wantLimit {
				t.Errorf("page/limit = %d/%d, want %d/%d", page.Page, page.Limit, tt.wantPage, tt.wantLimit)
			}
			if got.OwnerID != ownerA {
				t.Errorf("filter owner = %q, want %q", got.OwnerID, ownerA)
			}
		})
	}
}

func TestListSortParsing(t *testing.T) {
	tests := []struct {
		sort      string
		wantField string
		wantAsc   bool
	}{
		{"", "createdAt", false},
		{"createdAt:asc", "createdAt", true},
		{"title:asc", "title", true},
		{"title:desc", "title", false},
		{"title:garbage", "title", false},
		{"title", "title", false},
	}

	for _, tt := range tests {
		var got repository.TaskFilter
		taskRepo := &mockTaskRepository{
			listFunc: func(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int, error) {
				got = filter
				return []model.Task{}, 0, nil
			},
		}
		svc := NewTaskService(taskRepo, ownerRepo())

		if _, err := svc.ListOwned(context.Background(), ownerA, ListTasksRequest{Sort: tt.sort}); err != nil {
			t.Fatalf("ListOwned(sort=%q) error = %v", tt.sort, err)
		}
		if got.SortField != tt.wantField || got.SortAsc != tt.wantAsc {
			t.Errorf("sort %q parsed as %q/%v, want %q/%v", tt.sort, got.SortField, got.SortAsc, tt.wantField, tt.wantAsc)
		}
	}
}

func TestListTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
	}

	for _, tt := range tests {
		taskRepo := &mockTaskRepository{
			listFunc: func(ctx context.Context, filter repository.TaskFilter) ([]model.Task, int, error) {
				return []model.Task{}, tt.total, nil
			},
		}
		svc := NewTaskService(taskRepo, ownerRepo())

		page, err := svc.ListAll(context.Background(), ListTasksRequest{Limit: strconv.Itoa(tt.limit)})
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if page.TotalPages != tt.want {
			t.Errorf("total=%d limit=%d: totalPages = %d, want %d", tt.total, tt.limit, page.TotalPages, tt.want)
		}
		if page.Total != tt.total {
			t.Errorf("total = %d, want %d", page.Total, tt.total)
		}
	}
}

func TestListOwnedIdentityChecks(t *testing.T) {
	svc := NewTaskService(&mockTaskRepository{}, ownerRepo())

	_, err := svc.ListOwned(context.Background(), "", ListTasksRequest{})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("ListOwned() without owner error = %v, want ErrUnauthorized", err)
	}

	_, err = svc.ListOwned(context.Background(), "not-a-uuid", ListTasksRequest{})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("ListOwned() with malformed owner error = %v, want ErrBadRequest", err)
	}
}

// =============================================================================
// Create
// =============================================================================

func TestCreateTask(t *testing.T) {
	var created *model.Task
	taskRepo := &mockTaskRepository{
		createFunc: func(ctx context.Context, task *model.Task) error {
			created = task
			return nil
		},
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	task, err := svc.Create(context.Background(), ownerA, CreateTaskRequest{
		Title:       "  buy milk  ",
		Description: "  2 liters ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("Create() never called the repository")
	}
	if task.Title != "buy milk" || task.Description != "2 liters" {
		t.Errorf("title/description not trimmed: %q / %q", task.Title, task.Description)
	}
	if task.Status != model.TaskStatusPending {
		t.Errorf("status = %q, want %q", task.Status, model.TaskStatusPending)
	}
	if task.OwnerID != ownerA {
		t.Errorf("owner = %q, want %q", task.OwnerID, ownerA)
	}
	if task.Owner.Username != "alice" || task.Owner.Email != "alice@example.com" {
		t.Errorf("owner projection = %+v", task.Owner)
	}
	if task.ID == "" {
		t.Error("task was created without an id")
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc := NewTaskService(&mockTaskRepository{}, ownerRepo())

	_, err := svc.Create(context.Background(), ownerA, CreateTaskRequest{Title: "   "})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("Create() with blank title error = %v, want ErrValidation", err)
	}

	_, err = svc.Create(context.Background(), ownerA, CreateTaskRequest{Title: "x", Status: "done"})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("Create() with bogus status error = %v, want ErrValidation", err)
	}

	_, err = svc.Create(context.Background(), "", CreateTaskRequest{Title: "x"})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("Create() without owner error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateTaskStatusLowercased(t *testing.T) {
	taskRepo := &mockTaskRepository{
		createFunc: func(ctx context.Context, task *model.Task) error { return nil },
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	task, err := svc.Create(context.Background(), ownerA, CreateTaskRequest{Title: "x", Status: "COMPLETED"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != model.TaskStatusCompleted {
		t.Errorf("status = %q, want %q", task.Status, model.TaskStatusCompleted)
	}
}

// =============================================================================
// Get / Update / Delete
// =============================================================================

func TestGetOwned(t *testing.T) {
	taskRepo := &mockTaskRepository{
		findOwnedFunc: func(ctx context.Context, ownerID, id string) (*model.Task, error) {
			if ownerID != ownerA {
				return nil, common.ErrNotFound
			}
			return &model.Task{ID: id, OwnerID: ownerID, Title: "buy milk"}, nil
		},
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	task, err := svc.GetOwned(context.Background(), ownerA, taskID1)
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if task.Title != "buy milk" {
		t.Errorf("unexpected task: %+v", task)
	}

	// Another owner's task is indistinguishable from a missing one.
	_, err = svc.GetOwned(context.Background(), ownerB, taskID1)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetOwned() cross-owner error = %v, want ErrNotFound", err)
	}

	// A malformed task id is a 400, never a 404.
	_, err = svc.GetOwned(context.Background(), ownerA, "not-an-id")
	if !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("GetOwned() malformed id error = %v, want ErrBadRequest", err)
	}
	if got := common.HTTPStatusFromError(err); got != http.StatusBadRequest {
		t.Errorf("HTTPStatusFromError() = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestUpdateStatusOnly(t *testing.T) {
	stored := &model.Task{
		ID: taskID1, OwnerID: ownerA,
		Title: "buy milk", Description: "2 liters", Status: model.TaskStatusPending,
	}
	var updated *model.Task
	taskRepo := &mockTaskRepository{
		findOwnedFunc: func(ctx context.Context, ownerID, id string) (*model.Task, error) {
			copied := *stored
			return &copied, nil
		},
		updateFunc: func(ctx context.Context, task *model.Task) error {
			updated = task
			return nil
		},
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	status := "completed"
	task, err := svc.Update(context.Background(), ownerA, taskID1, UpdateTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if task.Status != model.TaskStatusCompleted {
		t.Errorf("status = %q, want completed", task.Status)
	}
	if task.Title != "buy milk" || task.Description != "2 liters" {
		t.Errorf("partial update touched other fields: %+v", task)
	}
	if updated == nil {
		t.Fatal("Update() never reached the repository")
	}
}

func TestUpdateBlankDescription(t *testing.T) {
	taskRepo := &mockTaskRepository{
		findOwnedFunc: func(ctx context.Context, ownerID, id string) (*model.Task, error) {
			return &model.Task{ID: id, OwnerID: ownerID, Title: "t", Description: "old"}, nil
		},
		updateFunc: func(ctx context.Context, task *model.Task) error { return nil },
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	empty := ""
	task, err := svc.Update(context.Background(), ownerA, taskID1, UpdateTaskRequest{Description: &empty})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if task.Description != "" {
		t.Errorf("description = %q, want blanked", task.Description)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := NewTaskService(&mockTaskRepository{
		findOwnedFunc: func(ctx context.Context, ownerID, id string) (*model.Task, error) {
			return &model.Task{ID: id, OwnerID: ownerID, Title: "t"}, nil
		},
	}, ownerRepo())

	// No fields at all.
	_, err := svc.Update(context.Background(), ownerA, taskID1, UpdateTaskRequest{})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("Update() with no fields error = %v, want ErrValidation", err)
	}

	// Title supplied but blank.
	blank := "   "
	_, err = svc.Update(context.Background(), ownerA, taskID1, UpdateTaskRequest{Title: &blank})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("Update() with blank title error = %v, want ErrValidation", err)
	}

	// Unknown status.
	bogus := "archived"
	_, err = svc.Update(context.Background(), ownerA, taskID1, UpdateTaskRequest{Status: &bogus})
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("Update() with bogus status error = %v, want ErrValidation", err)
	}
}

func TestDelete(t *testing.T) {
	deleted := ""
	taskRepo := &mockTaskRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{ID: id, OwnerID: ownerB, Title: "other user's task"}, nil
		},
		deleteAnyFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	// Delete is unscoped by owner: any existing task goes, whoever created it.
	task, err := svc.Delete(context.Background(), taskID1)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != taskID1 || task.Title != "other user's task" {
		t.Errorf("Delete() = %+v, deleted id %q", task, deleted)
	}

	_, err = svc.Delete(context.Background(), "not-an-id")
	if !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("Delete() malformed id error = %v, want ErrBadRequest", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	taskRepo := &mockTaskRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Task, error) {
			return nil, common.ErrNotFound
		},
	}
	svc := NewTaskService(taskRepo, ownerRepo())

	_, err := svc.Delete(context.Background(), taskID1)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
