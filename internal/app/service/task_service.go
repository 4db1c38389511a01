package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskhive/internal/common"
	"taskhive/internal/domain/model"
	"taskhive/internal/domain/repository"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, userRepo: userRepo}
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// UpdateTaskRequest uses pointers so an absent field and an explicitly empty
// one are distinguishable: a supplied empty description blanks the field,
// while a nil pointer leaves it untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// ListTasksRequest carries the raw query parameters; coercion rules
// (defaults, floors, the limit cap) live here rather than in handlers.
type ListTasksRequest struct {
	Page   string
	Limit  string
	Search string
	Sort   string
}

type TaskPage struct {
	Tasks      []model.Task
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// parsePositiveInt coerces a raw query value to a positive integer,
// falling back for anything non-numeric or below 1.
func parsePositiveInt(s string, defaultVal int) int {
	if val, err := strconv.Atoi(s); err == nil && val > 0 {
		return val
	}
	return defaultVal
}

// parseSort splits a "field:direction" pair. Direction is ascending only
// when it is exactly "asc"; everything else, garbage included, descends.
func parseSort(sort string) (field string, asc bool) {
	field = "createdAt"
	if sort == "" {
		return field, false
	}
	parts := strings.SplitN(sort, ":", 2)
	if parts[0] != "" {
		field = parts[0]
	}
	return field, len(parts) == 2 && parts[1] == "asc"
}

func buildFilter(req ListTasksRequest) (repository.TaskFilter, int, int) {
	page := parsePositiveInt(req.Page, 1)
	limit := parsePositiveInt(req.Limit, defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	field, asc := parseSort(req.Sort)

	return repository.TaskFilter{
		Search:    req.Search,
		SortField: field,
		SortAsc:   asc,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}, page, limit
}

// ListOwned returns one page of the caller's own tasks.
func (s *TaskService) ListOwned(ctx context.Context, ownerID string, req ListTasksRequest) (*TaskPage, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("missing caller identity: %w", common.ErrUnauthorized)
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", common.ErrBadRequest)
	}

	filter, page, limit := buildFilter(req)
	filter.OwnerID = ownerID
	return s.list(ctx, filter, page, limit)
}

// ListAll returns one page of tasks across all users. Callers must gate
// access; the query itself has no ownership filter.
func (s *TaskService) ListAll(ctx context.Context, req ListTasksRequest) (*TaskPage, error) {
	filter, page, limit := buildFilter(req)
	return s.list(ctx, filter, page, limit)
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter, page, limit int) (*TaskPage, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	return &TaskPage{
		Tasks:      tasks,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, req CreateTaskRequest) (*model.Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("missing caller identity: %w", common.ErrUnauthorized)
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", common.ErrBadRequest)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrValidation)
	}

	status := strings.ToLower(req.Status)
	if status == "" {
		status = model.TaskStatusPending
	}
	if !model.ValidTaskStatus(status) {
		return nil, fmt.Errorf("status must be one of 'pending' or 'completed': %w", common.ErrValidation)
	}

	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("unknown user: %w", common.ErrUnauthorized)
		}
		return nil, err
	}

	task := &model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		OwnerID:     owner.ID,
		Owner:       model.TaskOwner{Username: owner.Username, Email: owner.Email},
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) GetOwned(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	if err := validateIDs(ownerID, taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, req UpdateTaskRequest) (*model.Task, error) {
	if err := validateIDs(ownerID, taskID); err != nil {
		return nil, err
	}
	if req.Title == nil && req.Description == nil && req.Status == nil {
		return nil, fmt.Errorf("at least one of title, description or status is required: %w", common.ErrValidation)
	}

	task, err := s.taskRepo.FindOwned(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status := strings.ToLower(*req.Status)
		if !model.ValidTaskStatus(status) {
			return nil, fmt.Errorf("status must be one of 'pending' or 'completed': %w", common.ErrValidation)
		}
		task.Status = status
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	return task, nil
}

// Delete removes a task by id alone with no ownership check; the admin gate
// on the route is the only protection, so never call this from a
// non-admin path.
func (s *TaskService) Delete(ctx context.Context, taskID string) (*model.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("invalid task id: %w", common.ErrBadRequest)
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, err
	}

	if err := s.taskRepo.DeleteAny(ctx, taskID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	return task, nil
}

func validateIDs(ownerID, taskID string) error {
	if ownerID == "" {
		return fmt.Errorf("missing caller identity: %w", common.ErrUnauthorized)
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return fmt.Errorf("invalid user id: %w", common.ErrBadRequest)
	}
	if _, err := uuid.Parse(taskID); err != nil {
		return fmt.Errorf("invalid task id: %w", common.ErrBadRequest)
	}
	return nil
}
