package handler

import (
	"encoding/json"
	"net/http"

	"taskhive/internal/api/middleware"
	"taskhive/internal/app/service"
	"taskhive/internal/common"
	"taskhive/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(ts *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: ts}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All task routes require auth

	r.Post("/", h.createTask)
	r.Get("/", h.listOwnedTasks)
	r.Get("/{taskID}", h.getTask)
	r.Put("/{taskID}", h.updateTask)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly)
		admin.Get("/all", h.listAllTasks)
		admin.Delete("/{taskID}", h.deleteTask)
	})
}

// taskListResponse is the flat paginated envelope for list endpoints.
type taskListResponse struct {
	Success    bool         `json:"success"`
	Data       []model.Task `json:"data"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}

func listResponse(page *service.TaskPage) taskListResponse {
	return taskListResponse{
		Success:    true,
		Data:       page.Tasks,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
}

func listRequest(r *http.Request) service.ListTasksRequest {
	q := r.URL.Query()
	return service.ListTasksRequest{
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithData(w, http.StatusCreated, task)
}

func (h *TaskHandler) listOwnedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	page, err := h.taskService.ListOwned(r.Context(), userID, listRequest(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listResponse(page))
}

func (h *TaskHandler) listAllTasks(w http.ResponseWriter, r *http.Request) {
	page, err := h.taskService.ListAll(r.Context(), listRequest(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, listResponse(page))
}

func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	task, err := h.taskService.GetOwned(r.Context(), userID, chi.URLParam(r, "taskID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithData(w, http.StatusOK, task)
}

func (h *TaskHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, chi.URLParam(r, "taskID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithData(w, http.StatusOK, task)
}

func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.Delete(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithData(w, http.StatusOK, task)
}
