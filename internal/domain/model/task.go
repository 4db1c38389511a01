package model

import (
	"time"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// ValidTaskStatus reports whether status is one of the known task states.
func ValidTaskStatus(status string) bool {
	return status == TaskStatusPending || status == TaskStatusCompleted
}

// TaskOwner is the projection of the owning user that list/fetch responses
// expose. Never the full user record.
type TaskOwner struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"-"`
	Owner       TaskOwner `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
