package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	ProjectId   *uuid.UUID `json:"project_id"`
}

type TaskResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	ProjectId   *uuid.UUID `json:"project_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type UpdateTaskRequest struct {
	Id          uuid.UUID
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Completed   *bool      `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	ProjectId   *uuid.UUID `json:"project_id"`
}
