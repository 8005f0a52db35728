package entity

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	Id          uuid.UUID
	Title       string
	Description string
	Priority    string
	Completed   bool
	DueDate     *time.Time
	ProjectId   *uuid.UUID
	UserId      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Project struct {
	Id          uuid.UUID
	Name        string
	Description string
	UserId      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Goal struct {
	Id          uuid.UUID
	Title       string
	Description string
	TargetDate  *time.Time
	UserId      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type Mood struct {
	Id        uuid.UUID
	Label     string
	Intensity int
	Note      string
	UserId    uuid.UUID
	CreatedAt time.Time
}
