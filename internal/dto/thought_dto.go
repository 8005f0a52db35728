package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThoughtRequest struct {
	Text         string   `json:"text" validate:"required"`
	SemanticType *string  `json:"semantic_type"`
	Tags         []string `json:"tags"`
	Intensity    *int     `json:"intensity" validate:"omitempty,min=1,max=10"`
}

type CreateThoughtResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowThoughtResponse struct {
	Id           uuid.UUID  `json:"id"`
	Text         string     `json:"text"`
	SemanticType *string    `json:"semantic_type"`
	Tags         []string   `json:"tags"`
	Intensity    *int       `json:"intensity"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type UpdateThoughtRequest struct {
	Id           uuid.UUID
	Text         string   `json:"text" validate:"required"`
	SemanticType *string  `json:"semantic_type"`
	Tags         []string `json:"tags"`
	Intensity    *int     `json:"intensity" validate:"omitempty,min=1,max=10"`
}

type UpdateThoughtResponse struct {
	Id uuid.UUID `json:"id"`
}
