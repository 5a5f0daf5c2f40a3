package book

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Author       string     `json:"author" db:"author"`
	PageCount    int        `json:"page_count" db:"page_count"`
	Category     *string    `json:"category" db:"category"`
	Language     *string    `json:"language" db:"language"`
	CoverURL     *string    `json:"cover_url" db:"cover_url"`
	IsPublic     bool       `json:"is_public" db:"is_public"`
	UploadedByID *uuid.UUID `json:"uploaded_by_id,omitempty" db:"uploaded_by_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateBookRequest struct {
	Title     string  `json:"title" validate:"required"`
	Author    string  `json:"author" validate:"required"`
	PageCount int     `json:"page_count" validate:"required"`
	Category  *string `json:"category"`
	Language  *string `json:"language"`
	CoverURL  *string `json:"cover_url"`
	IsPublic  bool    `json:"is_public"`
}

type UpdateBookRequest struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category *string `json:"category"`
	Language *string `json:"language"`
	CoverURL *string `json:"cover_url"`
}
