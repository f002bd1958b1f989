package model

import (
	"time"

	"github.com/google/uuid"
)

type Reply struct {
	ID         uuid.UUID `json:"id"`
	ReviewID   uuid.UUID `json:"review_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorRole string    `json:"author_role"`
	Content    string    `json:"content"`
	IsOfficial bool      `json:"is_official"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}
