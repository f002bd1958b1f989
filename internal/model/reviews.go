package model

import (
	"time"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewFlagged  ReviewStatus = "flagged"
	ReviewRejected ReviewStatus = "rejected"
	ReviewResolved ReviewStatus = "resolved"
)

type Review struct {
	ID        uuid.UUID    `json:"id"`
	AuthorID  uuid.UUID    `json:"author_id"`
	OfficeID  uuid.UUID    `json:"office_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	FlagCount int          `json:"flag_count"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type UpdateReviewStatusRequest struct {
	Status string `json:"status" validate:"required,review_status"`
}
