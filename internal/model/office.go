package model

import (
	"time"

	"github.com/google/uuid"
)

type Office struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"` // MUNICIPALITY, TAX, HEALTH, LICENSING, POLICE, OTHER
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateOfficeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Category  string  `json:"category" validate:"required"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}
