package models

import (
	"time"

	"github.com/google/uuid"
)

// Image is the metadata record for one stored generation result. Every field
// except Hidden is immutable after creation.
type Image struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	URL       string    `json:"url" db:"url"`
	Hidden    bool      `json:"hidden" db:"hidden"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
