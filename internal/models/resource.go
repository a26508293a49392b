package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource is an entry of the admin-managed resource library
type Resource struct {
	ID        uuid.UUID
	Title     string
	Category  string
	URL       string
	CreatedAt time.Time
}
