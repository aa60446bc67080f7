package models

import (
	"time"

	"github.com/google/uuid"
)

// Project owns zero or more tasks. Deletion is unsupported; there is no
// cascade defined between a project and its tasks.
type Project struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
}
