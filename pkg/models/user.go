package models

import "github.com/google/uuid"

// User is an account identified by a unique, lowercase email address.
// The password hash never leaves the backend.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
}
