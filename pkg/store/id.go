package store

import "github.com/google/uuid"

// NewID returns a fresh unique identifier for inserted rows.
func NewID() string {
	return uuid.NewString()
}
