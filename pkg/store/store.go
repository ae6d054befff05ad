package store

import (
	"errors"

	"bookgasm/pkg/domain"
)

// Duplicate-key failures surfaced by the data stores. Both are enforced
// by store-level constraints, not by the caller's existence probe.
var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateBook  = errors.New("book already exists for user")
)

// Book sort keys accepted by ListBooksSorted. Anything else is the
// caller's problem; stores only understand these two.
const (
	SortByRating = "rating"
	SortByTitle  = "title"
)

// Store defines persistence operations for users and books.
type Store interface {
	// users
	CreateUser(domain.User) (domain.User, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// books, always scoped by the owning user
	ListBooks(userID, titleSearch string) ([]domain.Book, error)
	ListBooksSorted(userID, sortKey string) ([]domain.Book, error)
	HasBook(id, userID string) (bool, error)
	CreateBook(domain.Book) error
	DeleteBook(id, userID string) error
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
