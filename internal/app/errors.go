package app

import "errors"

var (
	// ErrEmailAndPasswordRequired indicates a registration with blank fields.
	ErrEmailAndPasswordRequired = errors.New("email and password are required")
	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown email, wrong password and
	// password logins against OAuth-only accounts. Callers must render
	// the same generic message for all three.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileEmailRequired indicates a federated profile without an email claim.
	ErrProfileEmailRequired = errors.New("external profile has no email")
	// ErrBookExists indicates the (id, user) pair is already tracked.
	ErrBookExists = errors.New("book already exists")
	// ErrInvalidBook indicates a book submission missing id or title.
	ErrInvalidBook = errors.New("book id and title are required")
)
