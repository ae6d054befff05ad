package domain

import "time"

// User is an account holder. PasswordHash is empty for accounts created
// through OAuth federation; those can only sign in via their provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Profile      []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Book is a tracked book. ID is the user-supplied external identifier
// (typically an ISBN) and is unique per owner, not globally.
type Book struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary"`
	Image     string    `json:"image"`
	Link      string    `json:"link"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExternalProfile is the subset of an identity provider's userinfo
// response that federation needs. Raw keeps the full response for the
// first-login snapshot.
type ExternalProfile struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Raw     []byte `json:"-"`
}
