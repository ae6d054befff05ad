package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookgasm/pkg/auth"
	"bookgasm/pkg/domain"
	"bookgasm/pkg/store"
)

// Cover images are derived from the book id (ISBN), never supplied by
// the client.
const coverImageTemplate = "https://covers.openlibrary.org/b/isbn/%s-M.jpg"

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	Store         store.Store
	Sessions      store.SessionStore
}

// App wires storage, sessions and auth logic behind the HTTP layer.
type App struct {
	store    store.Store
	sessions store.SessionStore
}

// New constructs the application with database storage and session
// management. Explicit Store/Sessions take precedence over the URLs.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for session storage")
		}
		sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
	}, nil
}

// Register creates a local-credential user.
func (a *App) Register(email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, ErrEmailAndPasswordRequired
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.store.CreateUser(domain.User{
		ID:           store.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.User{}, ErrEmailAlreadyExists
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates local credentials and returns the full user record.
// Unknown email, wrong password and OAuth-only accounts all collapse to
// ErrInvalidCredentials so the response never reveals which field failed.
func (a *App) Login(email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Federate exchanges an external identity-provider profile for a local
// user, creating one on first login. Repeat logins return the stored
// user unchanged: the first-login email is authoritative and no profile
// fields are ever synced.
func (a *App) Federate(profile domain.ExternalProfile) (domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(profile.Email))
	if email == "" {
		return domain.User{}, ErrProfileEmailRequired
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if ok {
		return user, nil
	}
	created, err := a.store.CreateUser(domain.User{
		ID:      store.NewID(),
		Email:   email,
		Profile: profile.Raw,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Concurrent first login for the same email; the other
			// request won the insert, so use its row.
			user, ok, err = a.store.GetUserByEmail(email)
			if err != nil {
				return domain.User{}, fmt.Errorf("refetch user: %w", err)
			}
			if !ok {
				return domain.User{}, fmt.Errorf("user vanished after duplicate insert")
			}
			return user, nil
		}
		return domain.User{}, fmt.Errorf("create federated user: %w", err)
	}
	return created, nil
}

// IssueSession creates a session holding only the user id.
func (a *App) IssueSession(user domain.User) (string, error) {
	return a.sessions.NewSession(user.ID)
}

// UserFromSession resolves a session token to the full user row. An
// unknown token, an expired session or a user deleted out-of-band all
// report not-authenticated rather than an error.
func (a *App) UserFromSession(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout destroys the session.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// Books lists the user's books. A valid sort key ("rating" or "title")
// replaces the searched list with the full sorted list; any other key
// falls back to the unsorted, possibly searched, list.
func (a *App) Books(userID, titleSearch, sortKey string) ([]domain.Book, error) {
	switch sortKey {
	case store.SortByRating, store.SortByTitle:
		return a.store.ListBooksSorted(userID, sortKey)
	}
	return a.store.ListBooks(userID, titleSearch)
}

// NewBook is a book submission before the owner and derived fields are set.
type NewBook struct {
	ID      string
	Title   string
	Author  string
	Summary string
	Link    string
	Rating  int
}

// AddBook inserts a book for the user. The existence probe gives a clean
// conflict answer; the store's uniqueness constraint remains the
// authority if a concurrent insert slips past the probe.
func (a *App) AddBook(userID string, in NewBook) error {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" || strings.TrimSpace(in.Title) == "" {
		return ErrInvalidBook
	}
	exists, err := a.store.HasBook(in.ID, userID)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if exists {
		return ErrBookExists
	}
	err = a.store.CreateBook(domain.Book{
		ID:      in.ID,
		UserID:  userID,
		Title:   in.Title,
		Author:  in.Author,
		Summary: in.Summary,
		Image:   fmt.Sprintf(coverImageTemplate, in.ID),
		Link:    in.Link,
		Rating:  in.Rating,
	})
	if errors.Is(err, store.ErrDuplicateBook) {
		return ErrBookExists
	}
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// DeleteBook removes the user's book; a missing id is a silent no-op.
func (a *App) DeleteBook(userID, bookID string) error {
	return a.store.DeleteBook(bookID, userID)
}
