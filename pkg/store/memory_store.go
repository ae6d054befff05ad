package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"bookgasm/pkg/domain"
)

type bookKey struct {
	id     string
	userID string
}

// MemoryStore keeps users and books in-process. Used by tests and local
// runs without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.User // key: user ID
	email map[string]string      // email -> user ID
	books map[bookKey]domain.Book
	order []bookKey // insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
		email: make(map[string]string),
		books: make(map[bookKey]domain.Book),
	}
}

// CreateUser inserts a user, generating an ID when absent.
func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.email[u.Email]; exists {
		return domain.User{}, ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return u, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// UserCount returns the number of stored users.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListBooks returns the user's books in insertion order, filtered by a
// case-insensitive title substring when titleSearch is non-empty.
func (m *MemoryStore) ListBooks(userID, titleSearch string) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(titleSearch)
	res := make([]domain.Book, 0)
	for _, k := range m.order {
		b, ok := m.books[k]
		if !ok || b.UserID != userID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(b.Title), needle) {
			continue
		}
		res = append(res, b)
	}
	return res, nil
}

// ListBooksSorted returns all of the user's books ordered by the sort key.
func (m *MemoryStore) ListBooksSorted(userID, sortKey string) ([]domain.Book, error) {
	res, err := m.ListBooks(userID, "")
	if err != nil {
		return nil, err
	}
	switch sortKey {
	case SortByRating:
		sort.SliceStable(res, func(i, j int) bool { return res[i].Rating > res[j].Rating })
	case SortByTitle:
		sort.SliceStable(res, func(i, j int) bool { return res[i].Title < res[j].Title })
	}
	return res, nil
}

// HasBook reports whether the user already tracks the given book id.
func (m *MemoryStore) HasBook(id, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.books[bookKey{id: id, userID: userID}]
	return ok, nil
}

// CreateBook inserts a book, rejecting a duplicate (id, user) pair.
func (m *MemoryStore) CreateBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := bookKey{id: b.ID, userID: b.UserID}
	if _, exists := m.books[k]; exists {
		return ErrDuplicateBook
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.books[k] = b
	m.order = append(m.order, k)
	return nil
}

// DeleteBook removes the book when both id and owner match.
func (m *MemoryStore) DeleteBook(id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := bookKey{id: id, userID: userID}
	if _, ok := m.books[k]; !ok {
		return nil
	}
	delete(m.books, k)
	for i, other := range m.order {
		if other == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
