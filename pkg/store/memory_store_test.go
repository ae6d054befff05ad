package store

import (
	"errors"
	"testing"

	"bookgasm/pkg/domain"
)

func seedBooks(t *testing.T, m *MemoryStore) {
	t.Helper()
	books := []domain.Book{
		{ID: "1", UserID: "u1", Title: "War and Peace", Rating: 5},
		{ID: "2", UserID: "u1", Title: "Anna Karenina", Rating: 4},
		{ID: "3", UserID: "u1", Title: "The Art of War", Rating: 3},
		{ID: "4", UserID: "u2", Title: "Warlock", Rating: 2},
	}
	for _, b := range books {
		if err := m.CreateBook(b); err != nil {
			t.Fatalf("seed book %s: %v", b.ID, err)
		}
	}
}

func TestListBooksScopedToUser(t *testing.T) {
	m := NewMemoryStore()
	seedBooks(t, m)

	res, err := m.ListBooks("u1", "")
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 books for u1, got %d", len(res))
	}
	for _, b := range res {
		if b.UserID != "u1" {
			t.Fatalf("leaked book %s owned by %s", b.ID, b.UserID)
		}
	}
}

func TestListBooksTitleSearchIsCaseInsensitive(t *testing.T) {
	m := NewMemoryStore()
	seedBooks(t, m)

	res, err := m.ListBooks("u1", "war")
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "war", len(res))
	}
	for _, b := range res {
		if b.ID != "1" && b.ID != "3" {
			t.Fatalf("unexpected match %s (%s)", b.ID, b.Title)
		}
	}
}

func TestListBooksSorted(t *testing.T) {
	m := NewMemoryStore()
	seedBooks(t, m)

	byRating, err := m.ListBooksSorted("u1", SortByRating)
	if err != nil {
		t.Fatalf("sort by rating: %v", err)
	}
	for i := 1; i < len(byRating); i++ {
		if byRating[i-1].Rating < byRating[i].Rating {
			t.Fatalf("ratings not descending: %v before %v", byRating[i-1].Rating, byRating[i].Rating)
		}
	}

	byTitle, err := m.ListBooksSorted("u1", SortByTitle)
	if err != nil {
		t.Fatalf("sort by title: %v", err)
	}
	for i := 1; i < len(byTitle); i++ {
		if byTitle[i-1].Title > byTitle[i].Title {
			t.Fatalf("titles not ascending: %q before %q", byTitle[i-1].Title, byTitle[i].Title)
		}
	}
}

func TestCreateBookRejectsDuplicatePerUser(t *testing.T) {
	m := NewMemoryStore()
	seedBooks(t, m)

	err := m.CreateBook(domain.Book{ID: "1", UserID: "u1", Title: "Duplicate"})
	if !errors.Is(err, ErrDuplicateBook) {
		t.Fatalf("expected ErrDuplicateBook, got %v", err)
	}

	// Same external id under a different owner is fine.
	if err := m.CreateBook(domain.Book{ID: "1", UserID: "u2", Title: "Other owner"}); err != nil {
		t.Fatalf("same id for another user should insert: %v", err)
	}

	res, _ := m.ListBooks("u1", "")
	if len(res) != 3 {
		t.Fatalf("failed insert must not change row count, got %d", len(res))
	}
}

func TestDeleteBookMatchesBothIDAndOwner(t *testing.T) {
	m := NewMemoryStore()
	seedBooks(t, m)

	// u2 deleting u1's book is a silent no-op.
	if err := m.DeleteBook("1", "u2"); err != nil {
		t.Fatalf("cross-user delete: %v", err)
	}
	res, _ := m.ListBooks("u1", "")
	if len(res) != 3 {
		t.Fatalf("cross-user delete must not remove rows, got %d", len(res))
	}

	if err := m.DeleteBook("1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := m.HasBook("1", "u1"); ok {
		t.Fatalf("book should be gone")
	}

	// Deleting again is still a no-op.
	if err := m.DeleteBook("1", "u1"); err != nil {
		t.Fatalf("repeat delete should be silent: %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	m := NewMemoryStore()
	u, err := m.CreateUser(domain.User{Email: "a@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := m.CreateUser(domain.User{Email: "a@x.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, ok, err := m.GetUserByEmail("a@x.com")
	if err != nil || !ok {
		t.Fatalf("get user by email: ok=%v err=%v", ok, err)
	}
	if got.ID != u.ID {
		t.Fatalf("email lookup returned wrong user")
	}
}
