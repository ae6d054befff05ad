package app

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bookgasm/pkg/domain"
	"bookgasm/pkg/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(Config{
		Store:    store.NewMemoryStore(),
		Sessions: store.NewMemorySessionStore(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestRegisterThenLogin(t *testing.T) {
	a := newTestApp(t)

	registered, err := a.Register("A@X.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Email != "a@x.com" {
		t.Fatalf("email not normalized: %q", registered.Email)
	}
	if registered.PasswordHash == "pw1" || registered.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	user, err := a.Login("a@x.com", "pw1")
	if err != nil {
		t.Fatalf("login after register: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("login returned wrong user")
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.Register("a@x.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := a.Login("a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Login("nobody@x.com", "pw1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}

	// OAuth-only account: no password hash, password login must fail
	// with the same generic error.
	if _, err := a.Federate(domain.ExternalProfile{Email: "oauth@x.com"}); err != nil {
		t.Fatalf("federate: %v", err)
	}
	if _, err := a.Login("oauth@x.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("oauth-only login: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.Register("a@x.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := a.Register("a@x.com", "pw2"); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestFederateCreatesUserOnce(t *testing.T) {
	a := newTestApp(t)
	raw, _ := json.Marshal(map[string]string{"sub": "g-1", "email": "g@x.com", "name": "G"})
	profile := domain.ExternalProfile{Subject: "g-1", Email: "g@x.com", Name: "G", Raw: raw}

	first, err := a.Federate(profile)
	if err != nil {
		t.Fatalf("first federate: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("federated user must carry the inserted identity")
	}
	if first.PasswordHash != "" {
		t.Fatalf("federated user must have no password hash")
	}

	// Same profile again, now with changed claims: same user, no sync.
	profile.Name = "Changed"
	second, err := a.Federate(profile)
	if err != nil {
		t.Fatalf("second federate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat federation created a second user")
	}
}

func TestFederateRequiresEmail(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.Federate(domain.ExternalProfile{Subject: "g-1"}); !errors.Is(err, ErrProfileEmailRequired) {
		t.Fatalf("expected ErrProfileEmailRequired, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	a := newTestApp(t)
	user, err := a.Register("a@x.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := a.IssueSession(user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	got, ok := a.UserFromSession(token)
	if !ok || got.ID != user.ID {
		t.Fatalf("session did not resolve to user, ok=%v", ok)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("deserialize must refetch the full row, got %+v", got)
	}

	if err := a.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := a.UserFromSession(token); ok {
		t.Fatalf("session must be gone after logout")
	}
	if _, ok := a.UserFromSession("forged-token"); ok {
		t.Fatalf("unknown token must not authenticate")
	}
}

func TestAddBookDerivesImageAndRejectsDuplicates(t *testing.T) {
	a := newTestApp(t)
	user, _ := a.Register("a@x.com", "pw1")

	if err := a.AddBook(user.ID, NewBook{ID: "123", Title: "T", Rating: 4}); err != nil {
		t.Fatalf("add book: %v", err)
	}
	books, err := a.Books(user.ID, "", "")
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(books))
	}
	if books[0].Image != "https://covers.openlibrary.org/b/isbn/123-M.jpg" {
		t.Fatalf("unexpected derived image: %q", books[0].Image)
	}

	if err := a.AddBook(user.ID, NewBook{ID: "123", Title: "Again"}); !errors.Is(err, ErrBookExists) {
		t.Fatalf("expected ErrBookExists, got %v", err)
	}
	books, _ = a.Books(user.ID, "", "")
	if len(books) != 1 {
		t.Fatalf("conflict must not change row count, got %d", len(books))
	}

	if err := a.AddBook(user.ID, NewBook{Title: "No ID"}); !errors.Is(err, ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook, got %v", err)
	}
}

func TestBooksSearchAndSort(t *testing.T) {
	a := newTestApp(t)
	user, _ := a.Register("a@x.com", "pw1")
	for _, b := range []NewBook{
		{ID: "1", Title: "War and Peace", Rating: 5},
		{ID: "2", Title: "Anna Karenina", Rating: 4},
		{ID: "3", Title: "The Art of War", Rating: 3},
	} {
		if err := a.AddBook(user.ID, b); err != nil {
			t.Fatalf("add %s: %v", b.ID, err)
		}
	}

	matches, err := a.Books(user.ID, "war", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("search %q: expected 2 matches, got %d", "war", len(matches))
	}

	byRating, err := a.Books(user.ID, "", "rating")
	if err != nil {
		t.Fatalf("sort by rating: %v", err)
	}
	if len(byRating) != 3 {
		t.Fatalf("sort by rating returned %d books", len(byRating))
	}
	if byRating[0].Rating != 5 || byRating[2].Rating != 3 {
		t.Fatalf("ratings not descending: %+v", byRating)
	}

	byTitle, err := a.Books(user.ID, "", "title")
	if err != nil {
		t.Fatalf("sort by title: %v", err)
	}
	if byTitle[0].Title != "Anna Karenina" {
		t.Fatalf("titles not ascending: %+v", byTitle)
	}

	// Unknown sort keys leave the unsorted list in place, no error.
	plain, err := a.Books(user.ID, "", "bogus")
	if err != nil {
		t.Fatalf("bogus sort key: %v", err)
	}
	if len(plain) != 3 {
		t.Fatalf("bogus sort key should return all books, got %d", len(plain))
	}
}

func TestDeleteBookScopedToOwner(t *testing.T) {
	a := newTestApp(t)
	owner, _ := a.Register("a@x.com", "pw1")
	other, _ := a.Register("b@x.com", "pw2")
	if err := a.AddBook(owner.ID, NewBook{ID: "1", Title: "T"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := a.DeleteBook(other.ID, "1"); err != nil {
		t.Fatalf("cross-user delete should be a no-op: %v", err)
	}
	books, _ := a.Books(owner.ID, "", "")
	if len(books) != 1 {
		t.Fatalf("owner lost a row to another user's delete")
	}

	if err := a.DeleteBook(owner.ID, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	books, _ = a.Books(owner.ID, "", "")
	if len(books) != 0 {
		t.Fatalf("book not deleted")
	}
	if err := a.DeleteBook(owner.ID, "missing"); err != nil {
		t.Fatalf("deleting a missing id must be silent: %v", err)
	}
}
