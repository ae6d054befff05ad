package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"bookgasm/internal/app"
	"bookgasm/internal/util"
	"bookgasm/pkg/domain"
)

const sessionCookieName = "bookgasm_session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App          *app.App
	SessionTTL   time.Duration
	CookieSecure bool
	// Google is nil when federation is not configured; the /auth/google
	// routes then return 404.
	Google      *oauth2.Config
	StateSecret []byte
	// UserinfoURL overrides the Google userinfo endpoint in tests.
	UserinfoURL string
}

// Server exposes the book-tracking HTTP surface.
type Server struct {
	app          *app.App
	mux          *http.ServeMux
	sessionTTL   time.Duration
	cookieSecure bool
	google       *oauth2.Config
	stateSecret  []byte
	userinfoURL  string
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	userinfoURL := cfg.UserinfoURL
	if userinfoURL == "" {
		userinfoURL = googleUserinfoURL
	}
	s := &Server{
		app:          cfg.App,
		mux:          http.NewServeMux(),
		sessionTTL:   ttl,
		cookieSecure: cfg.CookieSecure,
		google:       cfg.Google,
		stateSecret:  cfg.StateSecret,
		userinfoURL:  userinfoURL,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware stack applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/auth/google", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/books", s.handleGoogleCallback)

	// protected
	s.mux.Handle("/books", s.authenticated(s.handleBooks))
	s.mux.Handle("/add", s.authenticated(s.handleAdd))
	s.mux.Handle("/delete/", s.authenticated(s.handleDelete))
	s.mux.Handle("/logout", s.authenticated(s.handleLogout))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// authentication gate

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

// authenticated resolves the session cookie and hands the principal to
// the wrapped handler explicitly. No ambient request state is involved:
// a handler either receives a user or is never called.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.principal(r)
		if !ok {
			renderNotAuthenticated(w)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) principal(r *http.Request) (domain.User, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.User{}, false
	}
	return s.app.UserFromSession(cookie.Value)
}

func (s *Server) startSession(w http.ResponseWriter, user domain.User) error {
	token, err := s.app.IssueSession(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// public handlers

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		renderHTML(w, http.StatusOK, homeTmpl, nil)
	case http.MethodPost:
		s.handleLogin(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	// The login form posts the email under "username".
	email := r.PostFormValue("username")
	if email == "" {
		email = r.PostFormValue("email")
	}
	password := r.PostFormValue("password")

	user, err := s.app.Login(email, password)
	if errors.Is(err, app.ErrInvalidCredentials) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		logRequestError(r, "login", err)
		renderServerError(w)
		return
	}
	if err := s.startSession(w, user); err != nil {
		logRequestError(r, "start session", err)
		renderServerError(w)
		return
	}
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderHTML(w, http.StatusOK, registerTmpl, registerView{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			renderHTML(w, http.StatusBadRequest, registerTmpl, registerView{Error: "Invalid form submission."})
			return
		}
		_, err := s.app.Register(r.PostFormValue("email"), r.PostFormValue("password"))
		switch {
		case errors.Is(err, app.ErrEmailAndPasswordRequired):
			renderHTML(w, http.StatusBadRequest, registerTmpl, registerView{Error: "Email and password are required."})
		case errors.Is(err, app.ErrEmailAlreadyExists):
			renderHTML(w, http.StatusConflict, registerTmpl, registerView{Error: "That email is already registered."})
		case err != nil:
			logRequestError(r, "register", err)
			renderServerError(w)
		default:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		}
	default:
		methodNotAllowed(w)
	}
}

// protected handlers

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query().Get("q")
	sortKey := r.URL.Query().Get("sort")
	books, err := s.app.Books(user.ID, query, sortKey)
	if err != nil {
		logRequestError(r, "list books", err)
		renderServerError(w)
		return
	}
	renderHTML(w, http.StatusOK, booksTmpl, booksView{
		Query: query,
		Sort:  sortKey,
		Books: books,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		renderHTML(w, http.StatusOK, addBookTmpl, addBookView{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			renderHTML(w, http.StatusBadRequest, addBookTmpl, addBookView{Error: "Invalid form submission."})
			return
		}
		rating, err := parseRating(r.PostFormValue("rating"))
		if err != nil {
			renderHTML(w, http.StatusBadRequest, addBookTmpl, addBookView{Error: "Rating must be a whole number."})
			return
		}
		err = s.app.AddBook(user.ID, app.NewBook{
			ID:      r.PostFormValue("id"),
			Title:   r.PostFormValue("title"),
			Author:  r.PostFormValue("author"),
			Summary: r.PostFormValue("summary"),
			Link:    r.PostFormValue("link"),
			Rating:  rating,
		})
		switch {
		case errors.Is(err, app.ErrBookExists):
			renderBookConflict(w)
		case errors.Is(err, app.ErrInvalidBook):
			renderHTML(w, http.StatusBadRequest, addBookTmpl, addBookView{Error: "Book id and title are required."})
		case err != nil:
			logRequestError(r, "add book", err)
			renderServerError(w)
		default:
			http.Redirect(w, r, "/books", http.StatusSeeOther)
		}
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/delete/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if err := s.app.DeleteBook(user.ID, id); err != nil {
		logRequestError(r, "delete book", err)
		renderServerError(w)
		return
	}
	http.Redirect(w, r, "/books", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.app.Logout(cookie.Value); err != nil {
			logRequestError(r, "logout", err)
		}
	}
	s.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// helpers

func parseRating(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func logRequestError(r *http.Request, op string, err error) {
	util.LoggerFromContext(r.Context()).Error(op, "err", err)
}
