package server

import (
	"html/template"
	"log/slog"
	"net/http"

	"bookgasm/pkg/domain"
)

// Server-rendered pages. The markup is intentionally minimal; styling
// and static assets live outside this service.
var (
	homeTmpl = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>BookGasm</title></head>
<body>
<h1>BookGasm</h1>
<form method="post" action="/">
  <input type="email" name="username" placeholder="Email" required>
  <input type="password" name="password" placeholder="Password" required>
  <button type="submit">Log in</button>
</form>
<p><a href="/register">Create an account</a></p>
<p><a href="/auth/google">Sign in with Google</a></p>
</body>
</html>`))

	registerTmpl = template.Must(template.New("register").Parse(`<!DOCTYPE html>
<html>
<head><title>Register</title></head>
<body>
<h1>Register</h1>
{{if .Error}}<p>{{.Error}}</p>{{end}}
<form method="post" action="/register">
  <input type="email" name="email" placeholder="Email" required>
  <input type="password" name="password" placeholder="Password" required>
  <button type="submit">Register</button>
</form>
<p><a href="/">Back to login</a></p>
</body>
</html>`))

	booksTmpl = template.Must(template.New("books").Parse(`<!DOCTYPE html>
<html>
<head><title>Your books</title></head>
<body>
<h1>Your books</h1>
<form method="get" action="/books">
  <input type="text" name="q" placeholder="Search by title" value="{{.Query}}">
  <button type="submit">Search</button>
</form>
<p>
  Sort: <a href="/books?sort=rating">rating</a> | <a href="/books?sort=title">title</a>{{if .Sort}} (sorted by {{.Sort}}){{end}}
</p>
<ul>
{{range .Books}}
  <li>
    <img src="{{.Image}}" alt="">
    <strong>{{.Title}}</strong> by {{.Author}} (rating {{.Rating}})
    {{if .Link}}<a href="{{.Link}}">link</a>{{end}}
    <p>{{.Summary}}</p>
    <form method="post" action="/delete/{{.ID}}"><button type="submit">Delete</button></form>
  </li>
{{else}}
  <li>No books yet.</li>
{{end}}
</ul>
<p><a href="/add">Add a book</a></p>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
</body>
</html>`))

	addBookTmpl = template.Must(template.New("add").Parse(`<!DOCTYPE html>
<html>
<head><title>Add a book</title></head>
<body>
<h1>Add a book</h1>
{{if .Error}}<p>{{.Error}}</p>{{end}}
<form method="post" action="/add">
  <input type="text" name="id" placeholder="ISBN" required>
  <input type="text" name="title" placeholder="Title" required>
  <input type="text" name="author" placeholder="Author">
  <textarea name="summary" placeholder="Summary"></textarea>
  <input type="url" name="link" placeholder="Link">
  <input type="number" name="rating" min="0" max="5" placeholder="Rating">
  <button type="submit">Add</button>
</form>
<p><a href="/books">Back to books</a></p>
</body>
</html>`))

	messageTmpl = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Heading}}</h1>
{{if .BackLink}}<p><a href="{{.BackLink}}">Back</a></p>{{end}}
</body>
</html>`))
)

type registerView struct {
	Error string
}

type booksView struct {
	Query string
	Sort  string
	Books []domain.Book
}

type addBookView struct {
	Error string
}

type messageView struct {
	Title    string
	Heading  string
	BackLink string
}

func renderHTML(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("render template", "template", tmpl.Name(), "err", err)
	}
}

// Fixed denial page for unauthenticated access to protected routes.
func renderNotAuthenticated(w http.ResponseWriter) {
	renderHTML(w, http.StatusUnauthorized, messageTmpl, messageView{
		Title:    "Not Authenticated",
		Heading:  "Not Authenticated",
		BackLink: "/",
	})
}

// Generic failure page; the underlying error is logged, never shown.
func renderServerError(w http.ResponseWriter) {
	renderHTML(w, http.StatusInternalServerError, messageTmpl, messageView{
		Title:    "Something went wrong",
		Heading:  "Something went wrong",
		BackLink: "/",
	})
}

func renderBookConflict(w http.ResponseWriter) {
	renderHTML(w, http.StatusConflict, messageTmpl, messageView{
		Title:    "Book already exists",
		Heading:  "Book already exists",
		BackLink: "/books",
	})
}
