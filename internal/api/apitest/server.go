// Package apitest runs an in-memory todo backend over httptest for tests.
// It deliberately varies its todo encoding (numeric `id`, Mongo `_id`,
// wrapped or bare bodies) the way real servers do.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// IDStyle selects how todo identifiers are encoded on the wire.
type IDStyle int

const (
	// NumericID sends {"id": 42, "createdAt": "<RFC3339>"}.
	NumericID IDStyle = iota
	// MongoID sends {"_id": {"$oid": "..."}, "createdAt": <epoch ms>}.
	MongoID
)

// Base is the creation time of the first todo; each next one is a minute later.
var Base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type user struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type todo struct {
	n           int
	owner       string
	title       string
	description string
	completed   bool
	createdAt   time.Time
}

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	// Style and Wrap control todo encoding; change them before issuing requests.
	Style IDStyle
	Wrap  bool
	// DevReset makes /auth/forgot return the reset token instead of a message.
	DevReset bool

	mu       sync.Mutex
	users    map[string]*user // by email
	tokens   map[string]string
	resets   map[string]string
	todos    []*todo
	next     int
	requests []Request
	failures map[string]failure
	delay    map[string]chan struct{}
}

func NewServer() *Server {
	s := &Server{
		users:    map[string]*user{},
		tokens:   map[string]string{},
		resets:   map[string]string{},
		failures: map[string]failure{},
		delay:    map[string]chan struct{}{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", s.signup)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/forgot", s.forgot)
	mux.HandleFunc("POST /auth/reset", s.reset)
	mux.HandleFunc("GET /todos", s.list)
	mux.HandleFunc("POST /todos", s.create)
	mux.HandleFunc("PUT /todos/{id}", s.update)
	mux.HandleFunc("PATCH /todos/{id}/toggle", s.toggle)
	mux.HandleFunc("DELETE /todos/{id}", s.remove)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: "u" + strconv.Itoa(len(s.users)+1), Name: name, Email: email, Password: password}
	s.users[email] = u
	return s.issueLocked(u)
}

// AddTodo seeds a todo for the account and returns its wire id.
func (s *Server) AddTodo(email, title, description string, completed bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.newTodoLocked(email, title, description)
	t.completed = completed
	return s.idLocked(t)
}

// Fail makes the next request matching "METHOD /path" answer with status.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Hold blocks requests matching route until the returned func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.delay[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many recorded requests match "METHOD /path".
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method+" "+r.Path == route {
			n++
		}
	}
	return n
}

// ResetTokenFor returns the outstanding reset token for email.
func (s *Server) ResetTokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, e := range s.resets {
		if e == email {
			return tok
		}
	}
	return ""
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &body)
			r.Body = io.NopCloser(strings.NewReader(string(b)))
		}
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		f, failing := s.failures[route]
		delete(s.failures, route)
		hold := s.delay[route]
		delete(s.delay, route)
		s.mu.Unlock()

		if hold != nil {
			<-hold
		}
		if failing {
			writeJSON(w, f.status, map[string]any{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueLocked(u *user) string {
	tok := fmt.Sprintf("tok-%s-%d", u.ID, len(s.tokens)+1)
	s.tokens[tok] = u.Email
	return tok
}

func (s *Server) authResponse(u *user, tok string) map[string]any {
	return map[string]any{
		"token": tok,
		"user":  map[string]any{"id": u.ID, "name": u.Name, "email": u.Email},
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in struct{ Name, Email, Password string }
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[in.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Email already registered"})
		return
	}
	u := &user{ID: "u" + strconv.Itoa(len(s.users)+1), Name: in.Name, Email: in.Email, Password: in.Password}
	s.users[in.Email] = u
	writeJSON(w, http.StatusCreated, s.authResponse(u, s.issueLocked(u)))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[in.Email]
	if !ok || u.Password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, s.authResponse(u, s.issueLocked(u)))
}

func (s *Server) forgot(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email string }
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Email]; ok {
		tok := fmt.Sprintf("reset-%08d", len(s.resets)+1)
		s.resets[tok] = in.Email
		if s.DevReset {
			writeJSON(w, http.StatusOK, map[string]any{
				"resetToken": tok,
				"expiresAt":  Base.Add(time.Hour).Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "If that email exists, a reset link has been sent"})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	var in struct{ Token, Password string }
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[in.Token]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid or expired token"})
		return
	}
	delete(s.resets, in.Token)
	u := s.users[email]
	u.Password = in.Password
	writeJSON(w, http.StatusOK, s.authResponse(u, s.issueLocked(u)))
}

func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	email, ok := s.tokens[tok]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
	}
	return email, ok
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []any{}
	// newest first, like most backends
	for i := len(s.todos) - 1; i >= 0; i-- {
		if s.todos[i].owner == email {
			out = append(out, s.encodeLocked(s.todos[i]))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": out})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}
	var in struct{ Title, Description string }
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Title is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.newTodoLocked(email, in.Title, in.Description)
	s.writeTodoLocked(w, http.StatusCreated, t)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}
	var in struct {
		Title       *string
		Description *string
		Completed   *bool
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findLocked(email, r.PathValue("id"))
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Todo not found"})
		return
	}
	if in.Title != nil {
		t.title = *in.Title
	}
	if in.Description != nil {
		t.description = *in.Description
	}
	if in.Completed != nil {
		t.completed = *in.Completed
	}
	s.writeTodoLocked(w, http.StatusOK, t)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.findLocked(email, r.PathValue("id"))
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Todo not found"})
		return
	}
	t.completed = !t.completed
	s.writeTodoLocked(w, http.StatusOK, t)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	for i, t := range s.todos {
		if t.owner == email && s.idLocked(t) == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Todo not found"})
}

func (s *Server) newTodoLocked(email, title, description string) *todo {
	s.next++
	t := &todo{
		n:           s.next,
		owner:       email,
		title:       title,
		description: description,
		createdAt:   Base.Add(time.Duration(s.next-1) * time.Minute),
	}
	s.todos = append(s.todos, t)
	return t
}

func (s *Server) findLocked(email, id string) *todo {
	for _, t := range s.todos {
		if t.owner == email && s.idLocked(t) == id {
			return t
		}
	}
	return nil
}

func (s *Server) idLocked(t *todo) string {
	if s.Style == MongoID {
		return fmt.Sprintf("65a1f0c2e4b0a1b2c3%06x", t.n)
	}
	return strconv.Itoa(t.n)
}

func (s *Server) encodeLocked(t *todo) map[string]any {
	m := map[string]any{
		"title":     t.title,
		"completed": t.completed,
	}
	if t.description != "" {
		m["description"] = t.description
	}
	switch s.Style {
	case MongoID:
		m["_id"] = map[string]any{"$oid": s.idLocked(t)}
		m["createdAt"] = t.createdAt.UnixMilli()
	default:
		m["id"] = t.n
		m["createdAt"] = t.createdAt.Format(time.RFC3339)
	}
	return m
}

func (s *Server) writeTodoLocked(w http.ResponseWriter, status int, t *todo) {
	var body any = s.encodeLocked(t)
	if s.Wrap {
		body = map[string]any{"todo": body}
	}
	writeJSON(w, status, body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Malformed JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
