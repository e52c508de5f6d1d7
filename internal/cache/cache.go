// Package cache keeps the client-side todo list in step with the server.
// Every change is applied only after the server confirms it; nothing is
// inserted or removed optimistically.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/model"
)

// ErrNoSession is returned by List when nobody is signed in. No request is sent.
var ErrNoSession = errors.New("not signed in")

// ErrUnknownTodo is returned by Duplicate when the source is not in the list.
var ErrUnknownTodo = errors.New("todo not in list")

// API is the part of api.Client the cache drives.
type API interface {
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in model.NewTodo) (model.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error)
	ToggleTodo(ctx context.Context, id string) (model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Session reports whether requests can be authenticated.
type Session interface {
	Authenticated() bool
}

// Event describes a finished operation. Err is nil on success.
// EditClosed is set when a successful update ends an edit.
type Event struct {
	Kind       Kind
	Todo       model.Todo
	ID         string
	Err        error
	EditClosed bool
}

type Cache struct {
	api      API
	session  Session
	log      *slog.Logger
	observer func(Event)
	flight   singleflight.Group

	mu      sync.Mutex
	todos   []model.Todo
	loaded  bool
	err     error
	pending map[Kind]int
	gen     uint64
}

type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver registers fn to be called after every operation finishes.
// It runs on the goroutine that issued the operation, outside any lock.
func WithObserver(fn func(Event)) Option {
	return func(c *Cache) { c.observer = fn }
}

func New(api API, session Session, opts ...Option) *Cache {
	c := &Cache{
		api:     api,
		session: session,
		log:     logging.Discard(),
		pending: map[Kind]int{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List fetches the full list and replaces the cached one. On failure the
// previous list is kept and the error is also available from Err.
// Concurrent calls share one request.
func (c *Cache) List(ctx context.Context) ([]model.Todo, error) {
	if !c.session.Authenticated() {
		return nil, ErrNoSession
	}
	gen := c.begin(KindList)
	v, err, shared := c.flight.Do("list", func() (any, error) {
		return c.api.ListTodos(ctx)
	})

	c.mu.Lock()
	c.pending[KindList]--
	current := gen == c.gen
	if current {
		if err != nil {
			c.err = err
		} else {
			c.todos = append([]model.Todo(nil), v.([]model.Todo)...)
			c.loaded = true
			c.err = nil
		}
	}
	out := append([]model.Todo(nil), c.todos...)
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("list failed", "err", err)
	} else {
		c.log.Debug("list loaded", "count", len(out), "shared", shared)
	}
	c.notify(Event{Kind: KindList, Err: err})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create sends in to the server and prepends the confirmed todo.
func (c *Cache) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Todo{}, model.NewValidationError("title", "is required")
	}
	return c.mutate(KindCreate, "", func() (model.Todo, error) {
		return c.api.CreateTodo(ctx, in)
	})
}

// Toggle flips completion of the todo with id and replaces it in place.
func (c *Cache) Toggle(ctx context.Context, id string) (model.Todo, error) {
	return c.mutate(KindToggle, id, func() (model.Todo, error) {
		return c.api.ToggleTodo(ctx, id)
	})
}

// Update sends the set fields of patch and replaces the todo in place.
func (c *Cache) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Todo{}, model.NewValidationError("title", "is required")
	}
	return c.mutate(KindUpdate, id, func() (model.Todo, error) {
		return c.api.UpdateTodo(ctx, id, patch)
	})
}

// Delete removes the todo with id once the server has deleted it.
func (c *Cache) Delete(ctx context.Context, id string) error {
	_, err := c.mutate(KindDelete, id, func() (model.Todo, error) {
		return model.Todo{}, c.api.DeleteTodo(ctx, id)
	})
	return err
}

// Duplicate creates a new todo with the title and description of the cached
// todo id. Completion is not copied.
func (c *Cache) Duplicate(ctx context.Context, id string) (model.Todo, error) {
	src, ok := c.Get(id)
	if !ok {
		return model.Todo{}, fmt.Errorf("duplicate %q: %w", id, ErrUnknownTodo)
	}
	in := model.NewTodo{Title: src.Title, Description: src.Description}
	return c.mutate(KindDuplicate, "", func() (model.Todo, error) {
		return c.api.CreateTodo(ctx, in)
	})
}

func (c *Cache) mutate(kind Kind, id string, call func() (model.Todo, error)) (model.Todo, error) {
	gen := c.begin(kind)
	t, err := call()

	res := Result{Kind: kind, Todo: t, ID: id}
	if kind == KindCreate || kind == KindDuplicate {
		res.ID = t.ID
	}
	if err == nil {
		t = res.confirmed()
	}

	c.mu.Lock()
	c.pending[kind]--
	if err == nil && gen == c.gen {
		c.todos = Apply(c.todos, res)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Debug("mutation failed", "kind", kind, "id", id, "err", err)
	} else {
		c.log.Debug("mutation applied", "kind", kind, "id", res.ID)
	}
	c.notify(Event{
		Kind:       kind,
		Todo:       t,
		ID:         res.ID,
		Err:        err,
		EditClosed: kind == KindUpdate && err == nil,
	})
	if err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

func (c *Cache) begin(kind Kind) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[kind]++
	return c.gen
}

func (c *Cache) notify(ev Event) {
	if c.observer != nil {
		c.observer(ev)
	}
}

// Todos returns a copy of the cached list.
func (c *Cache) Todos() []model.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Todo(nil), c.todos...)
}

func (c *Cache) Get(id string) (model.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.todos {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

// Loaded reports whether a List has succeeded since the last Reset.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Err is the error of the last List, or nil.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending is the number of outstanding operations of kind.
func (c *Cache) Pending(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[kind]
}

// Busy reports whether any operation is outstanding.
func (c *Cache) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.pending {
		if n > 0 {
			return true
		}
	}
	return false
}

// Reset drops the cached list. Operations still in flight finish but their
// results are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.todos = nil
	c.loaded = false
	c.err = nil
	c.gen++
	c.flight.Forget("list")
}
