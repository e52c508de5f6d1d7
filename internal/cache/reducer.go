package cache

import "github.com/idilsaglam/tada/internal/model"

// Kind names a cache operation.
type Kind string

const (
	KindList      Kind = "list"
	KindCreate    Kind = "create"
	KindToggle    Kind = "toggle"
	KindUpdate    Kind = "update"
	KindDelete    Kind = "delete"
	KindDuplicate Kind = "duplicate"
)

// Mutations lists the kinds that change a single todo.
var Mutations = []Kind{KindCreate, KindToggle, KindUpdate, KindDelete, KindDuplicate}

// Result is a server-confirmed mutation. ID is the identifier the mutation
// targeted; for create and duplicate it is the new todo's id.
type Result struct {
	Kind Kind
	Todo model.Todo
	ID   string
}

// confirmed is the todo as it should appear in the list. The server's id wins;
// a response without one keeps the id the mutation targeted.
func (r Result) confirmed() model.Todo {
	t := r.Todo
	if t.ID == "" {
		t.ID = r.ID
	}
	return t
}

// Apply merges r into list and returns the new list. list is never modified.
func Apply(list []model.Todo, r Result) []model.Todo {
	switch r.Kind {
	case KindCreate, KindDuplicate:
		out := make([]model.Todo, 0, len(list)+1)
		out = append(out, r.Todo)
		for _, t := range list {
			if r.Todo.ID != "" && t.ID == r.Todo.ID {
				continue
			}
			out = append(out, t)
		}
		return out
	case KindToggle, KindUpdate:
		t := r.confirmed()
		out := make([]model.Todo, 0, len(list))
		replaced := false
		for _, cur := range list {
			if t.ID == "" || cur.ID != t.ID {
				out = append(out, cur)
				continue
			}
			// first match is replaced in place, later ones dropped
			if !replaced {
				out = append(out, t)
				replaced = true
			}
		}
		return out
	case KindDelete:
		out := make([]model.Todo, 0, len(list))
		for _, t := range list {
			if t.ID != r.ID {
				out = append(out, t)
			}
		}
		return out
	default:
		return append([]model.Todo(nil), list...)
	}
}
