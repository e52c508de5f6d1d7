package cache

import (
	"strings"

	"github.com/idilsaglam/tada/internal/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts all, active or completed in any case. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", model.NewValidationError("filter", "must be one of all, active, completed")
	}
}

func (f Filter) match(t model.Todo) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Visible returns the todos of list that pass f and contain search in their
// title or description, ignoring case. A blank search matches everything.
func Visible(list []model.Todo, f Filter, search string) []model.Todo {
	q := ""
	if strings.TrimSpace(search) != "" {
		q = strings.ToLower(search)
	}
	out := make([]model.Todo, 0, len(list))
	for _, t := range list {
		if !f.match(t) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func Stats(list []model.Todo) (done, pending int) {
	for _, t := range list {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}
