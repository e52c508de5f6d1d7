package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idilsaglam/tada/internal/model"
)

func todos(ids ...string) []model.Todo {
	out := make([]model.Todo, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Todo{ID: id, Title: "t" + id, CreatedAt: "2024-01-01T00:00:00Z"})
	}
	return out
}

func ids(list []model.Todo) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	milk := model.Todo{ID: "42", Title: "Buy milk", CreatedAt: "2024-01-01T00:00:00Z"}
	done := milk
	done.Completed = true

	tests := []struct {
		name string
		list []model.Todo
		res  Result
		want []string
	}{
		{"create prepends", todos("1", "2"), Result{Kind: KindCreate, Todo: milk}, []string{"42", "1", "2"}},
		{"create into empty", nil, Result{Kind: KindCreate, Todo: milk}, []string{"42"}},
		{"create keeps ids unique", todos("1", "42", "2"), Result{Kind: KindCreate, Todo: milk}, []string{"42", "1", "2"}},
		{"duplicate prepends", todos("1"), Result{Kind: KindDuplicate, Todo: milk}, []string{"42", "1"}},
		{"toggle keeps order", todos("1", "42", "2"), Result{Kind: KindToggle, Todo: done, ID: "42"}, []string{"1", "42", "2"}},
		{"toggle unknown id", todos("1", "2"), Result{Kind: KindToggle, Todo: done, ID: "42"}, []string{"1", "2"}},
		{"update keeps order", todos("42", "1"), Result{Kind: KindUpdate, Todo: milk}, []string{"42", "1"}},
		{"delete removes", todos("1", "42", "2"), Result{Kind: KindDelete, ID: "42"}, []string{"1", "2"}},
		{"delete unknown id", todos("1", "2"), Result{Kind: KindDelete, ID: "42"}, []string{"1", "2"}},
		{"unknown kind", todos("1"), Result{Kind: "bogus"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(tt.list, tt.res)))
		})
	}
}

func TestApply_ToggleReplacesOnlyTarget(t *testing.T) {
	list := todos("1", "42", "2")
	done := list[1]
	done.Completed = true

	got := Apply(list, Result{Kind: KindToggle, Todo: done, ID: "42"})
	assert.True(t, got[1].Completed)
	assert.Equal(t, list[0], got[0])
	assert.Equal(t, list[2], got[2])
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	list := todos("1", "42")
	before := append([]model.Todo(nil), list...)
	done := list[1]
	done.Completed = true

	for _, r := range []Result{
		{Kind: KindCreate, Todo: model.Todo{ID: "9"}},
		{Kind: KindToggle, Todo: done, ID: "42"},
		{Kind: KindDelete, ID: "1"},
	} {
		out := Apply(list, r)
		if len(out) > 0 {
			out[0].Title = "mutated"
		}
		assert.Equal(t, before, list, "kind %s", r.Kind)
	}
}

func TestApply_ServerIDWins(t *testing.T) {
	list := []model.Todo{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}

	got := Apply(list, Result{Kind: KindToggle, ID: "1", Todo: model.Todo{ID: "2", Title: "x", Completed: true}})
	assert.Equal(t, []model.Todo{{ID: "1", Title: "a"}, {ID: "2", Title: "x", Completed: true}}, got)

	got = Apply(list, Result{Kind: KindUpdate, ID: "1", Todo: model.Todo{Title: "renamed"}})
	assert.Equal(t, []model.Todo{{ID: "1", Title: "renamed"}, {ID: "2", Title: "b"}}, got, "missing id falls back to the target")

	dup := []model.Todo{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}, {ID: "1", Title: "c"}}
	got = Apply(dup, Result{Kind: KindUpdate, ID: "1", Todo: model.Todo{ID: "1", Title: "z"}})
	assert.Equal(t, []string{"1", "2"}, ids(got))
	assert.Equal(t, "z", got[0].Title)

	got = Apply(list, Result{Kind: KindToggle, Todo: model.Todo{Title: "nobody"}})
	assert.Equal(t, list, got)
}
