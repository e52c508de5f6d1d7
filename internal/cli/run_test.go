package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idilsaglam/tada/internal/model"
)

func TestExitCode(t *testing.T) {
	schema := &model.SchemaError{Op: "list todos", Err: model.NewValidationError("title", "is required")}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", model.NewValidationError("email", "is required"), 2},
		{"usage", usagef("usage: todo done <id>"), 2},
		{"no session", errNoSession, 2},
		{"bad response wraps a field error", schema, 1},
		{"api", failed("could not add todo", &model.APIError{Status: 500}), 1},
		{"wrapped usage", fmt.Errorf("x: %w", errNoSession), 2},
		{"plain", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.name)
	}
}

func TestFailed_PassesInputErrorsThrough(t *testing.T) {
	verr := model.NewValidationError("title", "is required")
	assert.Same(t, verr, failed("could not add todo", verr))
	assert.Nil(t, failed("x", nil))

	err := failed("could not delete todo", &model.APIError{Status: 404, Message: "Todo not found"})
	assert.EqualError(t, err, "could not delete todo: Todo not found")
}
