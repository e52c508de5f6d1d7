package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/normalize"
)

func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	const op = "list todos"
	b, err := c.do(ctx, op, http.MethodGet, "/todos", nil)
	if err != nil {
		return nil, err
	}
	payload, err := normalize.Decode(b)
	if err != nil {
		return nil, &model.SchemaError{Op: op, Err: err}
	}
	todos, err := normalize.Todos(payload)
	if err != nil {
		return nil, &model.SchemaError{Op: op, Err: err}
	}
	return todos, nil
}

func (c *Client) CreateTodo(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	const op = "create todo"
	b, err := c.do(ctx, op, http.MethodPost, "/todos", in)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(op, b)
}

// UpdateTodo sends only the non-nil fields of patch.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	const op = "update todo"
	if id == "" {
		return model.Todo{}, model.NewValidationError("id", "is required")
	}
	b, err := c.do(ctx, op, http.MethodPut, "/todos/"+url.PathEscape(id), patch)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(op, b)
}

func (c *Client) ToggleTodo(ctx context.Context, id string) (model.Todo, error) {
	const op = "toggle todo"
	if id == "" {
		return model.Todo{}, model.NewValidationError("id", "is required")
	}
	b, err := c.do(ctx, op, http.MethodPatch, "/todos/"+url.PathEscape(id)+"/toggle", nil)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(op, b)
}

// DeleteTodo ignores whatever body a 2xx answer carries.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	const op = "delete todo"
	if id == "" {
		return model.NewValidationError("id", "is required")
	}
	_, err := c.do(ctx, op, http.MethodDelete, "/todos/"+url.PathEscape(id), nil)
	return err
}

func decodeTodo(op string, b []byte) (model.Todo, error) {
	payload, err := normalize.Decode(b)
	if err != nil {
		return model.Todo{}, &model.SchemaError{Op: op, Err: err}
	}
	t, err := normalize.Todo(normalize.Unwrap(payload))
	if err != nil {
		return model.Todo{}, &model.SchemaError{Op: op, Err: err}
	}
	return t, nil
}
