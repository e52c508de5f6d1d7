package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/api/apitest"
	"github.com/idilsaglam/tada/internal/model"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newClient(t *testing.T) (*apitest.Server, *Client, string) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	tok := srv.AddUser("Ada", "ada@example.com", "secret1")
	return srv, New(srv.URL, WithTokenSource(staticToken(tok))), tok
}

func TestLoginAndSignup(t *testing.T) {
	srv, _, _ := newClient(t)
	c := New(srv.URL)

	res, err := c.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, res.User)

	res, err = c.Signup(context.Background(), "Bob", "bob@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", res.User.Email)

	reqs := srv.Requests()
	assert.Equal(t, "POST", reqs[1].Method)
	assert.Equal(t, "/auth/signup", reqs[1].Path)
	assert.Equal(t, map[string]any{"name": "Bob", "email": "bob@example.com", "password": "hunter22"}, reqs[1].Body)
	assert.Empty(t, reqs[1].Auth, "no token, no header")
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _, _ := newClient(t)
	_, err := New(srv.URL).Login(context.Background(), "ada@example.com", "wrong")

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, "login", apiErr.Op)
}

func TestAuth_SchemaErrors(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing token":    `{"user":{"id":"1","name":"a","email":"a@b.co"}}`,
		"bad email":        `{"token":"t","user":{"id":"1","name":"a","email":"nope"}}`,
		"token wrong type": `{"token":5,"user":{"id":"1","name":"a","email":"a@b.co"}}`,
		"missing user":     `{"token":"t"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer ts.Close()

			_, err := New(ts.URL).Login(context.Background(), "a@b.co", "secret1")
			var schemaErr *model.SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			var apiErr *model.APIError
			assert.False(t, errors.As(err, &apiErr))
		})
	}
}

func TestForgot_Polymorphic(t *testing.T) {
	srv, _, _ := newClient(t)
	c := New(srv.URL)

	res, err := c.Forgot(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, res.HasResetToken())
	assert.NotEmpty(t, res.Message)

	srv.DevReset = true
	res, err = c.Forgot(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.True(t, res.HasResetToken())
	assert.NotEmpty(t, res.ExpiresAt)

	auth, err := c.Reset(context.Background(), res.ResetToken, "newpass1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", auth.User.Email)

	_, err = c.Login(context.Background(), "ada@example.com", "newpass1")
	assert.NoError(t, err)
}

func TestForgot_EmptyPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Forgot(context.Background(), "a@b.co")
	var schemaErr *model.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestBearerHeader_ReadAtDispatch(t *testing.T) {
	srv, _, tok := newClient(t)
	var current atomic.Value
	current.Store(tok)
	c := New(srv.URL, WithTokenSource(TokenFunc(func() string { return current.Load().(string) })))

	_, err := c.ListTodos(context.Background())
	require.NoError(t, err)

	current.Store("")
	_, err = c.ListTodos(context.Background())
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer "+tok, reqs[0].Auth)
	assert.Empty(t, reqs[1].Auth)
}

func TestWithTokens_CopiesClient(t *testing.T) {
	srv, _, tok := newClient(t)
	base := New(srv.URL)
	authed := base.WithTokens(staticToken(tok))

	_, err := authed.ListTodos(context.Background())
	require.NoError(t, err)
	_, err = base.ListTodos(context.Background())
	assert.Error(t, err, "base client stays anonymous")
}

func TestTodoLifecycle(t *testing.T) {
	for _, style := range []apitest.IDStyle{apitest.NumericID, apitest.MongoID} {
		for _, wrap := range []bool{false, true} {
			srv, c, _ := newClient(t)
			srv.Style, srv.Wrap = style, wrap
			ctx := context.Background()

			created, err := c.CreateTodo(ctx, model.NewTodo{Title: "Buy milk"})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "Buy milk", created.Title)
			assert.Equal(t, "", created.Description)
			assert.False(t, created.Completed)
			assert.NotEmpty(t, created.CreatedAt)

			toggled, err := c.ToggleTodo(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, toggled.ID)
			assert.True(t, toggled.Completed)

			title := "Buy oat milk"
			updated, err := c.UpdateTodo(ctx, created.ID, model.TodoPatch{Title: &title})
			require.NoError(t, err)
			assert.Equal(t, title, updated.Title)
			assert.True(t, updated.Completed, "untouched fields survive a partial update")

			list, err := c.ListTodos(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, updated, list[0])

			require.NoError(t, c.DeleteTodo(ctx, created.ID))
			list, err = c.ListTodos(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		}
	}
}

func TestUpdate_SendsOnlySetFields(t *testing.T) {
	srv, c, _ := newClient(t)
	id := srv.AddTodo("ada@example.com", "a", "b", false)

	desc := "new description"
	_, err := c.UpdateTodo(context.Background(), id, model.TodoPatch{Description: &desc})
	require.NoError(t, err)

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "PUT", last.Method)
	assert.Equal(t, "/todos/"+id, last.Path)
	assert.Equal(t, map[string]any{"description": "new description"}, last.Body)
}

func TestDelete_NotFound(t *testing.T) {
	_, c, _ := newClient(t)
	err := c.DeleteTodo(context.Background(), "42")

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Todo not found", apiErr.Message)
}

func TestEmptyID(t *testing.T) {
	_, c, _ := newClient(t)
	var verr *model.ValidationError

	_, err := c.ToggleTodo(context.Background(), "")
	assert.True(t, errors.As(err, &verr))
	_, err = c.UpdateTodo(context.Background(), "", model.TodoPatch{})
	assert.True(t, errors.As(err, &verr))
	assert.True(t, errors.As(c.DeleteTodo(context.Background(), ""), &verr))
}

func TestList_RejectsWholeListOnBadRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"todos":[{"id":1,"title":"ok","completed":false,"createdAt":"x"},{"id":2,"completed":false,"createdAt":"x"}]}`))
	}))
	defer ts.Close()

	todos, err := New(ts.URL).ListTodos(context.Background())
	assert.Nil(t, todos)
	var schemaErr *model.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr), "the normalizer's field error is still reachable")
}

func TestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"1","title":"a","completed":false,"createdAt":"x"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL+"/", WithTokenSource(staticToken("abc"))).CreateTodo(context.Background(), model.NewTodo{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"nope"}`, "nope"},
		{`{"error":"bad"}`, "bad"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"status":"x"}`, ""},
		{`Service Unavailable`, "Service Unavailable"},
		{`<html></html>`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, serverMessage([]byte(tt.body)), tt.body)
	}
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).ListTodos(context.Background())
	require.Error(t, err)
	var apiErr *model.APIError
	var schemaErr *model.SchemaError
	assert.False(t, errors.As(err, &apiErr))
	assert.False(t, errors.As(err, &schemaErr))
}
