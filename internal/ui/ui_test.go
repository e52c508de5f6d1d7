package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-10T11:59:18.000Z", "42s ago"},
		{"2024-03-10T12:00:05Z", "0s ago"},
		{"2024-03-10T11:55:00Z", "5m ago"},
		{"2024-03-10T09:00:00Z", "3h ago"},
		{"2024-03-08T12:00:00Z", "2d ago"},
		{"2024-03-03T11:00:00Z", time.Date(2024, 3, 3, 11, 0, 0, 0, time.UTC).Local().Format("2006-01-02")},
		{"yesterday", "yesterday"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeAgo(tt.in, now), tt.in)
	}
}

func TestCopyText(t *testing.T) {
	assert.Equal(t, "Buy milk", CopyText(model.Todo{Title: "Buy milk"}))
	assert.Equal(t, "Buy milk — oat", CopyText(model.Todo{Title: "Buy milk", Description: "oat"}))
}

func TestCopy_SwallowsFailures(t *testing.T) {
	orig := writeClipboard
	defer func() { writeClipboard = orig }()

	writeClipboard = func(string) error { return errors.New("no display") }
	assert.NotPanics(t, func() { Copy("x") })
	assert.False(t, Copy("x"))
}

func TestSetTheme(t *testing.T) {
	defer func() { _ = SetTheme("classic") }()

	require.NoError(t, SetTheme("MONO"))
	assert.Equal(t, "mono", Current().Name)
	assert.Equal(t, "[x]", Current().BoxChecked)

	err := SetTheme("sparkly")
	assert.Error(t, err)
	assert.Equal(t, "mono", Current().Name, "unknown theme keeps the current one")
}

func TestPanel(t *testing.T) {
	SetColorForcing(false, true)
	defer SetColorForcing(false, false)
	require.NoError(t, SetTheme("mono"))
	defer func() { _ = SetTheme("classic") }()

	var buf bytes.Buffer
	Panel(&buf, []string{"Todos", "a longer line"})
	assert.Equal(t, strings.Join([]string{
		"+---------------+",
		"| Todos         |",
		"| a longer line |",
		"+---------------+",
		"",
	}, "\n"), buf.String())
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
}

func TestRow(t *testing.T) {
	SetColorForcing(false, true)
	defer SetColorForcing(false, false)
	now := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)

	row := Row(model.Todo{ID: "42", Title: "Buy milk", Completed: true, CreatedAt: "2024-01-01T00:00:00Z"}, now)
	assert.Equal(t, "☑ Buy milk  #42 · 5m ago", row)
}

func TestOKAndFail_Plain(t *testing.T) {
	SetColorForcing(false, true)
	defer SetColorForcing(false, false)
	var buf bytes.Buffer
	OK(&buf, "saved")
	Fail(&buf, "nope")
	assert.Equal(t, "✔ saved\n✖ nope\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{model.NewValidationError("title", "is required"), "invalid title: is required"},
		{&model.SchemaError{Op: "list todos", Err: errors.New("todos[0]: bad")}, "unexpected response from server"},
		{&model.AuthError{Op: "login", Err: &model.APIError{Op: "login", Status: 401, Message: "Invalid credentials"}}, "Invalid credentials"},
		{&model.APIError{Op: "delete todo", Status: 502}, "server answered 502"},
		{errors.New("dial tcp: refused"), "dial tcp: refused"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorText(tt.err))
	}
}
