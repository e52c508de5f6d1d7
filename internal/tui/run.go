package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/cache"
)

// Run shows the todo screen until the user quits. It reports whether the
// user logged out on the way.
func Run(ctx context.Context, todos *cache.Cache, sess Session) (loggedOut bool, err error) {
	p := tea.NewProgram(New(ctx, todos, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("tui: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return false, nil
	}
	return fm.LoggedOut(), nil
}
