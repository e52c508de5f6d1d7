package ui

import (
	"github.com/atotto/clipboard"

	"github.com/idilsaglam/tada/internal/model"
)

// CopyText is what gets copied for a todo: the title, then " — " and the
// description when there is one.
func CopyText(t model.Todo) string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + " — " + t.Description
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// Copy puts text on the system clipboard and reports whether it worked.
// Failures are not errors: copying is a convenience.
func Copy(text string) bool {
	if clipboard.Unsupported {
		return false
	}
	return writeClipboard(text) == nil
}
