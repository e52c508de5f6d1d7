package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel draws a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	t := Current()
	maxw := 0
	for _, ln := range lines {
		if n := len([]rune(stripANSI(ln))); n > maxw {
			maxw = n
		}
	}
	pad := func(s string) string {
		if vis := len([]rune(stripANSI(s))); vis < maxw {
			s += strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(w, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(w, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(w, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// Row renders one todo as a single list line: box, title, id and age.
func Row(todo model.Todo, now time.Time) string {
	t := Current()
	box := C(t.Muted, t.BoxUnchecked)
	title := todo.Title
	if todo.Completed {
		box = C(t.Success, t.BoxChecked)
		title = C(t.Muted, title)
	}
	meta := C(t.Muted, fmt.Sprintf("#%s · %s", todo.ID, TimeAgo(todo.CreatedAt, now)))
	return fmt.Sprintf("%s %s  %s", box, title, meta)
}
