package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/idilsaglam/tada/internal/forms"
)

// question is one value a command can ask for when its flag was not given.
type question struct {
	key    string // form field, as in the json tag
	label  string
	secret bool
	value  *string
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ask fills the empty answers. On a terminal it shows a form that validates
// each field against form's rules as the user types; otherwise it reads one
// line per missing value from stdin.
func (a *app) ask(form any, qs ...question) error {
	var missing []question
	for _, q := range qs {
		if *q.value == "" {
			missing = append(missing, q)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if isTerminal(a.opt.Stdin) {
		return a.askForm(form, missing)
	}
	return a.askLines(missing)
}

func (a *app) askForm(form any, qs []question) error {
	fields := make([]huh.Field, 0, len(qs))
	for _, q := range qs {
		in := huh.NewInput().
			Title(q.label).
			Value(q.value).
			Validate(func(s string) error {
				if !q.secret {
					s = strings.TrimSpace(s)
				}
				return forms.Field(form, q.key, s)
			})
		if q.secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, in)
	}
	err := huh.NewForm(huh.NewGroup(fields...)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return usagef("aborted")
	}
	return err
}

func (a *app) askLines(qs []question) error {
	if a.lines == nil {
		a.lines = bufio.NewScanner(a.opt.Stdin)
	}
	for _, q := range qs {
		fmt.Fprintf(a.opt.Stderr, "%s: ", q.label)
		if !a.lines.Scan() {
			if err := a.lines.Err(); err != nil {
				return fmt.Errorf("read %s: %w", q.key, err)
			}
			return usagef("missing %s", q.key)
		}
		*q.value = strings.TrimRight(a.lines.Text(), "\r")
	}
	return nil
}
