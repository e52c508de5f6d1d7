// Package cli is the todo command line. Run builds the cobra tree, executes
// it and maps the outcome to an exit code: 0 ok, 1 runtime error, 2 usage or
// validation error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options wires the CLI to its environment. Zero values mean the process's
// own stdin/stdout/stderr and the default config dir.
type Options struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	ConfigDir string
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	opt.defaults()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(opt)
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(opt.Stdin)
	root.SetOut(opt.Stdout)
	root.SetErr(opt.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	a.report(err)
	return exitCode(err)
}

// usageError marks bad invocations: wrong args, unknown flags, no session.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

var errNoSession = usageError{err: errors.New("not logged in. Run: todo login (or set TADA_TOKEN)")}

// actionError prefixes a failure with what the user was trying to do.
type actionError struct {
	action string
	err    error
}

func (e *actionError) Error() string { return e.action + ": " + ui.ErrorText(e.err) }
func (e *actionError) Unwrap() error { return e.err }

func failed(action string, err error) error {
	if err == nil {
		return nil
	}
	var verr *model.ValidationError
	var uerr usageError
	if errors.As(err, &verr) || errors.As(err, &uerr) {
		return err
	}
	return &actionError{action: action, err: err}
}

func exitCode(err error) int {
	var (
		schema *model.SchemaError
		verr   *model.ValidationError
		uerr   usageError
	)
	switch {
	case errors.As(err, &schema):
		return 1
	case errors.As(err, &verr), errors.As(err, &uerr):
		return 2
	}
	return 1
}

func (a *app) report(err error) {
	w := a.opt.Stderr
	var (
		schema *model.SchemaError
		verr   *model.ValidationError
	)
	if errors.As(err, &verr) && !errors.As(err, &schema) {
		ui.Fail(w, "invalid input")
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ui.Muted(w, fmt.Sprintf("  %s %s", name, verr.Fields[name]))
		}
		return
	}
	var ae *actionError
	if errors.As(err, &ae) {
		ui.Fail(w, ae.Error())
		return
	}
	ui.Fail(w, ui.ErrorText(err))
}
