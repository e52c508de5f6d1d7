package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/forms"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Interactive todo list (default)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}
}

func (a *app) runTUI(cmd *cobra.Command) error {
	if err := a.signedIn(); err != nil {
		return err
	}
	loggedOut, err := tui.Run(cmd.Context(), a.todos, a.sess)
	if err != nil {
		return err
	}
	if loggedOut {
		ui.OK(a.opt.Stdout, "logged out")
	}
	return nil
}

type listFlags struct {
	filter string
	search string
	group  bool
	json   bool
}

func newListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := cache.ParseFilter(f.filter)
			if err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}
			all, err := a.todos.List(cmd.Context())
			if err != nil {
				return failed("could not load todos", err)
			}
			visible := cache.Visible(all, filter, f.search)
			if f.json {
				enc := json.NewEncoder(a.opt.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(visible)
			}
			a.printList(all, visible, f.group)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.filter, "filter", "all", "all, active or completed")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive text in title or description")
	cmd.Flags().BoolVar(&f.group, "group", false, "group output by pending/done")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the todos as JSON")
	return cmd
}

func (a *app) printList(all, visible []model.Todo, group bool) {
	t := ui.Current()
	done, pending := cache.Stats(all)
	lines := []string{
		fmt.Sprintf("%s   %s %d  %s %d  %s %d",
			ui.C(t.Title, "Todos"),
			ui.C(t.Success, t.SymDone), done,
			ui.C(t.Pending, t.SymPending), pending,
			ui.C(t.Accent, "Total"), len(all)),
		ui.ProgressBar(done, len(all), 24),
	}
	if len(visible) == 0 {
		lines = append(lines, "", ui.C(t.Muted, "no todos"))
		ui.Panel(a.opt.Stdout, lines)
		return
	}
	now := a.now()
	if !group {
		lines = append(lines, "")
		for _, todo := range visible {
			lines = append(lines, ui.Row(todo, now))
		}
		ui.Panel(a.opt.Stdout, lines)
		return
	}
	for _, section := range []struct {
		name      string
		completed bool
	}{{"Pending", false}, {"Done", true}} {
		var rows []string
		for _, todo := range visible {
			if todo.Completed == section.completed {
				rows = append(rows, "  "+ui.Row(todo, now))
			}
		}
		if len(rows) == 0 {
			continue
		}
		lines = append(lines, "", ui.C(t.Title, fmt.Sprintf("%s (%d)", section.name, len(rows))))
		lines = append(lines, rows...)
	}
	ui.Panel(a.opt.Stdout, lines)
}

func newAddCmd(a *app) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (the title can be several words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: todo add <title...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := forms.Todo{Title: strings.Join(args, " "), Description: desc}
			if err := forms.Validate(&f); err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}
			t, err := a.todos.Create(cmd.Context(), model.NewTodo{Title: f.Title, Description: f.Description})
			if err != nil {
				return failed("could not add todo", err)
			}
			ui.OK(a.opt.Stdout, fmt.Sprintf("added #%s %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "optional description")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between pending and done",
		Args:  exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(); err != nil {
				return err
			}
			t, err := a.todos.Toggle(cmd.Context(), args[0])
			if err != nil {
				return failed("could not update status", err)
			}
			state := "pending"
			if t.Completed {
				state = "done"
			}
			ui.OK(a.opt.Stdout, fmt.Sprintf("#%s is %s", t.ID, state))
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var title, desc string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title and/or description of a todo",
		Args:  exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TodoPatch
			if cmd.Flags().Changed("title") {
				f := forms.Todo{Title: title}
				if err := forms.Validate(&f); err != nil {
					return err
				}
				patch.Title = &f.Title
			}
			if cmd.Flags().Changed("description") {
				d := strings.TrimSpace(desc)
				patch.Description = &d
			}
			if patch.Title == nil && patch.Description == nil {
				return usagef("nothing to change: pass --title and/or --description")
			}
			if err := a.signedIn(); err != nil {
				return err
			}
			t, err := a.todos.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return failed("could not save changes", err)
			}
			ui.OK(a.opt.Stdout, fmt.Sprintf("saved #%s %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description (empty clears it)")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(); err != nil {
				return err
			}
			if err := a.todos.Delete(cmd.Context(), args[0]); err != nil {
				return failed("could not delete todo", err)
			}
			ui.OK(a.opt.Stdout, "deleted #"+args[0])
			return nil
		},
	}
}

// loaded fetches the list and returns the todo with id from it.
func (a *app) loaded(cmd *cobra.Command, id string) (model.Todo, error) {
	if err := a.signedIn(); err != nil {
		return model.Todo{}, err
	}
	if _, err := a.todos.List(cmd.Context()); err != nil {
		return model.Todo{}, failed("could not load todos", err)
	}
	t, ok := a.todos.Get(id)
	if !ok {
		return model.Todo{}, fmt.Errorf("no todo with id %s", id)
	}
	return t, nil
}

func newDuplicateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "dup <id>",
		Aliases: []string{"duplicate"},
		Short:   "Copy a todo's title and description into a new todo",
		Args:    exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.loaded(cmd, args[0]); err != nil {
				return err
			}
			t, err := a.todos.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return failed("could not duplicate todo", err)
			}
			ui.OK(a.opt.Stdout, fmt.Sprintf("duplicated #%s as #%s", args[0], t.ID))
			return nil
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a todo to the clipboard",
		Args:  exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.loaded(cmd, args[0])
			if err != nil {
				return err
			}
			text := ui.CopyText(t)
			if ui.Copy(text) {
				ui.OK(a.opt.Stdout, "copied")
				return nil
			}
			// no clipboard here; print it instead
			fmt.Fprintln(a.opt.Stdout, text)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one todo with its description rendered as Markdown",
		Args:  exactID,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.loaded(cmd, args[0])
			if err != nil {
				return err
			}
			th := ui.Current()
			status := ui.C(th.Pending, th.SymPending+" pending")
			if t.Completed {
				status = ui.C(th.Success, th.SymDone+" done")
			}
			ui.Panel(a.opt.Stdout, []string{
				ui.C(th.Title, t.Title),
				fmt.Sprintf("#%s  %s", t.ID, status),
				ui.C(th.Muted, fmt.Sprintf("created %s (%s)", ui.TimeAgo(t.CreatedAt, a.now()), t.CreatedAt)),
			})
			if t.Description != "" {
				fmt.Fprintln(a.opt.Stdout, renderMarkdown(t.Description, 80, ui.IsTerminal(a.opt.Stdout)))
			}
			return nil
		},
	}
}
