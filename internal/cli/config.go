package cli

import (
	"github.com/spf13/cobra"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/ui"
)

func newConfigCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration (--save writes it to config.yaml)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := "(none)"
			if a.cfg.Token != "" {
				token = "set by TADA_TOKEN"
			}
			ui.Panel(a.opt.Stdout, []string{
				"dir:       " + a.cfg.Dir,
				"api_url:   " + a.cfg.APIURL,
				"theme:     " + a.cfg.Theme,
				"log_level: " + a.cfg.LogLevel,
				"token:     " + token,
			})
			if !save {
				return nil
			}
			if err := a.cfg.Validate(); err != nil {
				return usageError{err: err}
			}
			if err := config.Save(a.cfg); err != nil {
				return failed("save config", err)
			}
			ui.OK(a.opt.Stdout, "saved "+a.cfg.Dir+"/config.yaml")
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "persist api_url, theme and log level")
	return cmd
}
