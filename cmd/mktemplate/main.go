package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"crudview/internal/config"
	"crudview/internal/crud"
	"crudview/internal/model"
	"crudview/internal/templates"
)

// errExists is what the command fails with once the notice has been printed.
var errExists = errors.New("Template already exists.")

// roleFlags maps each flag to the role whose template it copies.
var roleFlags = []struct {
	name, short string
	role        crud.Role
	usage       string
}{
	{"list", "l", crud.RoleList, "list template"},
	{"detail", "d", crud.RoleDetail, "detail template"},
	{"create", "c", crud.RoleCreate, "create template (the shared form template)"},
	{"update", "u", crud.RoleUpdate, "update template (the shared form template)"},
	{"form", "f", crud.RoleCreate, "form template"},
	{"delete", "", crud.RoleDelete, "delete confirmation template"},
}

func newRootCmd(cfg *config.AppConfig) *cobra.Command {
	var appDir string
	selected := make([]bool, len(roleFlags))

	cmd := &cobra.Command{
		Use:   "mktemplate <app.Model>",
		Short: "Copy a default crudview template for customisation",
		Long: "Copies the default template for one role of a model to " +
			"<app-dir>/templates/<app>/<model><suffix>.html, or to the first configured " +
			"template directory when the app has no templates directory.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := model.LookupModel(args[0])
			if err != nil {
				return err
			}
			var role crud.Role
			for i, f := range roleFlags {
				if selected[i] {
					role = f.role
				}
			}

			engine := templates.New(templates.WithDirs(cfg.Views.TemplateDirs...))
			path, err := templates.Bootstrap(engine, appDir, meta.AppLabel, meta.ModelName(), role.TemplateNameSuffix())
			if errors.Is(err, templates.ErrTemplateExists) {
				name := fmt.Sprintf("%s/%s%s.html", meta.AppLabel, meta.ModelName(), role.TemplateNameSuffix())
				fmt.Fprintf(cmd.OutOrStdout(), "Template %s already exists. Remove it manually if you want to regenerate it.\n", name)
				return errExists
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	names := make([]string, len(roleFlags))
	for i, f := range roleFlags {
		cmd.Flags().BoolVarP(&selected[i], f.name, f.short, false, f.usage)
		names[i] = f.name
	}
	cmd.MarkFlagsMutuallyExclusive(names...)
	cmd.MarkFlagsOneRequired(names...)
	cmd.Flags().StringVar(&appDir, "app-dir", "", "application directory whose templates/ dir receives the copy")
	return cmd
}

func run(args []string, out io.Writer) error {
	cmd := newRootCmd(config.Load())
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
