package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/config"
	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved views",
	Long: `Views are named queries stored in glance.yaml. A view can be used
anywhere a source is expected:

  select best where year(taken) = 2024`,
}

type viewInfo struct {
	Name        string `json:"name"`
	Query       string `json:"query"`
	Description string `json:"description,omitempty"`
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		libCfg, err := config.LoadLibraryConfig(getLibraryPath())
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		views := make([]viewInfo, 0, len(libCfg.Views))
		for _, name := range libCfg.ViewNames() {
			v := libCfg.Views[name]
			views = append(views, viewInfo{Name: name, Query: v.Query, Description: v.Description})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"views": views}, &Meta{Count: len(views)})
			return nil
		}
		if len(views) == 0 {
			fmt.Println(ui.Hint("No views defined. Add one with 'glance view add <name> <query>'."))
			return nil
		}
		items := make([][2]string, len(views))
		for i, v := range views {
			desc := v.Query
			if v.Description != "" {
				desc = v.Description + ": " + v.Query
			}
			items[i] = [2]string{v.Name, desc}
		}
		fmt.Print(ui.RenderList(items))
		return nil
	},
}

var viewShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a view's query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		libCfg, err := config.LoadLibraryConfig(getLibraryPath())
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		name, v, err := libCfg.GetView(args[0])
		if err != nil {
			return handleError(ErrViewNotFound, err, "Run 'glance view list' to see views")
		}
		if isJSONOutput() {
			outputSuccess(viewInfo{Name: name, Query: v.Query, Description: v.Description}, nil)
			return nil
		}
		fmt.Println(ui.Header(name))
		if v.Description != "" {
			fmt.Println(ui.Hint(v.Description))
		}
		fmt.Println(v.Query)
		return nil
	},
}

var (
	viewDescription string
	viewForce       bool
)

var viewAddCmd = &cobra.Command{
	Use:   "add <name> <query>",
	Short: "Save a query as a view",
	Long: `Save a query under a name. The query is compiled first, with the new
view in place, so errors and view cycles are caught before saving.
An existing view with the same name (in any case) is replaced.

Examples:
  glance view add best 'select "photos/**" where rating >= 4'
  glance view add "this year" 'select best where year(taken) = 2024' -d "Best of 2024"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		name, text := args[0], args[1]
		if err := s.cfg.AddView(name, text, viewDescription); err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		var l query.CollectingListener
		q := s.compiler.CompileWithListener("select "+quoteIdent(name), &l)
		if diags := l.Diagnostics(); (q == nil || len(diags) > 0) && !viewForce {
			return handleErrorWithDetails(ErrViewInvalid,
				fmt.Sprintf("view %s does not compile: %s", name, diagnosticsText(diags)),
				"Fix the query or pass --force to save it anyway", diags)
		}

		if err := config.SaveLibraryConfig(s.path, s.cfg); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(viewInfo{Name: name, Query: text, Description: viewDescription}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Saved view %s", ui.FilePath(name)))
		return nil
	},
}

var viewRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a view",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryPath := getLibraryPath()
		libCfg, err := config.LoadLibraryConfig(libraryPath)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if err := libCfg.RemoveView(args[0]); err != nil {
			if errors.Is(err, config.ErrViewNotFound) {
				return handleError(ErrViewNotFound, err, "Run 'glance view list' to see views")
			}
			return handleError(ErrInternal, err, "")
		}
		if err := config.SaveLibraryConfig(libraryPath, libCfg); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"removed": args[0]}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Removed view %s", args[0]))
		return nil
	},
}

func diagnosticsText(diags []query.Diagnostic) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

func init() {
	viewAddCmd.Flags().StringVarP(&viewDescription, "description", "d", "", "Description shown by 'view list'")
	viewAddCmd.Flags().BoolVar(&viewForce, "force", false, "Save even if the query does not compile")
	viewCmd.AddCommand(viewListCmd, viewShowCmd, viewAddCmd, viewRemoveCmd)
	rootCmd.AddCommand(viewCmd)
}
