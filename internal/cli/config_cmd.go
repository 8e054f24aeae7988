package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/config"
	"github.com/aidanlsb/glance/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the global config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := os.Stat(resolvedConfigPath)
		exists := err == nil
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": resolvedConfigPath, "exists": exists}, nil)
			return nil
		}
		fmt.Println(resolvedConfigPath)
		if !exists {
			fmt.Println(ui.Hint("(not created yet; run 'glance config init')"))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := config.CreateDefault(resolvedConfigPath)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": resolvedConfigPath, "created": created}, nil)
			return nil
		}
		if created {
			fmt.Println(ui.Successf("Created %s", ui.FilePath(resolvedConfigPath)))
		} else {
			fmt.Println(ui.Hint("Config already exists: " + resolvedConfigPath))
		}
		return nil
	},
}

var configDefault bool

var configAddLibraryCmd = &cobra.Command{
	Use:   "add-library <name> <path>",
	Short: "Register a library under a name",
	Long: `Register a library directory in the global config so it can be used
with --library <name>.

Examples:
  glance config add-library photos ~/Pictures --default`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		path, err := filepath.Abs(args[1])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if st, err := os.Stat(path); err != nil || !st.IsDir() {
			return handleErrorMsg(ErrLibraryNotFound, fmt.Sprintf("not a directory: %s", path), "")
		}

		if cfg.Libraries == nil {
			cfg.Libraries = make(map[string]string)
		}
		cfg.Libraries[name] = path
		if configDefault || cfg.DefaultLibrary == "" {
			cfg.DefaultLibrary = name
		}
		if err := config.SaveTo(resolvedConfigPath, cfg); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"name": name, "path": path, "default": cfg.DefaultLibrary == name}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Added library %s at %s", name, ui.FilePath(path)))
		return nil
	},
}

var configLibrariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List configured libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := cfg.ListLibraries()
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"libraries": cfg.Libraries, "default": cfg.DefaultLibrary}, &Meta{Count: len(names)})
			return nil
		}
		if len(names) == 0 {
			fmt.Println(ui.Hint("No libraries configured. Add one with 'glance config add-library <name> <path>'."))
			return nil
		}
		items := make([][2]string, len(names))
		for i, name := range names {
			label := name
			if name == cfg.DefaultLibrary {
				label += " *"
			}
			items[i] = [2]string{label, cfg.Libraries[name]}
		}
		fmt.Print(ui.RenderList(items))
		return nil
	},
}

func init() {
	configAddLibraryCmd.Flags().BoolVar(&configDefault, "default", false, "Make this the default library")
	configCmd.AddCommand(configPathCmd, configInitCmd, configAddLibraryCmd, configLibrariesCmd)
	rootCmd.AddCommand(configCmd)
}
