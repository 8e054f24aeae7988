// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/glance/internal/config"
	"github.com/aidanlsb/glance/internal/ui"
)

var (
	// Global flags
	libraryName     string // Named library from config
	libraryPathFlag string // Explicit path
	configPath      string
	verbose         bool
	noColor         bool

	// Resolved values
	resolvedLibraryPath string
	resolvedConfigPath  string
	cfg                 *config.Config
	logger              = slog.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "glance",
	Short: "glance - query the files of a directory tree by their attributes",
	Long: `glance treats every file and directory below a library root as an entity
with user-assigned attributes, and answers queries written in a small
select language:

  select "photos/**/*.jpg" where rating >= 4 order by taken desc

Attributes live in an index under .glance/ in the library. Saved queries
(views) live in glance.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Check the file with 'glance config path'")
		}
		setupLogging(cfg)
		setupTheme(cfg)

		if !needsLibrary(cmd) {
			return nil
		}
		return resolveLibrary()
	},
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context; cancelling it
// stops a running query.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, ui.Errorf("%v", err))
	}
	return err
}

func init() {
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	rootCmd.PersistentFlags().StringVarP(&libraryName, "library", "l", "", "Named library from config")
	rootCmd.PersistentFlags().StringVar(&libraryPathFlag, "library-path", "", "Explicit path to library directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for scripts)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// normalizeFlagName accepts snake_case spellings of every flag.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// needsLibrary reports whether cmd operates on a library.
func needsLibrary(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "syntax", "config", "help", "completion":
			return false
		}
	}
	return true
}

func setupLogging(cfg *config.Config) {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func setupTheme(cfg *config.Config) {
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
	if noColor || jsonOutput || !ui.ColorEnabled(os.Stdout) {
		ui.DisableColor()
	}
}

// resolveLibrary picks the library: explicit path > named library >
// default library > current directory.
func resolveLibrary() error {
	var err error
	switch {
	case libraryPathFlag != "":
		resolvedLibraryPath = libraryPathFlag
	case libraryName != "":
		resolvedLibraryPath, err = cfg.GetLibraryPath(libraryName)
		if err != nil {
			return handleErrorMsg(ErrLibraryNotFound,
				fmt.Sprintf("library '%s' not found", libraryName),
				"Run 'glance config path' to locate the config file and add it under [libraries]")
		}
	case cfg.DefaultLibrary != "":
		resolvedLibraryPath, err = cfg.GetLibraryPath("")
		if err != nil {
			return handleError(ErrLibraryNotFound, err, "Fix default_library in config.toml")
		}
	default:
		resolvedLibraryPath, err = os.Getwd()
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
	}

	st, err := os.Stat(resolvedLibraryPath)
	if err != nil || !st.IsDir() {
		return handleErrorMsg(ErrLibraryNotFound,
			fmt.Sprintf("library not found: %s", resolvedLibraryPath),
			"Pass --library-path with an existing directory")
	}
	logger.Debug("library resolved", "path", resolvedLibraryPath)
	return nil
}

// getLibraryPath returns the resolved library path.
func getLibraryPath() string {
	return resolvedLibraryPath
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	if strings.TrimSpace(configPath) != "" {
		loaded, err := config.LoadFrom(configPath)
		return loaded, configPath, err
	}
	loaded, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	return loaded, config.DefaultPath(), nil
}
