package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/atomicfile"
	"github.com/aidanlsb/glance/internal/ui"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml|->",
	Short: "Import attributes from YAML",
	Long: `Import attributes from a YAML document mapping paths to attributes:

  photos/beach.jpg:
    rating: 5
    taken: 2024-07-14
    album: Summer

YAML types are kept: integers, floats, timestamps and strings. Booleans
become 1 or are removed (false). A null value removes the attribute.
The whole file is applied in one transaction.

Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return handleError(ErrFileNotFound, err, "")
			}
			defer f.Close()
			r = f
		}

		stats, err := s.db.ImportYAML(r)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Nothing was imported")
		}
		if err := s.db.Analyze(); err != nil {
			logger.Debug("analyze failed", "error", err)
		}

		if isJSONOutput() {
			outputSuccess(stats, nil)
			return nil
		}
		fmt.Println(ui.Successf("Imported %s on %s", ui.Count(stats.Attributes, "attribute", "attributes"), ui.Count(stats.Paths, "path", "paths")))
		if stats.Removed > 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("Removed %s", ui.Count(stats.Removed, "attribute", "attributes"))))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Export all attributes as YAML",
	Long: `Write every stored attribute in the format 'glance import' reads.
Without a file the document goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if len(args) == 0 {
			if err := s.db.ExportYAML(os.Stdout); err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			return nil
		}

		if err := atomicfile.Write(args[0], 0o644, s.db.ExportYAML); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		stats, err := s.db.Stats()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"file": args[0], "stats": stats}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Exported %s to %s", ui.Count(stats.AttributeCount, "attribute", "attributes"), ui.FilePath(args[0])))
		return nil
	},
}

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop attributes of paths that no longer exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		var stale []string
		if pruneDryRun {
			paths, err := s.db.Paths()
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			for _, p := range paths {
				if checkPathExists(s.path, p) != nil {
					stale = append(stale, p)
				}
			}
		} else {
			stale, err = s.db.Prune(s.path)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		if isJSONOutput() {
			if stale == nil {
				stale = []string{}
			}
			outputSuccess(map[string]interface{}{"pruned": stale, "dry_run": pruneDryRun}, &Meta{Count: len(stale)})
			return nil
		}
		if len(stale) == 0 {
			fmt.Println(ui.Hint("Nothing to prune."))
			return nil
		}
		for _, p := range stale {
			fmt.Println("  " + ui.FilePath(p))
		}
		verb := "Pruned"
		if pruneDryRun {
			verb = "Would prune"
		}
		fmt.Println(ui.Successf("%s %s", verb, ui.Count(len(stale), "path", "paths")))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.db.Stats()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(stats, nil)
			return nil
		}
		fmt.Printf("%s with attributes, %s\n",
			ui.Count(stats.EntityCount, "path", "paths"),
			ui.Count(stats.AttributeCount, "attribute", "attributes"))
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "List stale paths without removing them")
	rootCmd.AddCommand(importCmd, exportCmd, pruneCmd, statsCmd)
}
