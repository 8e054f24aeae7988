package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/ui"
	"github.com/aidanlsb/glance/internal/value"
)

var attrCmd = &cobra.Command{
	Use:   "attr",
	Short: "Read and write entity attributes",
	Long: `Attributes are typed values attached to paths in the library index.
Names are case-insensitive. Values are integers, reals, date/times or
strings; text that parses as a number or date is stored as one.`,
}

var (
	attrString bool
	attrForce  bool
)

var attrSetCmd = &cobra.Command{
	Use:   "set <path> <name=value>...",
	Short: "Set attributes on a path",
	Long: `Set one or more attributes on a file or directory.

Examples:
  glance attr set photos/beach.jpg rating=5 album=Summer
  glance attr set photos/beach.jpg taken=2024-07-14T10:30:00Z
  glance attr set docs/readme.md version=1.10 --string`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		path := entity.CleanPath(filepath.ToSlash(args[0]))
		updates := make(map[string]value.Value)
		var order []string
		for _, arg := range args[1:] {
			name, text, ok := strings.Cut(arg, "=")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return handleErrorMsg(ErrInvalidInput,
					fmt.Sprintf("invalid attribute format: %s", arg),
					"Use format: name=value")
			}
			v := value.Parse(text)
			if attrString && text != "" {
				v = value.String(text)
			}
			if _, seen := updates[name]; !seen {
				order = append(order, name)
			}
			updates[name] = v
		}

		var warnings []Warning
		if err := checkPathExists(s.path, path); err != nil {
			if !attrForce {
				return handleError(ErrFileNotFound, err, "Pass --force to attach attributes to a path that does not exist yet")
			}
			warnings = append(warnings, Warning{Code: WarnFileNotPresent, Message: err.Error()})
		}

		for _, name := range order {
			if err := s.db.Set(path, name, updates[name]); err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		if isJSONOutput() {
			out := make(map[string]interface{}, len(updates))
			for name, v := range updates {
				out[name] = v.Interface()
			}
			outputSuccessWithWarnings(map[string]interface{}{"path": path, "set": out}, warnings, nil)
			return nil
		}
		printWarnings(warnings)
		for _, name := range order {
			v := updates[name]
			if v.IsNull() {
				fmt.Println(ui.Successf("Removed %s from %s", name, ui.FilePath(path)))
				continue
			}
			fmt.Println(ui.Successf("Set %s = %s on %s %s", name, v.Text(), ui.FilePath(path), ui.Hint("("+v.Type().String()+")")))
		}
		return nil
	},
}

var attrUnsetCmd = &cobra.Command{
	Use:   "unset <path> <name>...",
	Short: "Remove attributes from a path",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		path := entity.CleanPath(filepath.ToSlash(args[0]))
		removed := []string{}
		for _, name := range args[1:] {
			ok, err := s.db.Unset(path, name)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			if ok {
				removed = append(removed, name)
			}
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path, "removed": removed}, &Meta{Count: len(removed)})
			return nil
		}
		if len(removed) == 0 {
			fmt.Println(ui.Hint("Nothing to remove."))
			return nil
		}
		fmt.Println(ui.Successf("Removed %s from %s", strings.Join(removed, ", "), ui.FilePath(path)))
		return nil
	},
}

var attrGetCmd = &cobra.Command{
	Use:   "get <path> [name]",
	Short: "Show the attributes of a path",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		path := entity.CleanPath(filepath.ToSlash(args[0]))
		attrs, err := s.db.Attributes(path)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if len(args) == 2 {
			e := entity.New(path, attrs, nil)
			v := e.Attribute(args[1])
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"path": path, "name": args[1], "value": v.Interface(), "type": typeName(v)}, nil)
				return nil
			}
			fmt.Println(v.Text())
			return nil
		}

		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		if isJSONOutput() {
			out := make(map[string]interface{}, len(attrs))
			for name, v := range attrs {
				out[name] = v.Interface()
			}
			outputSuccess(map[string]interface{}{"path": path, "attributes": out}, &Meta{Count: len(out)})
			return nil
		}
		if len(names) == 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("%s has no attributes.", path)))
			return nil
		}
		items := make([][2]string, len(names))
		for i, name := range names {
			v := attrs[name]
			items[i] = [2]string{name, v.Text() + "  (" + v.Type().String() + ")"}
		}
		fmt.Println(ui.Header(path))
		fmt.Print(ui.RenderList(items))
		return nil
	},
}

var attrNamesCmd = &cobra.Command{
	Use:   "names",
	Short: "List attribute names in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.db.Names()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"names": counts}, &Meta{Count: len(counts)})
			return nil
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return strings.ToLower(names[i]) < strings.ToLower(names[j])
		})
		items := make([][2]string, len(names))
		for i, name := range names {
			items[i] = [2]string{name, ui.Count(counts[name], "path", "paths")}
		}
		fmt.Print(ui.RenderList(items))
		return nil
	},
}

func typeName(v value.Value) string {
	if v.IsNull() {
		return "null"
	}
	return v.Type().String()
}

func checkPathExists(root, rel string) error {
	if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s does not exist in the library", rel)
		}
		return err
	}
	return nil
}

func init() {
	attrSetCmd.Flags().BoolVar(&attrString, "string", false, "Store every value as a string")
	attrSetCmd.Flags().BoolVar(&attrForce, "force", false, "Allow paths that do not exist")
	attrCmd.AddCommand(attrSetCmd, attrUnsetCmd, attrGetCmd, attrNamesCmd)
	rootCmd.AddCommand(attrCmd)
}
