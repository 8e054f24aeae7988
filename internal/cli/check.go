package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [query...]",
	Short: "Report compile errors in queries and views",
	Long: `Compile queries without running them and report every diagnostic with
its line and column.

Without arguments every view in glance.yaml is checked.

Examples:
  glance check 'select "**" where'
  glance check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		type checked struct {
			Name        string             `json:"name,omitempty"`
			Query       string             `json:"query"`
			Valid       bool               `json:"valid"`
			Diagnostics []query.Diagnostic `json:"diagnostics,omitempty"`
		}

		var items []checked
		if len(args) == 0 {
			for _, name := range s.cfg.ViewNames() {
				text, _ := s.cfg.View(name)
				items = append(items, checked{Name: name, Query: text})
			}
		} else {
			for _, text := range args {
				items = append(items, checked{Query: text})
			}
		}

		failed := 0
		for i := range items {
			var l query.CollectingListener
			q := s.compiler.CompileWithListener(items[i].Query, &l)
			items[i].Diagnostics = l.Diagnostics()
			items[i].Valid = q != nil && len(items[i].Diagnostics) == 0
			if !items[i].Valid {
				failed++
			}
		}

		if isJSONOutput() {
			if failed > 0 {
				return handleErrorWithDetails(ErrQueryInvalid,
					fmt.Sprintf("%d of %d queries have errors", failed, len(items)), "", items)
			}
			outputSuccess(map[string]interface{}{"checked": items}, &Meta{Count: len(items)})
			return nil
		}

		for _, it := range items {
			label := it.Query
			if it.Name != "" {
				label = it.Name
			}
			if it.Valid {
				fmt.Println(ui.Successf("%s", label))
				continue
			}
			fmt.Println(ui.Errorf("%s", label))
			for _, d := range it.Diagnostics {
				fmt.Printf("    %s\n", d)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d queries have errors", failed, len(items))
		}
		if len(items) == 0 {
			fmt.Println(ui.Hint("No views to check."))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
