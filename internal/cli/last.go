package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/lastquery"
	"github.com/aidanlsb/glance/internal/ui"
)

var lastCmd = &cobra.Command{
	Use:   "last [numbers...]",
	Short: "Show or select results from the last query",
	Long: `Show or select results from the most recent query.

Without arguments, displays all results from the last query with their numbers.
With number arguments, prints the selected paths one per line for piping.

Number formats:
  1         Single result
  1,3,5     Multiple results (comma-separated)
  1-5       Range of results
  7-        Result 7 to the end

Examples:
  glance last
  glance last 1,3
  glance last 2-4 | xargs -I{} glance attr set {} reviewed=1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lq, err := lastquery.Read(getLibraryPath())
		if err != nil {
			if errors.Is(err, lastquery.ErrNoLastQuery) {
				return handleErrorMsg(ErrNoLastQuery,
					"no query results available",
					"Run a query first, then use 'glance last' to see or select results")
			}
			return handleError(ErrFileReadError, err, "")
		}

		entries := lq.Results
		if len(args) > 0 {
			entries, err = lq.Select(args)
			if err != nil {
				return handleErrorMsg(ErrInvalidInput, err.Error(),
					fmt.Sprintf("Last query returned %s", ui.Count(len(lq.Results), "result", "results")))
			}
		}

		if isJSONOutput() {
			if entries == nil {
				entries = []lastquery.ResultEntry{}
			}
			outputSuccess(map[string]interface{}{
				"query":     lq.Query,
				"timestamp": lq.Timestamp,
				"results":   entries,
			}, &Meta{Count: len(entries)})
			return nil
		}

		if len(args) > 0 {
			for _, e := range entries {
				fmt.Println(e.Path)
			}
			return nil
		}

		fmt.Println(ui.Header(lq.Query))
		fmt.Println(ui.Hint(lq.Timestamp.Local().Format("2006-01-02 15:04")))
		if len(entries) == 0 {
			fmt.Println(ui.Hint("No results."))
			return nil
		}
		tbl := ui.NewResultsTable(ui.NewDisplayContext(), nil)
		for _, e := range entries {
			tbl.AddRow(e.Path)
		}
		fmt.Println(tbl.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lastCmd)
}
