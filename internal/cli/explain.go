package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
)

var explainCmd = &cobra.Command{
	Use:   "explain <query|view>",
	Short: "Show the plan a query compiles to",
	Long: `Compile a query without running it and print its plan, one operator
per line with inputs indented below, followed by the normalized query text.

Views are shown expanded.

Examples:
  glance explain 'select best union select "inbox/*"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		q, err := s.compile(args[0])
		if err != nil {
			return err
		}
		plan := query.Explain(q)
		warnings := s.takeWarnings()

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"query": q.String(),
				"plan":  strings.Split(strings.TrimRight(plan, "\n"), "\n"),
				"order": q.Comparer().String(),
			}, warnings, nil)
			return nil
		}

		printWarnings(warnings)
		fmt.Print(plan)
		fmt.Println()
		fmt.Println(ui.Hint(q.String()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
