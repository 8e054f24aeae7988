package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	builtindocs "github.com/aidanlsb/glance/docs"
	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
)

var syntaxRaw bool

var syntaxCmd = &cobra.Command{
	Use:   "syntax",
	Short: "Show the query language reference",
	Long: `Show the query language reference together with every built-in
function. Output is rendered for the terminal unless it is piped or --raw
is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := builtindocs.FS.ReadFile(builtindocs.QueryLanguage)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		functions := query.DefaultRuntime().Functions()

		if isJSONOutput() {
			type fn struct {
				Signature string `json:"signature"`
				Returns   string `json:"returns"`
				Help      string `json:"help"`
			}
			fns := make([]fn, len(functions))
			for i, f := range functions {
				fns[i] = fn{Signature: f.Signature(), Returns: f.Returns.String(), Help: f.Help}
			}
			outputSuccess(map[string]interface{}{
				"reference": string(content),
				"functions": fns,
			}, &Meta{Count: len(fns)})
			return nil
		}

		markdown := string(content) + "\n" + functionsMarkdown(functions)
		display := ui.NewDisplayContext()
		if syntaxRaw || !display.IsTTY {
			fmt.Print(markdown)
			return nil
		}
		rendered, err := ui.RenderMarkdown(markdown, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			logger.Debug("markdown rendering failed", "error", err)
			fmt.Print(markdown)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

// functionsMarkdown lists the overloads of every function as a table.
func functionsMarkdown(functions []*query.Function) string {
	var sb strings.Builder
	sb.WriteString("## Functions\n\n")
	sb.WriteString("Functions without arguments read the current entity.\n\n")
	sb.WriteString("| Function | Description |\n|---|---|\n")
	for _, f := range functions {
		fmt.Fprintf(&sb, "| `%s` | %s |\n", f.Signature(), f.Help)
	}
	return sb.String()
}

func init() {
	syntaxCmd.Flags().BoolVar(&syntaxRaw, "raw", false, "Print Markdown source")
	rootCmd.AddCommand(syntaxCmd)
}
