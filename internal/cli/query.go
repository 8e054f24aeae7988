package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/lastquery"
	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
)

var (
	queryColumns []string
	queryLimit   int
	queryPaths   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <query|view>",
	Short: "Run a query or a saved view",
	Long: `Run a query over the library and list the matching entities.

The argument is either query text or the name of a view from glance.yaml.
Columns are expressions evaluated per result; they default to the
columns list in glance.yaml.

Examples:
  glance query 'select "photos/**" where rating >= 4 order by rating desc'
  glance query best --columns rating,album,"year(taken)"
  glance query 'select "**" group by ext(path)'
  glance query 'select "**/*.jpg"' --paths | xargs open`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

type queryColumn struct {
	Name string
	Get  query.Func
}

type queryResult struct {
	Num    int                    `json:"num"`
	Path   string                 `json:"path"`
	Values map[string]interface{} `json:"values"`
}

type queryGroup struct {
	Key     interface{}   `json:"key"`
	Results []queryResult `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	q, err := s.compile(args[0])
	if err != nil {
		return err
	}

	columns, err := compileColumns(columnNames(cmd, "columns", queryColumns, s.cfg.Columns), s.runtime)
	if err != nil {
		return err
	}

	results, groups := executeQuery(cmd.Context(), q, columns, queryLimit)
	if err := cmd.Context().Err(); err != nil {
		return handleError(ErrInternal, err, "")
	}
	elapsed := time.Since(start)

	paths := make([]string, len(results))
	for i, r := range results {
		paths[i] = r.Path
	}
	if err := lastquery.Write(s.path, lastquery.New(q.String(), paths)); err != nil {
		logger.Warn("failed to save last query", "error", err)
	}

	warnings := s.takeWarnings()
	if isJSONOutput() {
		data := map[string]interface{}{
			"query":   q.String(),
			"results": results,
		}
		if groups != nil {
			data["groups"] = groups
		}
		if results == nil {
			data["results"] = []queryResult{}
		}
		outputSuccessWithWarnings(data, warnings, &Meta{Count: len(results), QueryTimeMs: elapsed.Milliseconds()})
		return nil
	}

	printWarnings(warnings)
	if queryPaths {
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}
	printQueryResults(columns, results, groups)
	fmt.Println(ui.Hint(fmt.Sprintf("%s in %s", ui.Count(len(results), "result", "results"), elapsed.Round(time.Millisecond))))
	return nil
}

// executeQuery runs q and numbers its results from 1. With a limit, at most
// limit results are kept in total, across groups.
func executeQuery(ctx context.Context, q query.Executable, columns []queryColumn, limit int) ([]queryResult, []queryGroup) {
	opts := query.ExecutionOptions{Context: ctx}
	var groups []queryGroup
	var results []queryResult
	num := 0
	add := func(e entity.Entity) queryResult {
		num++
		return queryResult{Num: num, Path: e.Path(), Values: columnValues(e, columns)}
	}
	full := func() bool { return limit > 0 && num >= limit }

	if g, ok := query.GroupsOf(q); ok {
		for key, members := range g.Groups(opts) {
			group := queryGroup{Key: key.Interface()}
			for _, e := range members {
				if full() {
					break
				}
				r := add(e)
				group.Results = append(group.Results, r)
				results = append(results, r)
			}
			if len(group.Results) > 0 {
				groups = append(groups, group)
			}
			if full() {
				break
			}
		}
		return results, groups
	}
	for e := range query.Limit(q.Execute(opts), limit) {
		results = append(results, add(e))
	}
	return results, nil
}

func printQueryResults(columns []queryColumn, results []queryResult, groups []queryGroup) {
	if len(results) == 0 {
		fmt.Println(ui.Hint("No results."))
		return
	}
	display := ui.NewDisplayContext()
	if groups == nil {
		fmt.Println(renderResults(display, columns, results))
		return
	}
	for _, g := range groups {
		fmt.Printf("%s %s\n", ui.Header(groupLabel(g.Key)), ui.Hint("("+ui.Count(len(g.Results), "result", "results")+")"))
		fmt.Println(renderResults(display, columns, g.Results))
		fmt.Println()
	}
}

// compileColumns parses each column as an expression.
func compileColumns(names []string, rt *query.Runtime) ([]queryColumn, error) {
	columns := make([]queryColumn, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		x, err := query.ParseExpression(name)
		if err != nil {
			return nil, handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("invalid column %q: %v", name, err),
				"Columns are expressions such as rating or year(modified)")
		}
		columns = append(columns, queryColumn{Name: name, Get: x.CompileFunction(rt)})
	}
	return columns, nil
}

// splitColumns splits flag values at commas outside parentheses and
// string literals.
func splitColumns(args []string) []string {
	var out []string
	for _, arg := range args {
		depth, start := 0, 0
		var quote rune
		for i, r := range arg {
			switch {
			case quote != 0:
				if r == quote {
					quote = 0
				}
			case r == '"' || r == '`':
				quote = r
			case r == '(':
				depth++
			case r == ')':
				depth--
			case r == ',' && depth == 0:
				out = append(out, arg[start:i])
				start = i + 1
			}
		}
		out = append(out, arg[start:])
	}
	return out
}

func columnValues(e entity.Entity, columns []queryColumn) map[string]interface{} {
	values := make(map[string]interface{}, len(columns))
	if len(columns) == 0 {
		if f, ok := e.(*entity.File); ok {
			for _, name := range f.AttributeNames() {
				values[name] = f.Attribute(name).Interface()
			}
		}
		return values
	}
	for _, c := range columns {
		values[c.Name] = c.Get(e).Interface()
	}
	return values
}

func renderResults(display *ui.DisplayContext, columns []queryColumn, results []queryResult) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	tbl := ui.NewResultsTable(display, names)
	if len(results) > 0 {
		tbl.StartAt(results[0].Num)
	}
	for _, r := range results {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if v := r.Values[c.Name]; v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		tbl.AddRow(r.Path, cells...)
	}
	return tbl.Render()
}

func groupLabel(key interface{}) string {
	if key == nil {
		return "(none)"
	}
	return fmt.Sprint(key)
}

func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		if w.Line > 0 {
			fmt.Fprintln(os.Stderr, ui.Warningf("%d:%d: %s", w.Line, w.Column, w.Message))
		} else {
			fmt.Fprintln(os.Stderr, ui.Warningf("%s", w.Message))
		}
	}
}

func init() {
	queryCmd.Flags().StringArrayVarP(&queryColumns, "columns", "c", nil, "Comma-separated column expressions (repeatable)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "Maximum number of results (0 = no limit)")
	queryCmd.Flags().BoolVar(&queryPaths, "paths", false, "Print one path per line")
	rootCmd.AddCommand(queryCmd)
}
