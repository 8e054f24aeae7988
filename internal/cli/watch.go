package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/glance/internal/query"
	"github.com/aidanlsb/glance/internal/ui"
	"github.com/aidanlsb/glance/internal/watcher"
)

var (
	watchColumns []string
	watchLimit   int
	watchPrune   bool
	watchDelay   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <query|view>",
	Short: "Re-run a query whenever the library changes",
	Long: `Run a query, then run it again each time files below the library
change. Changes are collected until the tree has been quiet for --delay.

With --prune, the attributes of deleted files are dropped as they go.
Renamed files keep their attributes under the old path until 'glance prune'.

In JSON mode every run prints one response object.

Examples:
  glance watch 'select "inbox/*" order by modified desc'
  glance watch best --prune`,
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
		columns, err := compileColumns(columnNames(cmd, "columns", watchColumns, s.cfg.Columns), s.runtime)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		run := func(batch *watcher.Batch) {
			start := time.Now()
			results, groups := executeQuery(ctx, q, columns, watchLimit)
			if ctx.Err() != nil {
				return
			}
			printWatchRun(q, columns, results, groups, batch, s.takeWarnings(), time.Since(start))
		}
		run(nil)

		cfg := watcher.Config{
			Root:          s.path,
			Skip:          s.cfg.SkipDirectories,
			DebounceDelay: watchDelay,
			Logger:        logger,
			OnBatch:       func(b watcher.Batch) { run(&b) },
		}
		if watchPrune {
			cfg.Remover = s.db
		}
		w, err := watcher.New(cfg)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return handleError(ErrInternal, err, "")
		}
		return nil
	},
}

func printWatchRun(q query.Executable, columns []queryColumn, results []queryResult, groups []queryGroup,
	batch *watcher.Batch, warnings []Warning, elapsed time.Duration) {
	if isJSONOutput() {
		data := map[string]interface{}{
			"query":   q.String(),
			"results": results,
		}
		if results == nil {
			data["results"] = []queryResult{}
		}
		if groups != nil {
			data["groups"] = groups
		}
		if batch != nil {
			data["changed"] = batch.Changed
			data["removed"] = batch.Removed
		}
		outputSuccessWithWarnings(data, warnings, &Meta{Count: len(results), QueryTimeMs: elapsed.Milliseconds()})
		return
	}

	printWarnings(warnings)
	stamp := time.Now().Format("15:04:05")
	if batch != nil {
		fmt.Println(ui.Hint(fmt.Sprintf("%s  %s changed, %s removed", stamp,
			ui.Count(len(batch.Changed), "path", "paths"), ui.Count(len(batch.Removed), "path", "paths"))))
	} else {
		fmt.Println(ui.Hint(stamp + "  watching " + resolvedLibraryPath))
	}
	printQueryResults(columns, results, groups)
	fmt.Println(ui.Hint(ui.Count(len(results), "result", "results")))
	fmt.Println()
}

// columnNames returns the --columns values, or the library defaults when the
// flag was not given.
func columnNames(cmd *cobra.Command, flag string, values, defaults []string) []string {
	if !cmd.Flags().Changed(flag) {
		return defaults
	}
	return splitColumns(values)
}

func init() {
	watchCmd.Flags().StringArrayVarP(&watchColumns, "columns", "c", nil, "Comma-separated column expressions (repeatable)")
	watchCmd.Flags().IntVarP(&watchLimit, "limit", "n", 0, "Maximum number of results per run")
	watchCmd.Flags().BoolVar(&watchPrune, "prune", false, "Drop the attributes of deleted files")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 300*time.Millisecond, "Quiet period before re-running")
	rootCmd.AddCommand(watchCmd)
}
