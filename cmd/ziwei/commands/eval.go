package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/ziwei/chart"
	"github.com/teranos/ziwei/display"
	"github.com/teranos/ziwei/engine"
	"github.com/teranos/ziwei/errors"
	"github.com/teranos/ziwei/logger"
	"github.com/teranos/ziwei/rules"
	"github.com/teranos/ziwei/sym"
	"github.com/teranos/ziwei/tables"
)

// EvalCmd evaluates chart documents against the rule library
var EvalCmd = &cobra.Command{
	Use:   "eval <chart.json>...",
	Short: sym.Short("eval"),
	Long: sym.Eval + ` eval — Evaluate charts against the rule library

Each argument is a chart document: either a list of palace records or an
object with "gender" and "palaces". Use - to read one document from stdin.
The gender in the document wins over --gender and eval.gender.

Examples:
  ziwei eval chart.json                    # Table of firing rules
  ziwei eval --output json chart.json      # Match records as JSON
  ziwei eval --details a.json b.json       # Several charts with provenance
  ziwei eval --watch chart.json            # Re-run when the library changes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	addLibraryFlags(EvalCmd)
	EvalCmd.Flags().String("gender", "", "Gender for documents that carry none: M or F")
	EvalCmd.Flags().StringP("output", "o", "", "Output format: table, json, yaml")
	EvalCmd.Flags().Bool("details", false, "Include provenance details in the output")
	EvalCmd.Flags().Bool("watch", false, "Re-evaluate whenever the rule library file changes")
}

// ChartResult is the evaluation of one chart document
type ChartResult struct {
	Chart   string         `json:"chart" yaml:"chart"`
	Matches []engine.Match `json:"matches" yaml:"matches"`
}

type evaluation struct {
	settings *settings
	tables   *tables.Tables
	format   display.Format
	charts   []*chart.Chart
	paths    []string
}

func runEval(cmd *cobra.Command, args []string) error {
	s, err := resolve(cmd)
	if err != nil {
		return err
	}
	ev := &evaluation{settings: s, paths: args}
	if ev.format, err = display.ParseFormat(s.Output); err != nil {
		return err
	}
	if ev.tables, err = s.loadTables(); err != nil {
		return err
	}
	if err := ev.loadCharts(cmd.InOrStdin()); err != nil {
		return err
	}

	lib, err := s.loadLibrary()
	if err != nil {
		return err
	}
	if err := ev.run(cmd, lib); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return ev.watch(cmd)
	}
	return nil
}

// loadCharts decodes every chart document before any rule runs
func (ev *evaluation) loadCharts(stdin io.Reader) error {
	fallback, err := chart.ParseGender(ev.settings.Gender)
	if err != nil {
		return err
	}

	ev.charts = make([]*chart.Chart, len(ev.paths))
	for i, path := range ev.paths {
		data, err := readChart(path, stdin)
		if err != nil {
			return err
		}
		doc, err := chart.DecodeDocument(data)
		if err != nil {
			return errors.Wrapf(err, "chart %s", path)
		}

		gender := fallback
		if doc.Gender != "" {
			if gender, err = chart.ParseGender(doc.Gender); err != nil {
				return errors.Wrapf(err, "chart %s", path)
			}
		}
		if ev.charts[i], err = chart.FromRecords(doc.Palaces, gender, ev.tables); err != nil {
			return errors.Wrapf(err, "chart %s", path)
		}
	}
	return nil
}

func readChart(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "failed to read chart from stdin")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("chart %s", path)
	}
	return data, errors.Wrapf(err, "failed to read chart %s", path)
}

// run evaluates all charts concurrently and writes the results in argument order
func (ev *evaluation) run(cmd *cobra.Command, lib *rules.Library) error {
	runner := engine.NewRunner(lib.Rules, ev.tables)
	for _, sk := range runner.Skipped() {
		notice(cmd, logger.OutputSkippedRules, "%s %s: %v", sym.Skip, sk.RuleID, sk.Err)
	}

	start := time.Now()

	results := make([]ChartResult, len(ev.charts))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range ev.charts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reqCtx := logger.WithRequestID(ctx, uuid.NewString())
			logger.LoggerFromContext(reqCtx).Debugw("evaluating chart",
				logger.FieldChart, ev.paths[i],
				logger.FieldGender, string(c.Gender()))

			results[i] = ChartResult{Chart: ev.paths[i], Matches: runner.Run(reqCtx, c)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	notice(cmd, logger.OutputTiming, "evaluated %d chart(s) against %d rules in %dms", len(results), runner.Len(), time.Since(start).Milliseconds())

	for _, r := range results {
		notice(cmd, logger.OutputSummary, "%s %s: %d of %d rules fired", sym.Match, r.Chart, len(r.Matches), runner.Len())
		for _, m := range r.Matches {
			notice(cmd, logger.OutputProvenance, "%s %s: %s", r.Chart, m.RuleID, display.JoinDetails(m.Details))
		}
	}

	if !ev.settings.ShowDetails {
		for _, r := range results {
			for j := range r.Matches {
				r.Matches[j].Details = nil
			}
		}
	}
	return ev.write(cmd.OutOrStdout(), results)
}

func (ev *evaluation) write(w io.Writer, results []ChartResult) error {
	if ev.format != display.FormatTable {
		if len(results) == 1 {
			matches := results[0].Matches
			if matches == nil {
				matches = []engine.Match{}
			}
			return display.Write(w, ev.format, matches)
		}
		return display.Write(w, ev.format, results)
	}

	for _, r := range results {
		if len(results) > 1 {
			fmt.Fprintf(w, "%s %s\n", sym.Eval, r.Chart)
		}
		if err := display.RenderTable(w, display.MatchRows(r.Matches, ev.settings.ShowDetails), "no rules fired"); err != nil {
			return err
		}
	}
	return nil
}

// watch re-runs the evaluation on every library reload until interrupted
func (ev *evaluation) watch(cmd *cobra.Command) error {
	w, err := rules.NewWatcher(ev.settings.RulesPath, ev.settings.RulesFormat)
	if err != nil {
		return err
	}
	defer w.Stop()

	var mu sync.Mutex
	w.OnReload(func(lib *rules.Library) error {
		mu.Lock()
		defer mu.Unlock()
		pterm.Fprintln(cmd.ErrOrStderr(), pterm.LightCyan(fmt.Sprintf("%s reloaded %s (%d rules)", sym.Reload, ev.settings.RulesPath, len(lib.Rules))))
		return ev.run(cmd, lib)
	})
	w.Start()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	pterm.Fprintln(cmd.ErrOrStderr(), pterm.Gray("watching "+ev.settings.RulesPath+", press Ctrl-C to stop"))
	<-ctx.Done()
	return nil
}
