package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/razeghi71/csvqb/chart"
	"github.com/razeghi71/csvqb/engine"
	"github.com/razeghi71/csvqb/lexer"
	"github.com/razeghi71/csvqb/loader"
	"github.com/razeghi71/csvqb/session"
	"github.com/razeghi71/csvqb/table"
)

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, "; ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type options struct {
	pipelines  multiFlag
	selection  string
	session    string
	sessionDir string
	saveAs     string
	chartKind  string
	format     string
	balanced   bool
	maxDepth   int
	maxSteps   int
	verbose    bool
	files      []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("csvqb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.pipelines, "q", "pipeline to evaluate, e.g. \"GRP city CSUM qty\" (repeatable)")
	fs.StringVar(&opts.selection, "s", "", "comma separated dataset indices to aggregate over (default: all)")
	fs.StringVar(&opts.session, "session", "", "session file to open instead of positional files")
	fs.StringVar(&opts.sessionDir, "sessions", ".csvqb", "directory sessions are saved to")
	fs.StringVar(&opts.saveAs, "save", "", "save the workspace as a session with this name")
	fs.StringVar(&opts.chartKind, "chart", "", "print chart configuration of this kind (bar, histogram, pie, scatter, line, flame)")
	fs.StringVar(&opts.format, "f", "table", "output format: table, json, csv")
	fs.BoolVar(&opts.balanced, "balanced", false, "treat parentheses as balanced sub-expressions")
	fs.IntVar(&opts.maxDepth, "max-depth", engine.DefaultMaxDepth, "maximum parenthesis nesting")
	fs.IntVar(&opts.maxSteps, "max-steps", engine.DefaultMaxSteps, "maximum evaluation steps per pipeline (0 = unlimited)")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: csvqb [options] <file>...\n\n")
		fmt.Fprintf(stderr, "Evaluate stack pipelines over CSV, JSON, JSONL, Avro and Parquet files.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  csvqb -q \"CSUM qty\" orders.csv\n")
		fmt.Fprintf(stderr, "  csvqb -q \"GRP city CCOUNT qty\" -chart bar a.csv b.parquet\n")
		fmt.Fprintf(stderr, "  csvqb -session .csvqb/weekly.yaml -f json\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.files = fs.Args()
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowWarn())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	logger := newLogger(stderr, opts.verbose)

	w, err := openWorkspace(ctx, opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if opts.saveAs != "" {
		if err := session.Save(opts.sessionDir, w.Snapshot(opts.saveAs)); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		level.Info(logger).Log("msg", "session saved", "session", opts.saveAs, "dir", opts.sessionDir)
	}

	if len(w.Pipelines) == 0 {
		return 0
	}

	e := engine.New(
		engine.WithLogger(logger),
		engine.WithBalancedParens(opts.balanced),
		engine.WithMaxDepth(opts.maxDepth),
		engine.WithMaxSteps(opts.maxSteps),
	)
	results, err := w.Evaluate(ctx, e)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	texts := make([]string, len(w.Pipelines))
	for i, p := range w.Pipelines {
		texts[i] = lexer.Join(p.Atoms())
	}

	if opts.chartKind != "" {
		kind, err := chart.ParseKind(opts.chartKind)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		configs := make([]*chart.Config, len(results))
		for i, r := range results {
			configs[i] = chart.Build(kind, texts[i], r.Values)
		}
		return writeJSON(stdout, stderr, configs)
	}

	switch opts.format {
	case "table":
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "> %s\n", texts[i])
			printValues(stdout, r.Values)
		}
	case "csv":
		for _, r := range results {
			for _, v := range r.Values {
				g := table.Grid{{v.AsString()}}
				if v.Type == table.TypeTable {
					g = v.Table
				}
				if err := loader.WriteCSV(stdout, g); err != nil {
					fmt.Fprintf(stderr, "error: %v\n", err)
					return 1
				}
			}
		}
	case "json":
		out := make([]pipelineOutput, len(results))
		for i, r := range results {
			out[i] = newPipelineOutput(texts[i], r)
		}
		return writeJSON(stdout, stderr, out)
	default:
		fmt.Fprintf(stderr, "error: unsupported format %q (supported: table, json, csv)\n", opts.format)
		return 1
	}
	return 0
}

func openWorkspace(ctx context.Context, opts *options, logger log.Logger) (*session.Workspace, error) {
	var w *session.Workspace
	if opts.session != "" {
		s, err := session.Load(opts.session)
		if err != nil {
			return nil, err
		}
		w, err = session.Open(ctx, s, logger)
		if err != nil {
			return nil, err
		}
	} else {
		store, err := loader.LoadAll(opts.files)
		if err != nil {
			return nil, err
		}
		w = session.NewWorkspace(store, logger)
	}

	for _, text := range opts.pipelines {
		if err := w.AddPipeline(text); err != nil {
			return nil, err
		}
	}
	if opts.selection != "" {
		sel, err := parseSelection(opts.selection)
		if err != nil {
			return nil, err
		}
		w.Selection = sel
	}
	return w, nil
}

func parseSelection(s string) (table.Selection, error) {
	var sel table.Selection
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid dataset index %q", part)
		}
		sel = append(sel, i)
	}
	return sel, nil
}

type valueOutput struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

type pipelineOutput struct {
	Pipeline    string        `json:"pipeline"`
	Values      []valueOutput `json:"values"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
}

func newPipelineOutput(text string, r engine.Result) pipelineOutput {
	out := pipelineOutput{Pipeline: text, Values: make([]valueOutput, len(r.Values))}
	for i, v := range r.Values {
		vo := valueOutput{Type: v.Type.String()}
		switch v.Type {
		case table.TypeBool:
			vo.Value = v.Bool
		case table.TypeNumber:
			// encoding/json rejects non-finite floats
			if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
				vo.Value = v.AsString()
			} else {
				vo.Value = v.Num
			}
		case table.TypeTable:
			vo.Value = v.Table
		default:
			vo.Value = v.Str
		}
		out.Values[i] = vo
	}
	for _, d := range r.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.Error())
	}
	return out
}

func writeJSON(stdout, stderr io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func printValues(w io.Writer, values []table.Value) {
	if len(values) == 0 {
		fmt.Fprintln(w, "(no result)")
		return
	}
	for _, v := range values {
		if v.Type == table.TypeTable {
			printTable(w, v.Table)
			continue
		}
		fmt.Fprintln(w, v.String())
	}
}

func printTable(w io.Writer, g table.Grid) {
	if len(g) == 0 {
		return
	}

	// Calculate column widths over ragged rows
	ncols := 0
	for _, row := range g {
		if len(row) > ncols {
			ncols = len(row)
		}
	}
	widths := make([]int, ncols)
	for _, row := range g {
		for j, cell := range row {
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	format := func(row table.Row) string {
		parts := make([]string, len(row))
		for j, cell := range row {
			parts[j] = padRight(cell, widths[j])
		}
		return strings.TrimRight(strings.Join(parts, " | "), " ")
	}

	fmt.Fprintln(w, format(g.Header()))

	sepParts := make([]string, ncols)
	for j := range sepParts {
		sepParts[j] = strings.Repeat("-", widths[j])
	}
	fmt.Fprintln(w, strings.Join(sepParts, "-+-"))

	for _, row := range g.DataRows() {
		fmt.Fprintln(w, format(row))
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
