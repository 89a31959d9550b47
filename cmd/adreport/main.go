package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/adreport/internal/advisor"
	"github.com/AngelCh415/adreport/internal/ingest"
	"github.com/AngelCh415/adreport/internal/metrics"
	"github.com/AngelCh415/adreport/internal/models"
	"github.com/AngelCh415/adreport/internal/pipeline"
	"github.com/AngelCh415/adreport/internal/schema"
)

type analyzeOpts struct {
	params     models.Params
	thresholds string
	sort       string
	limit      int
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var logger *slog.Logger

	root := &cobra.Command{
		Use:   "adreport",
		Short: "Analyze ad performance reports (CSV/XLSX) for ROAS, profit and wasted spend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl := slog.LevelWarn
			if verbose {
				lvl = slog.LevelDebug
			}
			logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	var o analyzeOpts
	analyzeCmd := &cobra.Command{
		Use:   "analyze [file|url]",
		Short: "Run the report pipeline and print the result as JSON",
		Long: `Reads a report export (.csv or .xlsx) from disk or an http(s) URL,
groups it by placement (or --group-by), derives CTR/CVR/CPC/ROAS/net profit
and prints the recommendations, wasted spend and profitable keywords.

With --price the revenue is derived as quantity x price instead of the
report's revenue column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), logger, cmd.OutOrStdout(), args[0], o)
		},
	}
	fl := analyzeCmd.Flags()
	fl.Float64Var(&o.params.UnitPrice, "price", 0, "Real selling price per unit")
	fl.Float64Var(&o.params.UnitCost, "cost", 0, "Unit cost (product + shipping + fees)")
	fl.Float64Var(&o.params.Discount, "discount", 0, "Per-unit discount subtracted from profit")
	fl.StringVar(&o.params.GroupBy, "group-by", "", "Column to group by (default: placement, auto-detected)")
	fl.StringVar(&o.thresholds, "thresholds", "", "YAML band table overriding the default thresholds")
	fl.StringVar(&o.sort, "sort", "", "Sort group rows by metric (spend, roas, net_profit, ... or key)")
	fl.IntVar(&o.limit, "limit", 0, "Max group rows to print (0 = all)")
	fl.DurationVar(&o.timeout, "timeout", 15*time.Second, "HTTP timeout when the report is a URL")

	columnsCmd := &cobra.Command{
		Use:   "columns",
		Short: "List the column aliases recognized for each field",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printColumns(cmd.OutOrStdout())
		},
	}

	root.AddCommand(analyzeCmd, columnsCmd)
	return root
}

func runAnalyze(ctx context.Context, log *slog.Logger, out io.Writer, src string, o analyzeOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	th, err := advisor.LoadThresholds(o.thresholds)
	if err != nil {
		return err
	}

	name, data, err := load(ctx, src, o.timeout)
	if err != nil {
		return err
	}
	tbl, err := ingest.Decode(name, data)
	if err != nil {
		return err
	}

	res, err := pipeline.New(log, th, nil).Run(ctx, tbl, o.params)
	if err != nil {
		var se *schema.SchemaError
		if errors.As(err, &se) {
			return fmt.Errorf("report is missing required columns: %s (see `adreport columns`)", strings.Join(se.Missing, ", "))
		}
		return err
	}
	v := url.Values{}
	v.Set("sort", o.sort)
	v.Set("limit", strconv.Itoa(o.limit))
	res.GroupRows = metrics.View(res.GroupRows, v)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func load(ctx context.Context, src string, timeout time.Duration) (string, []byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return ingest.NewFetcher(ingest.NewHTTPClient(timeout), 0).Fetch(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(src), data, nil
}

func printColumns(out io.Writer) error {
	for _, r := range schema.NumericRules() {
		req := ""
		if r.Required {
			req = " (required)"
		}
		if _, err := fmt.Fprintf(out, "%s%s\n  aliases:  %s\n  contains: %s\n", r.Field, req, strings.Join(r.Aliases, " | "), strings.Join(r.Keywords, " | ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "%s\n  aliases:  %s\n", models.FieldGroup, strings.Join(schema.GroupAliases(), " | "))
	return err
}
