package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/baselineplan/pkg/errors"
	"github.com/matzehuels/baselineplan/pkg/feature"
	bpio "github.com/matzehuels/baselineplan/pkg/io"
	"github.com/matzehuels/baselineplan/pkg/observability"
	"github.com/matzehuels/baselineplan/pkg/pipeline"
)

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
)

// extractFlags holds flags for the extract command.
type extractFlags struct {
	store       storeFlags
	maxFeatures int
	sort        string
	statuses    string
	categories  string
	minUsage    int
	output      string
	format      string
	refresh     bool
	metricsFile string
}

// extractCommand creates the extract command for turning a dataset into records.
func (c *CLI) extractCommand() *cobra.Command {
	flags := extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract <dataset.json|->",
		Short: "Extract and classify features from a compat dataset",
		Long: `Extract walks a browser-compat-data dataset in priority order and emits one
record per feature with its baseline status, weighted usage and adoption date.

Use "-" to read the dataset from stdin. Records are written as JSON to stdout
unless --output is given.`,
		Example: `  # Default run, JSON to stdout
  baselineplan extract data.json

  # Top 20 features as a table, adoption order
  baselineplan extract data.json --max-features 20 --sort date --format table

  # Only features that still need waiting
  baselineplan extract data.json --status newly,limited -o plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), args[0], flags, cmd.OutOrStdout())
		},
	}

	flags.store.register(cmd)
	cmd.Flags().BoolVar(&flags.store.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().IntVarP(&flags.maxFeatures, "max-features", "n", 0, "maximum number of features (default from config, 100)")
	cmd.Flags().StringVar(&flags.sort, "sort", pipeline.SortPriority, "record order: priority, date")
	cmd.Flags().StringVar(&flags.statuses, "status", "", "keep only these statuses (comma-separated: widely,newly,limited)")
	cmd.Flags().StringVar(&flags.categories, "category", "", "keep only these category labels (comma-separated)")
	cmd.Flags().IntVar(&flags.minUsage, "min-usage", 0, "keep only features with at least this usage")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file for JSON records (default: stdout)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "output format: json, table")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics for this run to a textfile")

	return cmd
}

// runExtract executes the extract pipeline and writes the records.
func (c *CLI) runExtract(ctx context.Context, dataset string, flags extractFlags, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	if flags.format != formatJSON && flags.format != formatTable {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, table)", flags.format)
	}
	if flags.format == formatTable && flags.output != "" {
		return errors.New(errors.ErrCodeInvalidInput, "--output requires --format json")
	}
	statuses, err := parseStatuses(flags.statuses)
	if err != nil {
		return err
	}
	if flags.minUsage < 0 || flags.minUsage > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "min-usage must be within 0..100, got %d", flags.minUsage)
	}

	cfg, err := flags.store.loadConfig()
	if err != nil {
		return err
	}

	if flags.metricsFile != "" {
		reg := prometheus.NewRegistry()
		hooks := observability.NewPrometheusHooks(reg)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		defer func() {
			observability.Reset()
			if err := prometheus.WriteToTextfile(flags.metricsFile, reg); err != nil {
				logger.Warn("write metrics failed", "path", flags.metricsFile, "error", err)
			}
		}()
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	maxFeatures := cfg.MaxFeatures
	if flags.maxFeatures > 0 {
		maxFeatures = flags.maxFeatures
	}

	opts := pipeline.Options{
		Dataset:     dataset,
		MaxFeatures: maxFeatures,
		Priorities:  cfg.Priorities,
		Classifier:  cfg.Classifier(),
		Refresh:     flags.refresh,
		Sort:        flags.sort,
		Filter: feature.Filter{
			Statuses:   statuses,
			Categories: parseList(flags.categories),
			MinUsage:   flags.minUsage,
		},
		Logger: logger,
	}

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if errors.Is(err, errors.ErrCodeEmptyResult) {
		printWarning("No features extracted from %s", dataset)
		printStats(0, result.Stats.Skipped, false, result.CacheHit)
		return err
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Extracted %d features", result.Stats.Extracted))

	return writeRecords(result, flags, stdout)
}

// writeRecords writes the filtered records in the requested format.
func writeRecords(result *pipeline.Result, flags extractFlags, stdout io.Writer) error {
	records := result.Records

	if flags.format == formatTable {
		renderPlan(stdout, records)
		printStats(len(records), result.Stats.Skipped, result.Stats.Truncated, result.CacheHit)
		return nil
	}

	if flags.output == "" {
		return bpio.WriteJSON(records, stdout)
	}
	if err := bpio.ExportJSON(records, flags.output); err != nil {
		return err
	}
	printSuccess("Wrote %d features", len(records))
	printFile(flags.output)
	printStats(len(records), result.Stats.Skipped, result.Stats.Truncated, result.CacheHit)
	return nil
}
