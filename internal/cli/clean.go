package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"resale/internal/config"
	"resale/internal/export"
	"resale/internal/metrics"
	"resale/internal/parser/csv"
	"resale/internal/pipeline"
	"resale/internal/storage"

	// register every storage backend; the config picks one.
	_ "resale/internal/storage/all"
)

// outcome is what one dataset produced, for the report.
type outcome struct {
	Result  pipeline.Result
	Skipped int
	Files   []string
	Table   string
	Written int64
}

func newCleanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [csv files...]",
		Short: "Clean resale datasets",
		Long: `Clean every dataset listed in the config, or the files given as arguments
(each named after its file stem). Datasets run concurrently up to
runtime.workers; each one is read, cleaned, exported and optionally stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runClean(cmd, args)
		},
	}

	f := cmd.Flags()
	f.String("job", "", "Job name used for metrics")
	f.String("out", "", "Output directory")
	f.String("format", "", "Output format (csv|xlsx|none)")
	f.Bool("split", false, "Also export categorical and numerical tables")
	f.String("storage", "", "Storage backend (sqlite|postgres|mssql)")
	f.String("dsn", "", "Storage DSN; $VARS are expanded")
	f.String("table-prefix", "", "Prefix for stored table names; end with '.' for a schema")
	f.Int("batch-size", 0, "Rows per insert batch")
	f.String("metrics", "", "Metrics backend (none|datadog|pushgateway)")
	f.Int("workers", 0, "Datasets cleaned concurrently")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "xlsx", "none"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("storage", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return storage.Kinds(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (a *app) runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := *a.cfg
	if len(args) > 0 {
		cfg.Datasets = datasetsFromArgs(args)
	}
	if len(cfg.Datasets) == 0 {
		return errors.New("clean: no datasets; pass CSV files or list them under datasets in the config")
	}

	issues := config.ValidatePipeline(cfg)
	for _, iss := range issues {
		a.logger.Warn("config", slog.String("severity", string(iss.Severity)), slog.String("path", iss.Path), slog.String("message", iss.Message))
	}
	if config.HasErrors(issues) {
		return errors.New("clean: configuration is invalid")
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	stopMetrics := setupMetrics(ctx, cfg.Job, cfg.Metrics, a.logger)
	defer stopMetrics()

	var sink storage.Sink
	if cfg.Storage.Kind != "" {
		sink, err = storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
		if err != nil {
			return fmt.Errorf("clean: open storage: %w", err)
		}
		defer sink.Close()
	}

	start := time.Now()
	a.logger.Info("clean: start",
		slog.Int("datasets", len(cfg.Datasets)),
		slog.String("format", string(format)),
		slog.String("storage", cfg.Storage.Kind),
		slog.Int("workers", cfg.Runtime.Workers))

	runner := pipeline.New(a.logger)
	outcomes := make([]*outcome, len(cfg.Datasets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Runtime.Workers, 1))
	for i, ds := range cfg.Datasets {
		g.Go(func() error {
			o, err := a.cleanOne(gctx, cfg, runner, sink, format, ds)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	runErr := g.Wait()

	done := make([]*outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o != nil {
			done = append(done, o)
		}
	}
	renderReport(cmd.OutOrStdout(), done)

	a.logger.Info("clean: done",
		slog.Int("datasets", len(done)),
		slog.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return runErr
}

func (a *app) cleanOne(ctx context.Context, cfg config.Config, runner *pipeline.Runner, sink storage.Sink, format export.Format, ds config.Dataset) (*outcome, error) {
	logger := a.logger.With(slog.String("dataset", ds.Name))

	f, err := os.Open(ds.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Name, err)
	}
	defer f.Close()

	o := &outcome{}
	t, err := csv.ReadTable(ctx, f, parserOptions(cfg.Parser), func(line int, err error) {
		o.Skipped++
		logger.Warn("skipping malformed record", slog.Int("line", line), slog.Any("err", err))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", ds.Name, ds.Path, err)
	}
	logger.Debug("loaded", slog.String("path", ds.Path), slog.Int("rows", t.Len()), slog.Int("columns", len(t.Columns())))

	res, err := runner.Run(ctx, ds.Name, t)
	if err != nil {
		return nil, err
	}
	o.Result = res

	parts := []export.Part{{Name: "cleaned", Table: res.Table}}
	if cfg.Output.SplitByKind {
		parts = append(parts,
			export.Part{Name: "categorical", Table: res.Categorical},
			export.Part{Name: "numerical", Table: res.Numerical})
	}
	o.Files, err = export.Files(cfg.Output.Dir, ds.Name, format, parts...)
	if err != nil {
		return nil, fmt.Errorf("%s: export: %w", ds.Name, err)
	}

	if sink != nil {
		o.Table = storage.TableName(cfg.Storage.TablePrefix, ds.Name)
		n, err := storage.Write(ctx, sink, o.Table, res.Table, storage.WriteOptions{BatchSize: cfg.Storage.BatchSize})
		if err != nil {
			return nil, fmt.Errorf("%s: store %s: %w", ds.Name, o.Table, err)
		}
		o.Written = n
		metrics.RecordRecords("written", int(n))
		logger.Info("stored", slog.String("table", o.Table), slog.Int64("inserted", n))
	}

	return o, nil
}

func parserOptions(p config.Parser) csv.Options {
	opt := csv.Options{
		TrimSpace:  p.TrimSpace,
		LazyQuotes: p.LazyQuotes,
		HeaderMap:  p.HeaderMap,
	}
	if r := []rune(p.Comma); len(r) == 1 {
		opt.Comma = r[0]
	}
	return opt
}

// datasetsFromArgs names each file after its stem:
// data/resale-2017.csv -> resale-2017.
func datasetsFromArgs(paths []string) []config.Dataset {
	out := make([]config.Dataset, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		out[i] = config.Dataset{
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
			Path: p,
		}
	}
	return out
}
