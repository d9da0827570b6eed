// Package pipeline runs the resale cleaning rules as one fixed sequence:
//
//	dedupe -> month -> flat_model -> lease -> storey_range -> max_storey
//	-> age_of_flat -> split_kinds
//
// It is not a step framework; the order is the order the rules depend on.
// Each step is timed, reported to internal/metrics and logged.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resale/internal/metrics"
	"resale/internal/resale"
	"resale/pkg/records"
)

// Step names, as they appear in logs and metric labels.
const (
	StepDedupe      = "dedupe"
	StepMonth       = "month"
	StepFlatModel   = "flat_model"
	StepLease       = "lease"
	StepStoreyRange = "storey_range"
	StepMaxStorey   = "max_storey"
	StepAgeOfFlat   = "age_of_flat"
	StepSplitKinds  = "split_kinds"
)

// AgeColumn is the derived column added by the age_of_flat step.
const AgeColumn = "age_of_flat"

// LeaseMode tells which lease rule ran.
type LeaseMode string

const (
	// LeaseImputed: the file had no remaining_lease column and it was
	// derived from month and lease_commence_date (uncapped).
	LeaseImputed LeaseMode = "imputed"
	// LeaseStandardized: the existing column was parsed and capped at 99.
	LeaseStandardized LeaseMode = "standardized"
)

// StepTiming is the wall time of one finished step.
type StepTiming struct {
	Step     string
	Duration time.Duration
}

// Result is everything a run produced for one dataset.
type Result struct {
	Dataset string

	// Table is the fully cleaned table.
	Table *records.Table
	// Categorical and Numerical partition Table's columns.
	Categorical *records.Table
	Numerical   *records.Table

	Report    resale.DatasetReport
	LeaseMode LeaseMode
	// LeaseUnparsed counts non-null remaining_lease values the standardizer
	// could not read. Always zero for imputed leases.
	LeaseUnparsed int

	Steps []StepTiming
}

// Runner applies the sequence. The zero value logs to slog.Default().
type Runner struct {
	Logger *slog.Logger

	now func() time.Time
}

// New returns a Runner logging to logger.
func New(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Run cleans t as dataset name. t is not modified. ctx is checked between
// steps; a failed step aborts the run and is returned wrapped with the
// dataset and step names.
func (r *Runner) Run(ctx context.Context, name string, t *records.Table) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("dataset", name))
	now := r.now
	if now == nil {
		now = time.Now
	}

	res := Result{Dataset: name}
	cur := t

	step := func(stepName string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: before step %s: %w", name, stepName, err)
		}
		start := now()
		err := fn()
		d := now().Sub(start)

		metrics.RecordStep(stepName, err, d)
		res.Steps = append(res.Steps, StepTiming{Step: stepName, Duration: d})
		if err != nil {
			logger.Error("step failed", slog.String("step", stepName), slog.Any("err", err))
			return fmt.Errorf("%s: step %s: %w", name, stepName, err)
		}
		logger.Debug("step done", slog.String("step", stepName),
			slog.Duration("duration", d), slog.Int("rows", cur.Len()))
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{StepDedupe, func() error {
			cur, res.Report = resale.CleanDataset(cur, name, logger)
			metrics.RecordRecords("read", res.Report.Rows)
			metrics.RecordRecords("duplicate", res.Report.Duplicates)
			metrics.RecordRecords("missing", res.Report.TotalMissing())
			return nil
		}},
		{StepMonth, func() (err error) {
			cur, err = resale.ConvertMonth(cur, "month")
			return err
		}},
		{StepFlatModel, func() (err error) {
			cur, err = resale.CleanFlatModel(cur)
			return err
		}},
		{StepLease, func() (err error) {
			cur, res.LeaseMode, res.LeaseUnparsed, err = lease(cur)
			if err == nil && res.LeaseUnparsed > 0 {
				metrics.RecordRecords("lease_unparsed", res.LeaseUnparsed)
				logger.Warn("unparseable remaining_lease values set to null",
					slog.Int("count", res.LeaseUnparsed))
			}
			return err
		}},
		{StepStoreyRange, func() (err error) {
			cur, err = resale.SplitStoreyRange(cur)
			return err
		}},
		{StepMaxStorey, func() (err error) {
			cur, err = resale.AddMaxStorey(cur)
			return err
		}},
		{StepAgeOfFlat, func() error {
			cur = withAge(cur)
			return nil
		}},
		{StepSplitKinds, func() error {
			res.Categorical, res.Numerical = resale.SplitCategoricalNumerical(cur)
			return nil
		}},
	}

	for _, s := range steps {
		if err := step(s.name, s.fn); err != nil {
			return res, err
		}
	}

	res.Table = cur
	logger.Info("dataset cleaned",
		slog.Int("rows", cur.Len()),
		slog.Int("columns", len(cur.Columns())),
		slog.String("lease_mode", string(res.LeaseMode)),
	)
	return res, nil
}

// lease picks the lease rule from the table's shape.
func lease(t *records.Table) (*records.Table, LeaseMode, int, error) {
	col := t.Index("remaining_lease")
	if col < 0 {
		out, err := resale.ImputeRemainingLease(t, "month")
		return out, LeaseImputed, 0, err
	}

	out, err := resale.StandardizeRemainingLease(t)
	if err != nil {
		return nil, LeaseStandardized, 0, err
	}
	unparsed := 0
	for r := 0; r < t.Len(); r++ {
		if !t.At(r, col).IsNull() && out.At(r, col).IsNull() {
			unparsed++
		}
	}
	return out, LeaseStandardized, unparsed, nil
}

func withAge(t *records.Table) *records.Table {
	out := t.Clone()
	col := out.WithColumn(AgeColumn, records.KindFloat)
	for r := 0; r < out.Len(); r++ {
		out.Set(r, col, resale.AgeOfFlat(out.Row(r)))
	}
	return out
}
