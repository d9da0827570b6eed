package cli

import (
	"context"
	"log/slog"

	"resale/internal/config"
	"resale/internal/metrics"
	"resale/internal/metrics/datadog"
	"resale/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function
// that flushes and uninstalls it. A backend that fails to initialize is
// logged and metrics stay disabled; the run goes on.
func setupMetrics(ctx context.Context, job string, m config.Metrics, logger *slog.Logger) func() {
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(job, m.PushgatewayURL)
		if err != nil {
			logger.Warn("metrics: pushgateway init failed; using nop", slog.Any("err", err))
			return func() {}
		}
		logger.Debug("metrics: pushgateway", slog.String("url", m.PushgatewayURL), slog.String("job", job))
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				logger.Warn("metrics: flush failed", slog.Any("err", err))
			}
			metrics.SetBackend(nil)
		}

	case "datadog":
		b, err := datadog.NewBackend(context.WithoutCancel(ctx), datadog.Options{
			JobName:    job,
			Tags:       m.Tags,
			FlushEvery: m.FlushEvery,
		})
		if err != nil {
			logger.Warn("metrics: datadog init failed; using nop", slog.Any("err", err))
			return func() {}
		}
		logger.Debug("metrics: datadog", slog.String("job", job), slog.Any("tags", m.Tags))
		metrics.SetBackend(b)
		return func() {
			// Close stops the flush loop and submits the tail.
			if err := b.Close(); err != nil {
				logger.Warn("metrics: datadog close failed", slog.Any("err", err))
			}
			metrics.SetBackend(nil)
		}

	default:
		logger.Debug("metrics: disabled", slog.String("backend", m.Backend))
		return func() {}
	}
}
