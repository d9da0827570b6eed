// Package config loads and validates the cleaning job configuration.
//
// Sources are layered, lowest to highest precedence: built-in defaults, a
// YAML file, RESALE_* environment variables, and explicitly set command-line
// flags. Nested keys use "__" in environment names:
// RESALE_STORAGE__DSN sets storage.dsn.
package config

import "time"

// Config is the whole job configuration.
type Config struct {
	Job      string    `koanf:"job" validate:"required"`
	Datasets []Dataset `koanf:"datasets" validate:"dive"`
	Parser   Parser    `koanf:"parser"`
	Output   Output    `koanf:"output"`
	Storage  Storage   `koanf:"storage"`
	Metrics  Metrics   `koanf:"metrics"`
	Runtime  Runtime   `koanf:"runtime"`
	Log      Log       `koanf:"log"`
}

// Dataset is one input file and the name it is reported and stored under.
type Dataset struct {
	Name string `koanf:"name" validate:"required"`
	Path string `koanf:"path" validate:"required"`
}

// Parser controls CSV reading.
type Parser struct {
	Comma      string            `koanf:"comma" validate:"len=1"`
	TrimSpace  bool              `koanf:"trim_space"`
	LazyQuotes bool              `koanf:"lazy_quotes"`
	HeaderMap  map[string]string `koanf:"header_map"`
}

// Output controls file export.
type Output struct {
	Dir         string `koanf:"dir"`
	Format      string `koanf:"format" validate:"oneof=csv xlsx none"`
	SplitByKind bool   `koanf:"split_by_kind"`
}

// Storage selects an optional database sink. Empty Kind disables it.
type Storage struct {
	Kind        string `koanf:"kind" validate:"omitempty,oneof=sqlite postgres mssql"`
	DSN         string `koanf:"dsn"`
	TablePrefix string `koanf:"table_prefix"`
	BatchSize   int    `koanf:"batch_size" validate:"gte=0"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string        `koanf:"backend" validate:"oneof=none datadog pushgateway"`
	PushgatewayURL string        `koanf:"pushgateway_url" validate:"omitempty,url"`
	Tags           []string      `koanf:"tags"`
	FlushEvery     time.Duration `koanf:"flush_every" validate:"gte=0"`
}

// Runtime bounds concurrency across datasets.
type Runtime struct {
	Workers int `koanf:"workers" validate:"gte=1,lte=64"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Defaults returns the built-in configuration as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"job":                     "hdb_resale",
		"parser.comma":            ",",
		"parser.trim_space":       true,
		"parser.lazy_quotes":      false,
		"output.dir":              "out",
		"output.format":           "csv",
		"output.split_by_kind":    false,
		"storage.kind":            "",
		"storage.dsn":             "",
		"storage.table_prefix":    "",
		"storage.batch_size":      500,
		"metrics.backend":         "none",
		"metrics.pushgateway_url": "http://localhost:9091",
		"metrics.flush_every":     "60s",
		"runtime.workers":         2,
		"log.level":               "info",
		"log.format":              "text",
	}
}
