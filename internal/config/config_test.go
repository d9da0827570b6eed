package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
job: hdb_test
datasets:
  - name: resale_2017_onwards
    path: data/resale-2017.csv
  - name: resale_2000_2012
    path: data/resale-2000.csv
parser:
  comma: ";"
  header_map:
    "Remaining Lease": remaining_lease
output:
  format: xlsx
storage:
  kind: sqlite
  dsn: ${RESALE_TEST_DB_DIR}/resale.db
metrics:
  flush_every: 15s
  tags: [team:housing]
runtime:
  workers: 3
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resale.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("verbose", false, "")
	fs.String("format", "", "")
	fs.Int("workers", 0, "")
	fs.String("dsn", "", "")
	fs.String("unrelated", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "hdb_resale", cfg.Job)
	assert.Equal(t, ",", cfg.Parser.Comma)
	assert.True(t, cfg.Parser.TrimSpace)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 500, cfg.Storage.BatchSize)
	assert.Equal(t, "none", cfg.Metrics.Backend)
	assert.Equal(t, 60*time.Second, cfg.Metrics.FlushEvery)
	assert.Equal(t, 2, cfg.Runtime.Workers)
	assert.Equal(t, Log{Level: "info", Format: "text"}, cfg.Log)
	assert.Empty(t, cfg.Datasets)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("RESALE_TEST_DB_DIR", "/tmp/x")

	cfg, err := Load(writeFile(t, sampleYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, "hdb_test", cfg.Job)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, Dataset{Name: "resale_2000_2012", Path: "data/resale-2000.csv"}, cfg.Datasets[1])
	assert.Equal(t, ";", cfg.Parser.Comma)
	assert.True(t, cfg.Parser.TrimSpace, "defaults survive a partial section")
	assert.Equal(t, map[string]string{"Remaining Lease": "remaining_lease"}, cfg.Parser.HeaderMap)
	assert.Equal(t, "/tmp/x/resale.db", cfg.Storage.DSN)
	assert.Equal(t, 15*time.Second, cfg.Metrics.FlushEvery)
	assert.Equal(t, []string{"team:housing"}, cfg.Metrics.Tags)
	assert.Equal(t, 3, cfg.Runtime.Workers)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, sampleYAML)
	t.Setenv("RESALE_OUTPUT__FORMAT", "none")
	t.Setenv("RESALE_RUNTIME__WORKERS", "5")
	t.Setenv("RESALE_LOG__FORMAT", "json")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--workers", "7", "--verbose", "--unrelated", "x"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Output.Format, "env beats file")
	assert.Equal(t, 7, cfg.Runtime.Workers, "flag beats env")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level, "--verbose raises the level")
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(writeFile(t, sampleYAML), fs)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, 3, cfg.Runtime.Workers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "job: [unclosed"), nil)
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "storage.table_prefix", envKey("RESALE_STORAGE__TABLE_PREFIX"))
	assert.Equal(t, "job", envKey("RESALE_JOB"))
}

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Datasets = []Dataset{{Name: "resale", Path: "resale.csv"}}
	return *cfg
}

func paths(issues []Issue) map[string]Severity {
	out := map[string]Severity{}
	for _, iss := range issues {
		out[iss.Path] = iss.Severity
	}
	return out
}

func TestValidatePipeline_DefaultsAreValid(t *testing.T) {
	issues := ValidatePipeline(validConfig(t))
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidatePipeline_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
		sev    Severity
	}{
		{"missing job", func(c *Config) { c.Job = "" }, "job", SeverityError},
		{"dataset path", func(c *Config) { c.Datasets[0].Path = "" }, "datasets[0].path", SeverityError},
		{"duplicate dataset", func(c *Config) {
			c.Datasets = append(c.Datasets, Dataset{Name: "resale", Path: "other.csv"})
		}, "datasets[1].name", SeverityError},
		{"no datasets", func(c *Config) { c.Datasets = nil }, "datasets", SeverityWarning},
		{"comma", func(c *Config) { c.Parser.Comma = ";;" }, "parser.comma", SeverityError},
		{"header map", func(c *Config) { c.Parser.HeaderMap = map[string]string{"Town": " "} }, "parser.header_map.Town", SeverityError},
		{"format", func(c *Config) { c.Output.Format = "parquet" }, "output.format", SeverityError},
		{"storage kind", func(c *Config) { c.Storage.Kind = "oracle"; c.Storage.DSN = "x" }, "storage.kind", SeverityError},
		{"storage dsn", func(c *Config) { c.Storage.Kind = "sqlite" }, "storage.dsn", SeverityError},
		{"dangling dsn", func(c *Config) { c.Storage.DSN = "x" }, "storage.dsn", SeverityWarning},
		{"metrics backend", func(c *Config) { c.Metrics.Backend = "statsd" }, "metrics.backend", SeverityError},
		{"pushgateway url", func(c *Config) {
			c.Metrics.Backend = "pushgateway"
			c.Metrics.PushgatewayURL = ""
		}, "metrics.pushgateway_url", SeverityError},
		{"workers", func(c *Config) { c.Runtime.Workers = 0 }, "runtime.workers", SeverityError},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level", SeverityError},
		{"nothing to do", func(c *Config) { c.Output.Format = "none" }, "output.format", SeverityWarning},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig(t)
			tc.mutate(&c)
			got := paths(ValidatePipeline(c))
			assert.Equal(t, tc.sev, got[tc.path], "issues: %v", got)
		})
	}
}

func TestIssueString(t *testing.T) {
	iss := Issue{SeverityError, "storage.dsn", "required when storage.kind is set"}
	assert.Equal(t, "error: storage.dsn: required when storage.kind is set", iss.String())
}
