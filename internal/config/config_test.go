package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, "output_dir: "+out+"\n")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, out, cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ShouldContinueOnError())
	assert.False(t, cfg.TreatWarningsAsErrors)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, []string{"STOCK"}, cfg.Source.ExcludeAccountTypes)
	assert.Equal(t, "voucher_id", cfg.Source.CSV.GroupByField)
	assert.Equal(t, "accounts", cfg.Source.Mongo.AccountsCollection)
	assert.Equal(t, []string{"vouchers", "sales", "purchases", "gst_vouchers"}, cfg.Source.Mongo.Collections)
	assert.DirExists(t, out)
}

func TestLoadMainConfigValues(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, `
output_dir: `+out+`
log_level: debug
max_concurrency: 8
continue_on_error: false
treat_warnings_as_errors: true
aliases:
  accounts: accounts.csv
  voucher_types: voucher_types.xlsx
source:
  kind: mongo
  exclude_account_types: []
  mongo:
    uri: mongodb://localhost:27017
    database: acme
    collections: [sales]
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.False(t, cfg.ShouldContinueOnError())
	assert.True(t, cfg.TreatWarningsAsErrors)
	assert.Equal(t, "accounts.csv", cfg.Aliases.Accounts)
	assert.Equal(t, "voucher_types.xlsx", cfg.Aliases.VoucherTypes)
	assert.Equal(t, SourceMongo, cfg.Source.Kind)
	assert.Empty(t, cfg.Source.ExcludeAccountTypes)
	assert.Equal(t, []string{"sales"}, cfg.Source.Mongo.Collections)
	assert.NoError(t, cfg.Require())
}

func TestLoadMainConfigEnvOverrides(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, "output_dir: "+out+"\nsource:\n  kind: mongo\n")

	t.Setenv("VOUCHER_EXPORT_MONGO_URI", "mongodb://env:27017")
	t.Setenv("VOUCHER_EXPORT_MONGO_DATABASE", "envorg")
	t.Setenv("VOUCHER_EXPORT_LOG_LEVEL", "warn")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://env:27017", cfg.Source.Mongo.URI)
	assert.Equal(t, "envorg", cfg.Source.Mongo.Database)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMainConfigErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	_, err := LoadMainConfig(writeConfig(t, "output_dir: "+out+"\nlog_level: loud\n"))
	assert.ErrorContains(t, err, "log_level")

	_, err = LoadMainConfig(writeConfig(t, "output_dir: "+out+"\nsource:\n  kind: ftp\n"))
	assert.ErrorContains(t, err, "source kind")

	_, err = LoadMainConfig(writeConfig(t, "output_dir: [\n"))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")
}

func TestRequire(t *testing.T) {
	cfg := &MainConfig{}
	applyDefaults(cfg)

	err := cfg.Require()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.csv.vouchers_file")
	assert.Contains(t, err.Error(), "source.csv.accounts_file")

	cfg.Source.CSV.VouchersFile = "legs.csv"
	cfg.Source.CSV.AccountsFile = "accounts.csv"
	assert.NoError(t, cfg.Require())
}

func TestExampleConfigParses(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	var cfg MainConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, []string{"vouchers", "sales", "purchases", "gst_vouchers"}, cfg.Source.Mongo.Collections)
	assert.False(t, cfg.TreatWarningsAsErrors)
	assert.Equal(t, "./aliases/account_types.xlsx", cfg.Aliases.AccountTypes)
	assert.Contains(t, string(data), "GST Payable,Direct Income")
}
