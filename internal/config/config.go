// =============================================================================
// Voucher Export - Configuration Module
// =============================================================================
//
// This module is responsible for loading the export configuration. A single
// YAML file describes where vouchers come from, which alias tables apply,
// where the output goes and how the run is logged.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML file (--config, default config.yaml)
//   3. Environment variables, optionally from a .env file
//
// ENVIRONMENT VARIABLES:
//   VOUCHER_EXPORT_MONGO_URI       - MongoDB connection string
//   VOUCHER_EXPORT_MONGO_DATABASE  - MongoDB database (organisation)
//   VOUCHER_EXPORT_LOG_LEVEL       - debug, info, warn, error
//   VOUCHER_EXPORT_OUTPUT_DIR      - output directory
//
//   Connection strings usually carry credentials, so they are expected to
//   come from the environment rather than the YAML file.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceCSV   = "csv"
	SourceMongo = "mongo"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the configuration of one export run.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated XML files are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputArchiveDir is where a copy of every generated file is kept.
	// Leave empty to disable archiving.
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveTimestampSubdirs files archived copies under YYYY/MM/DD.
	// Default: false
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// ArchiveRetentionDays removes archived files older than this many days
	// after each run. 0 keeps everything.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr
	// only.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// FileNameFormat defines the output file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {from}      - First date of the export range
	//   {to}        - Last date of the export range
	//   {kind}      - "vouchers" or "ledgers"
	// Default: "tally_{kind}_{from}_{to}.xml"
	FileNameFormat string `yaml:"file_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of vouchers transformed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError writes the document even if some vouchers failed.
	// Failed vouchers are left out and reported.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// TreatWarningsAsErrors fails vouchers on validation warnings (unbalanced
	// legs, no legs, unreadable date) instead of only reporting them.
	// Default: false
	TreatWarningsAsErrors bool `yaml:"treat_warnings_as_errors"`

	// =========================================================================
	// ALIAS TABLES
	// =========================================================================

	Aliases AliasConfig `yaml:"aliases"`

	// =========================================================================
	// VOUCHER SOURCE
	// =========================================================================

	Source SourceConfig `yaml:"source"`

	// =========================================================================
	// RUN HISTORY
	// =========================================================================

	// HistoryDB is the SQLite file recording past runs. Empty disables it.
	HistoryDB string `yaml:"history_db"`
}

// AliasConfig lists the optional alias tables (.csv or .xlsx).
type AliasConfig struct {
	Accounts     string `yaml:"accounts"`
	VoucherTypes string `yaml:"voucher_types"`
	AccountTypes string `yaml:"account_types"`
}

// SourceConfig selects and configures the voucher source.
type SourceConfig struct {
	// Kind is "csv" or "mongo".
	// Default: "csv"
	Kind string `yaml:"kind"`

	// ExcludeAccountTypes lists leg account-type codes dropped before
	// transformation.
	// Default: ["STOCK"]
	ExcludeAccountTypes []string `yaml:"exclude_account_types"`

	CSV   CSVSourceConfig   `yaml:"csv"`
	Mongo MongoSourceConfig `yaml:"mongo"`
}

// CSVSourceConfig configures the CSV leg-file source.
type CSVSourceConfig struct {
	// VouchersFile holds one row per leg.
	VouchersFile string `yaml:"vouchers_file"`

	// AccountsFile holds the account directory (id,name[,account_type]).
	AccountsFile string `yaml:"accounts_file"`

	// GroupByField is the column that identifies a voucher.
	// Default: "voucher_id"
	GroupByField string `yaml:"group_by_field"`

	// Delimiter is the field separator.
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// MongoSourceConfig configures the MongoDB source.
type MongoSourceConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`

	// Collections holding voucher documents.
	// Default: ["vouchers", "sales", "purchases", "gst_vouchers"]
	Collections []string `yaml:"collections"`

	// AccountsCollection holds the account directory.
	// Default: "accounts"
	AccountsCollection string `yaml:"accounts_collection"`

	// TimeoutSeconds bounds connection and each query.
	// Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MergeCashSales folds cash-only sales of the "sales" collection into
	// one voucher per day, with legs summed per account.
	// Default: false
	MergeCashSales bool `yaml:"merge_cash_sales"`
}

// ShouldContinueOnError reports the effective ContinueOnError setting.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file and applies
// environment overrides.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not
//     an error when configPath is the default "config.yaml"; defaults and
//     environment variables are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// A .env file next to the working directory is optional.
	_ = godotenv.Load()

	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && configPath == DefaultPath:
		// Run on defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&config)
	applyEnv(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "config.yaml"

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = "tally_{kind}_{from}_{to}.xml"
	}
	if config.ArchiveRetentionDays < 0 {
		config.ArchiveRetentionDays = 0
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}

	if config.Source.Kind == "" {
		config.Source.Kind = SourceCSV
	}
	if config.Source.ExcludeAccountTypes == nil {
		config.Source.ExcludeAccountTypes = []string{"STOCK"}
	}
	if config.Source.CSV.GroupByField == "" {
		config.Source.CSV.GroupByField = "voucher_id"
	}
	if config.Source.CSV.Delimiter == "" {
		config.Source.CSV.Delimiter = ","
	}
	if len(config.Source.Mongo.Collections) == 0 {
		config.Source.Mongo.Collections = []string{"vouchers", "sales", "purchases", "gst_vouchers"}
	}
	if config.Source.Mongo.AccountsCollection == "" {
		config.Source.Mongo.AccountsCollection = "accounts"
	}
	if config.Source.Mongo.TimeoutSeconds <= 0 {
		config.Source.Mongo.TimeoutSeconds = 30
	}
}

// applyEnv overrides settings from environment variables.
func applyEnv(config *MainConfig) {
	if v := os.Getenv("VOUCHER_EXPORT_MONGO_URI"); v != "" {
		config.Source.Mongo.URI = v
	}
	if v := os.Getenv("VOUCHER_EXPORT_MONGO_DATABASE"); v != "" {
		config.Source.Mongo.Database = v
	}
	if v := os.Getenv("VOUCHER_EXPORT_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("VOUCHER_EXPORT_OUTPUT_DIR"); v != "" {
		config.OutputDir = v
	}
}

// validateMainConfig validates the configuration and creates the output
// directories.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	switch config.Source.Kind {
	case SourceCSV, SourceMongo:
	default:
		return fmt.Errorf("unknown source kind %q", config.Source.Kind)
	}

	dirs := []string{config.OutputDir, config.OutputArchiveDir}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Require checks that the settings needed by the selected source are set.
// It is called by the commands that actually read vouchers, so that
// commands such as "history" run without a source.
func (c *MainConfig) Require() error {
	var missing []string

	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.CSV.VouchersFile == "" {
			missing = append(missing, "source.csv.vouchers_file")
		}
		if c.Source.CSV.AccountsFile == "" {
			missing = append(missing, "source.csv.accounts_file")
		}
	case SourceMongo:
		if c.Source.Mongo.URI == "" {
			missing = append(missing, "source.mongo.uri (or VOUCHER_EXPORT_MONGO_URI)")
		}
		if c.Source.Mongo.Database == "" {
			missing = append(missing, "source.mongo.database (or VOUCHER_EXPORT_MONGO_DATABASE)")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
