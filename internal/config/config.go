// =============================================================================
// CSV Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. It handles the main configuration file, the per-dataset
// settings for the fin and spo inputs, and environment overrides.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. Main Config (config.yaml)
//   3. A .env file in the working directory (loaded into the environment)
//   4. RECON_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = "config.yaml"

// Arithmetic modes for summing amounts.
const (
	ArithmeticFloat   = "float"
	ArithmeticDecimal = "decimal"
)

// Dataset labels.
const (
	DatasetFin = "fin"
	DatasetSpo = "spo"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// UploadDir is where uploaded files are stored while a request runs.
	// Default: "./uploads"
	UploadDir string `yaml:"upload_dir"`

	// OutputDir is where reconciliation reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir is where input files are moved after a successful
	// reconciliation when archiving is requested.
	// Default: "./input_archive"
	ArchiveDir string `yaml:"archive_dir"`

	// UUIDFormat defines the format for report file names.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {fin}, {spo}.
	// The extension is replaced by the report format's.
	// Default: "reconciliation_{timestamp}_{uuid}.json"
	UUIDFormat string `yaml:"uuid_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "auto", "json" or "console".
	// Default: "auto"
	LogFormat string `yaml:"log_format"`

	// LogFile is a path to write logs to. Empty means stderr.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// COMPONENT SETTINGS
	// =========================================================================

	Server    ServerConfig    `yaml:"server"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Datasets  DatasetsConfig  `yaml:"datasets"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":5000"
	Addr string `yaml:"addr"`

	// MaxUploadMB bounds the size of one upload request.
	// Default: 32
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// UploadRetention is how long stray uploads may stay in UploadDir
	// before the cleanup job removes them.
	// Default: 24h
	UploadRetention time.Duration `yaml:"upload_retention"`

	// CleanupSchedule is a cron spec for the upload cleanup job.
	// Default: "@every 1h"
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// KeepUploads leaves uploaded files in place after a request.
	KeepUploads bool `yaml:"keep_uploads"`
}

// ReconcileConfig holds the settings of the reconciliation core.
type ReconcileConfig struct {
	// Arithmetic is "float" (plain float64 sums) or "decimal" (exact sums).
	// Default: "float"
	Arithmetic string `yaml:"arithmetic"`

	// NameColumn is the exact header of the customer column.
	// Default: "name"
	NameColumn string `yaml:"name_column"`

	// AmountColumn is the exact header of the amount column.
	// Default: "amount"
	AmountColumn string `yaml:"amount_column"`
}

// DatasetsConfig holds one DatasetConfig per input role.
type DatasetsConfig struct {
	Fin DatasetConfig `yaml:"fin"`
	Spo DatasetConfig `yaml:"spo"`
}

// For returns the dataset configuration for a label.
func (d DatasetsConfig) For(label string) DatasetConfig {
	if label == DatasetSpo {
		return d.Spo
	}
	return d.Fin
}

// =============================================================================
// DATASET CONFIGURATION STRUCTURE
// =============================================================================

// DatasetConfig holds the parsing and transformation rules for one input.
type DatasetConfig struct {
	// CSVSettings contains settings for parsing the input file.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// TransformationRules are applied to text cells before reconciliation.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// CSVSettings contains settings for parsing tabular files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are merged
	// column by column with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of CSV files.
	// Supported: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// Sheet selects the worksheet of XLSX inputs. Empty means the first.
	// Legacy XLS inputs always use the first sheet.
	Sheet string `yaml:"sheet"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines transformations to apply to one column.
type TransformationRule struct {
	// Field is the exact column header the rule applies to.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is one of: "trim", "trim_left", "trim_right", "uppercase",
	// "lowercase", "title_case", "replace", "regex_replace",
	// "prepend_string", "append_string", "remove_chars",
	// "normalize_whitespace", "lookup", "lookup_with_default".
	Type string `yaml:"type"`

	// Value is the parameter for the transformation (replacement text,
	// prefix, suffix, or the set of characters to remove).
	Value string `yaml:"value"`

	// Find is the substring or pattern for "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values for the lookup types.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and environment overrides, and prepares the working directories.
//
// A missing file at DefaultConfigFile is not an error; any other missing path
// is.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := validateMainConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Load reads, defaults and overrides the configuration without touching the
// filesystem beyond reading configPath and .env.
func Load(configPath string) (*MainConfig, error) {
	var cfg MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && (configPath == "" || configPath == DefaultConfigFile):
		// Run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load .env for local runs; a missing file is fine.
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./input_archive"
	}
	if cfg.UUIDFormat == "" {
		cfg.UUIDFormat = "reconciliation_{timestamp}_{uuid}.json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "auto"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.UploadRetention == 0 {
		cfg.Server.UploadRetention = 24 * time.Hour
	}
	if cfg.Server.CleanupSchedule == "" {
		cfg.Server.CleanupSchedule = "@every 1h"
	}

	if cfg.Reconcile.Arithmetic == "" {
		cfg.Reconcile.Arithmetic = ArithmeticFloat
	}
	if cfg.Reconcile.NameColumn == "" {
		cfg.Reconcile.NameColumn = "name"
	}
	if cfg.Reconcile.AmountColumn == "" {
		cfg.Reconcile.AmountColumn = "amount"
	}

	applyCSVDefaults(&cfg.Datasets.Fin.CSVSettings)
	applyCSVDefaults(&cfg.Datasets.Spo.CSVSettings)
}

// applyCSVDefaults sets default values for one dataset's parse settings.
func applyCSVDefaults(s *CSVSettings) {
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.HeaderRows == 0 {
		s.HeaderRows = 1
	}
	if s.DataStartRow == 0 {
		s.DataStartRow = s.HeaderRows + 1
	}
	if s.Encoding == "" {
		s.Encoding = "UTF-8"
	}
}

// DefaultCSVSettings returns the settings used when a dataset has none.
func DefaultCSVSettings() CSVSettings {
	var s CSVSettings
	applyCSVDefaults(&s)
	return s
}

// applyEnvOverrides copies RECON_* environment variables over file values.
func applyEnvOverrides(cfg *MainConfig) error {
	if v := os.Getenv("RECON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RECON_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RECON_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RECON_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("RECON_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("RECON_ARITHMETIC"); v != "" {
		cfg.Reconcile.Arithmetic = strings.ToLower(v)
	}
	if v := os.Getenv("RECON_MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RECON_MAX_UPLOAD_MB must be a whole number of megabytes, got %q", v)
		}
		cfg.Server.MaxUploadMB = n
	}
	return nil
}

// Check validates values that do not depend on the filesystem.
func (cfg *MainConfig) Check() error {
	switch cfg.Reconcile.Arithmetic {
	case ArithmeticFloat, ArithmeticDecimal:
	default:
		return fmt.Errorf("reconcile.arithmetic must be %q or %q, got %q",
			ArithmeticFloat, ArithmeticDecimal, cfg.Reconcile.Arithmetic)
	}
	if cfg.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	for _, label := range []string{DatasetFin, DatasetSpo} {
		s := cfg.Datasets.For(label).CSVSettings
		if s.DataStartRow <= s.HeaderRows {
			return fmt.Errorf("datasets.%s: data_start_row (%d) must come after the header rows (%d)",
				label, s.DataStartRow, s.HeaderRows)
		}
	}
	return nil
}

// validateMainConfig creates the working directories.
func validateMainConfig(cfg *MainConfig) error {
	dirs := []string{
		cfg.UploadDir,
		cfg.OutputDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
