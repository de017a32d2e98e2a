package config

import (
	"os"
	"strconv"

	"deqc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Compare  CompareConfig
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Report   ReportConfig
}

// CompareConfig holds the statistical comparison settings
type CompareConfig struct {
	// Alpha is the FDR acceptance threshold for significance classification
	Alpha float64
	// NaNWarnThreshold is the NaN proportion above which a metric column
	// produces a quality warning
	NaNWarnThreshold float64
}

// DataConfig holds the result-table input locations and the contrast.
// Each input directory contains one table per shrinkage method
// (none/normal/apeglm/ashr with a .csv or .xlsx extension).
type DataConfig struct {
	TPMDir    string
	CountsDir string
	Factor    string
	Level     string
	Reference string
}

// DatabaseConfig holds the optional ledger database settings
type DatabaseConfig struct {
	URL string // empty disables the postgres ledger
}

// ServerConfig holds the optional read-only API settings
type ServerConfig struct {
	Port    string
	Enabled bool
}

// ReportConfig holds report output settings
type ReportConfig struct {
	XLSXPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Compare: CompareConfig{
			Alpha:            getEnvFloatOrDefault("DEQC_ALPHA", 0.1),
			NaNWarnThreshold: getEnvFloatOrDefault("DEQC_NAN_WARN_THRESHOLD", 0.2),
		},
		Data: DataConfig{
			TPMDir:    os.Getenv("DEQC_TPM_DIR"),
			CountsDir: os.Getenv("DEQC_COUNTS_DIR"),
			Factor:    getEnvOrDefault("DEQC_CONTRAST_FACTOR", "condition"),
			Level:     getEnvOrDefault("DEQC_CONTRAST_LEVEL", "treated"),
			Reference: getEnvOrDefault("DEQC_CONTRAST_REFERENCE", "control"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			Enabled: getEnvBoolOrDefault("DEQC_SERVE", false),
		},
		Report: ReportConfig{
			XLSXPath: getEnvOrDefault("DEQC_REPORT_XLSX", "deqc_report.xlsx"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Compare.Alpha <= 0 || config.Compare.Alpha >= 1 {
		return errors.ConfigInvalid("DEQC_ALPHA must be in (0,1)")
	}
	if config.Compare.NaNWarnThreshold < 0 || config.Compare.NaNWarnThreshold > 1 {
		return errors.ConfigInvalid("DEQC_NAN_WARN_THRESHOLD must be in [0,1]")
	}
	if config.Data.TPMDir == "" {
		return errors.ConfigInvalid("DEQC_TPM_DIR is required")
	}
	if config.Data.CountsDir == "" {
		return errors.ConfigInvalid("DEQC_COUNTS_DIR is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
