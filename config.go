package askql

import (
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the askql configuration
type Config struct {
	Dialect   string              `yaml:"dialect"`
	Databases map[string]Database `yaml:"databases"`
	Oracle    OracleConfig        `yaml:"oracle"`
	Query     QueryConfig         `yaml:"query"`
	Schema    SchemaConfig        `yaml:"schema_extraction"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
	Database   string `yaml:"database"`
}

// OracleConfig represents the text-completion oracle settings
type OracleConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// QueryConfig represents query execution settings
type QueryConfig struct {
	DefaultFormat      string `yaml:"default_format"`
	DefaultEnvironment string `yaml:"default_environment"`
	Timeout            int    `yaml:"timeout"` // seconds
	MaxRows            int    `yaml:"max_rows"`
	Explain            bool   `yaml:"explain"` // run EXPLAIN before executing
}

// SchemaConfig represents schema extraction settings
type SchemaConfig struct {
	IncludeViews   bool     `yaml:"include_views"`
	IncludeIndexes bool     `yaml:"include_indexes"`
	ExcludeTables  []string `yaml:"exclude_tables"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Return default configuration if file doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" && !Dialect(config.Dialect).Valid() {
		return fmt.Errorf("%w: invalid dialect '%s': must be one of mysql, postgres, sqlite", ErrConfigValidation, config.Dialect)
	}

	if config.Query.Timeout < 0 {
		return fmt.Errorf("%w: query.timeout must be non-negative, got %d", ErrConfigValidation, config.Query.Timeout)
	}

	if config.Query.MaxRows < 0 {
		return fmt.Errorf("%w: query.max_rows must be non-negative, got %d", ErrConfigValidation, config.Query.MaxRows)
	}

	if config.Query.DefaultFormat != "" {
		validFormats := map[string]bool{
			"table":    true,
			"json":     true,
			"csv":      true,
			"yaml":     true,
			"markdown": true,
		}
		if !validFormats[config.Query.DefaultFormat] {
			return fmt.Errorf("%w: query.default_format '%s' is invalid: must be one of table, json, csv, yaml, markdown", ErrConfigValidation, config.Query.DefaultFormat)
		}
	}

	if config.Oracle.MaxTokens < 0 {
		return fmt.Errorf("%w: oracle.max_tokens must be non-negative, got %d", ErrConfigValidation, config.Oracle.MaxTokens)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect:   string(DialectMySQL),
		Databases: make(map[string]Database),
		Oracle: OracleConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 1024,
		},
		Query: QueryConfig{
			DefaultFormat:      "table",
			DefaultEnvironment: "development",
			Timeout:            30,
			MaxRows:            1000,
			Explain:            true,
		},
		Schema: SchemaConfig{
			IncludeViews:   false,
			IncludeIndexes: true,
			ExcludeTables:  []string{},
		},
	}
}

// applyDefaults applies default values to missing configuration fields
func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = string(DialectMySQL)
	}

	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	if config.Oracle.Model == "" {
		config.Oracle.Model = "claude-sonnet-4-5"
	}

	if config.Oracle.MaxTokens == 0 {
		config.Oracle.MaxTokens = 1024
	}

	if config.Query.DefaultFormat == "" {
		config.Query.DefaultFormat = "table"
	}

	if config.Query.DefaultEnvironment == "" {
		config.Query.DefaultEnvironment = "development"
	}

	if config.Query.Timeout == 0 {
		config.Query.Timeout = 30
	}

	if config.Query.MaxRows == 0 {
		config.Query.MaxRows = 1000
	}
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	envBraceRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	envBareRe  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = envBraceRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
	s = envBareRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})

	return s
}

// expandConfigEnvVars expands environment variables in connection settings
func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Schema = expandEnvVars(db.Schema)
		db.Database = expandEnvVars(db.Database)
		config.Databases[name] = db
	}
}
