package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/ddlseed/internal/types"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "ddlseed.config.json"

type Config struct {
	Version    string   `json:"version" mapstructure:"version"`
	SchemaPath string   `json:"schema_path" mapstructure:"schema_path"` // .sql file or folder of .sql files
	OutputDir  string   `json:"output_dir" mapstructure:"output_dir"`
	Dialect    string   `json:"dialect" mapstructure:"dialect"` // quoting of generated INSERT statements
	MaxRetries int      `json:"max_retries" mapstructure:"max_retries"`
	Database   Database `json:"database" mapstructure:"database"`
}

// Database is only used by apply, which loads a generated script into a
// live database.
type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.SchemaPath == "" {
		c.SchemaPath = "db/schema"
	}
	if c.OutputDir == "" {
		c.OutputDir = "db/seed"
	}
	if c.Dialect == "" {
		c.Dialect = "mysql"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 25
	}
	if c.Database.Provider == "" {
		c.Database.Provider = c.Dialect
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	if !contains(supportedProviders, c.Dialect) {
		return fmt.Errorf("unsupported dialect: %s. Supported dialects: %v", c.Dialect, supportedProviders)
	}
	if !contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) EnsureDirectories() error {
	if c.OutputDir == "" || c.OutputDir == "." {
		return nil
	}
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.OutputDir, err)
	}
	return nil
}

// LoadGenerationConfig reads a generation config from a .yaml, .yml or
// .json file. JSON is decoded by the YAML decoder as well.
func LoadGenerationConfig(path string) (*types.GenerationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation config: %w", err)
	}
	return ParseGenerationConfig(data)
}

func ParseGenerationConfig(data []byte) (*types.GenerationConfig, error) {
	var cfg types.GenerationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse generation config: %w", err)
	}
	if cfg.Tables == nil {
		cfg.Tables = make(map[string]types.TableConfig)
	}
	cfg.Format = types.Format(strings.ToLower(string(cfg.Format)))
	if cfg.Format == "" {
		cfg.Format = types.FormatSQL
	}
	return &cfg, nil
}

// InitializeProject writes a default config file and a sample generation
// config into dir. It refuses to overwrite an existing config.
func InitializeProject(dir string) error {
	configPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", configPath, err)
	}

	genPath := filepath.Join(dir, "generation.yaml")
	if _, err := os.Stat(genPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(genPath, []byte(sampleGenerationConfig), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", genPath, err)
		}
	}
	return nil
}

const sampleGenerationConfig = `# Rows to generate per table. Tables left out get no rows.
format: sql
seed: 42
tables:
  users:
    rowCount: 100
    columns:
      email:
        provider: internet.email
      name:
        provider: person.name
`
