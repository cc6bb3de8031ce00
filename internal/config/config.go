package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogFile string        `yaml:"log_file" env:"RELNOTES_LOG_FILE"`
	GitHub  GitHubConfig  `yaml:"github"`
	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`
	Log     LogConfig     `yaml:"log"`
}

type GitHubConfig struct {
	Host           string `yaml:"host" env:"RELNOTES_GITHUB_HOST"`
	Token          string `yaml:"token" env:"RELNOTES_GITHUB_TOKEN"`
	PageSize       int    `yaml:"page_size" env:"RELNOTES_GITHUB_PAGE_SIZE"`
	MaxPages       int    `yaml:"max_pages" env:"RELNOTES_GITHUB_MAX_PAGES"`
	CommitPageSize int    `yaml:"commit_page_size" env:"RELNOTES_GITHUB_COMMIT_PAGE_SIZE"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"RELNOTES_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"RELNOTES_STORAGE_PATH"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" env:"RELNOTES_EXPORT_DIR"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"RELNOTES_LOG_LEVEL"`
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".relnotes", "config.yaml")
}

// Load reads the YAML file at path, applies environment overrides, then fills
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	base := filepath.Join(homeDir(), ".relnotes")

	if c.GitHub.Host == "" {
		c.GitHub.Host = "github.com"
	}
	if c.GitHub.PageSize == 0 {
		c.GitHub.PageSize = 100
	}
	if c.GitHub.MaxPages == 0 {
		c.GitHub.MaxPages = 10
	}
	if c.GitHub.CommitPageSize == 0 {
		c.GitHub.CommitPageSize = 100
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "bolt"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(base, "drafts.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(base, "logs", "relnotes.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}

	c.Storage.Path = expandHome(c.Storage.Path)
	c.LogFile = expandHome(c.LogFile)
	c.Export.Dir = expandHome(c.Export.Dir)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "bolt", "sqlite":
	default:
		return fmt.Errorf("invalid storage.driver %q (bolt|sqlite)", c.Storage.Driver)
	}
	if c.GitHub.PageSize < 1 || c.GitHub.PageSize > 100 {
		return fmt.Errorf("github.page_size must be between 1 and 100, got %d", c.GitHub.PageSize)
	}
	if c.GitHub.CommitPageSize < 1 || c.GitHub.CommitPageSize > 100 {
		return fmt.Errorf("github.commit_page_size must be between 1 and 100, got %d", c.GitHub.CommitPageSize)
	}
	if c.GitHub.MaxPages < 1 {
		return fmt.Errorf("github.max_pages must be positive, got %d", c.GitHub.MaxPages)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	return nil
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return dir
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
