package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	StoreFile  = "file"
	StoreRedis = "redis"

	defaultListen    = "127.0.0.1:5000"
	defaultIndexPath = "data/file_index.json"
	defaultRedisURL  = "redis://localhost:6379/0"
)

type ScanConfig struct {
	// DefaultDir is scanned when no directory is given explicitly
	// (SIGUSR1 trigger, empty -scan flag).
	DefaultDir string `yaml:"default_dir"`

	// Exclude holds doublestar patterns matched against absolute paths.
	// Matching directories are not descended, matching files are not
	// recorded. Empty means scan everything.
	Exclude []string `yaml:"exclude"`
}

type Config struct {
	Listen    string     `yaml:"listen"`
	LogLevel  string     `yaml:"log_level"`
	Store     string     `yaml:"store"`
	IndexPath string     `yaml:"index_path"`
	RedisURL  string     `yaml:"redis_url"`
	Scan      ScanConfig `yaml:"scan"`
}

func (c *Config) SetDefaults() {
	c.Listen = defaultListen
	c.LogLevel = LogLevelInfo
	c.Store = StoreFile
	c.IndexPath = defaultIndexPath
	c.RedisURL = defaultRedisURL

	if home, err := os.UserHomeDir(); err == nil {
		c.Scan.DefaultDir = filepath.Join(home, "Documents")
	}
}

// Load reads the yaml config at path and applies environment overrides on
// top. A missing file is not an error; defaults plus environment apply.
// Variables from a .env file in the working directory are picked up first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.SetDefaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	cfg.applyEnv()

	return cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyEnv() {
	setIfPresent := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent(&c.Listen, "DUPETRACKER_LISTEN")
	setIfPresent(&c.LogLevel, "DUPETRACKER_LOG_LEVEL")
	setIfPresent(&c.Store, "DUPETRACKER_STORE")
	setIfPresent(&c.IndexPath, "DUPETRACKER_INDEX_PATH")
	setIfPresent(&c.RedisURL, "DUPETRACKER_REDIS_URL")
	setIfPresent(&c.Scan.DefaultDir, "DUPETRACKER_SCAN_DIR")
}
