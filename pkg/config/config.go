// Package config resolves launcher settings from defaults, an optional .env
// file, environment variables and an optional YAML/JSON cluster file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Validation failures callers may branch on.
var (
	ErrNodeCount = errors.New("node count out of range")
	ErrPortRange = errors.New("port range invalid")
)

// Config holds everything needed to plan and launch one cluster run.
type Config struct {
	Nodes      int    `yaml:"nodes" json:"nodes"`
	BasePort   int    `yaml:"base_port" json:"base_port"`
	Bin        string `yaml:"bin" json:"bin"`
	LogDir     string `yaml:"log_dir" json:"log_dir"`
	LogLevel   string `yaml:"log_level" json:"log_level"`
	FailOnExit bool   `yaml:"fail_on_exit" json:"fail_on_exit"`

	APIAddr     string `yaml:"api_addr" json:"api_addr"`
	StoreType   string `yaml:"store" json:"store"`
	ConsulAddr  string `yaml:"consul_addr" json:"consul_addr"`
	JournalPath string `yaml:"journal" json:"journal"`
}

// Default returns the built-in settings: ten peers beyond node zero on ports
// from 10000, node binary resolved from the working directory.
func Default() Config {
	return Config{
		Nodes:      10,
		BasePort:   10000,
		Bin:        "./node",
		LogDir:     ".",
		LogLevel:   "info",
		StoreType:  "memory",
		ConsulAddr: "127.0.0.1:8500",
	}
}

// Load builds the config: defaults, then a .env file if present, then
// environment variables, then the cluster file at path (when non-empty).
// Command-line flags are applied by the caller on top of the result.
func Load(path string) (Config, error) {
	cfg := Default()
	_ = loadDotEnv()
	cfg.applyEnv()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Bin = getenv("SWARMLAB_BIN", c.Bin)
	c.LogDir = getenv("SWARMLAB_LOG_DIR", c.LogDir)
	c.LogLevel = getenv("SWARMLAB_LOG_LEVEL", c.LogLevel)
	c.APIAddr = getenv("SWARMLAB_API", c.APIAddr)
	c.StoreType = getenv("SWARMLAB_STORE", c.StoreType)
	c.ConsulAddr = getenv("CONSUL_ADDR", c.ConsulAddr)
	c.JournalPath = getenv("SWARMLAB_JOURNAL", c.JournalPath)
	if v := os.Getenv("SWARMLAB_BASE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.BasePort = p
		}
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	return nil
}

// Validate rejects impossible runs before any process starts. Nodes is the
// highest node index: a run launches nodes 0..Nodes inclusive.
func (c Config) Validate() error {
	if c.Nodes < 0 {
		return fmt.Errorf("%w: %d", ErrNodeCount, c.Nodes)
	}
	if c.BasePort <= 0 {
		return fmt.Errorf("%w: base port %d", ErrPortRange, c.BasePort)
	}
	if c.BasePort+c.Nodes > 65535 {
		return fmt.Errorf("%w: base port %d + %d nodes exceeds 65535", ErrPortRange, c.BasePort, c.Nodes)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
