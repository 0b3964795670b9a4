// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name         string `yaml:"name"`
	Env          string `yaml:"env"`
	MetricsAddr  string `yaml:"metrics_addr"`
	ProgressAddr string `yaml:"progress_addr"`
	LogLevel     string `yaml:"log_level"`
}

// Data locates the candle files of every instrument.
type Data struct {
	Dir string `yaml:"dir"`
	// Pattern is joined onto Dir with {symbol} replaced, e.g. "{symbol}/1h.txt".
	Pattern string `yaml:"pattern"`
	Layout  string `yaml:"layout"`
	// Interval is the expected bar spacing; larger gaps make signals undefined. Empty disables.
	Interval string   `yaml:"interval"`
	Symbols  []string `yaml:"symbols"`
}

// Broker configures the simulated account of every run.
type Broker struct {
	StartingCash        float64 `yaml:"starting_cash"`
	Commission          float64 `yaml:"commission"`
	Percent             float64 `yaml:"percent"`
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	FillsPath           string  `yaml:"fills_path"`
}

// Strategy names the catalog entry and its fixed parameters.
type Strategy struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// Sweep describes the parameter grid.
type Sweep struct {
	Workers     int           `yaml:"workers"`
	Ranges      []sweep.Range `yaml:"ranges"`
	Constraints []string      `yaml:"constraints"`
	// Schedule is an optional six-field cron spec for re-running the sweep.
	Schedule string `yaml:"schedule"`
}

// Recorder configures sweep persistence. An empty path disables it.
type Recorder struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Data     Data     `yaml:"data"`
	Broker   Broker   `yaml:"broker"`
	Strategy Strategy `yaml:"strategy"`
	Sweep    Sweep    `yaml:"sweep"`
	Recorder Recorder `yaml:"recorder"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// LoadEnv loads .env (if present), reads path, then applies environment overrides and defaults.
func LoadEnv(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.App.MetricsAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Recorder.SQLitePath = v
	}
	if v := os.Getenv("SWEEP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SWEEP_WORKERS: %w", err)
		}
		c.Sweep.Workers = n
	}
	return nil
}

// applyDefaults fills the historical broker setup and loader defaults.
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Data.Pattern == "" {
		c.Data.Pattern = "{symbol}.csv"
	}
	if c.Data.Layout == "" {
		c.Data.Layout = "2006-01-02 15:04:05"
	}
	if c.Broker.StartingCash == 0 {
		c.Broker.StartingCash = 1_000_000
	}
	if c.Broker.Percent == 0 {
		c.Broker.Percent = 99
	}
}

// Validate checks the fields every binary depends on.
func (c *Config) Validate() error {
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols is required")
	}
	if c.Broker.StartingCash <= 0 {
		return fmt.Errorf("broker.starting_cash must be positive")
	}
	if c.Broker.Commission < 0 || c.Broker.Commission >= 1 {
		return fmt.Errorf("broker.commission must be in [0, 1)")
	}
	if c.Broker.Percent <= 0 || c.Broker.Percent > 100 {
		return fmt.Errorf("broker.percent must be in (0, 100]")
	}
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.Constraints(); err != nil {
		return err
	}
	for _, r := range c.Sweep.Ranges {
		if _, err := r.Expand(); err != nil {
			return fmt.Errorf("sweep.ranges: %w", err)
		}
	}
	return nil
}

// Interval parses Data.Interval; empty means no gap detection.
func (c *Config) Interval() (time.Duration, error) {
	if c.Data.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Data.Interval)
	if err != nil {
		return 0, fmt.Errorf("data.interval: %w", err)
	}
	return d, nil
}

// Constraints parses the sweep's validity filter.
func (c *Config) Constraints() ([]sweep.Constraint, error) {
	out := make([]sweep.Constraint, 0, len(c.Sweep.Constraints))
	for _, s := range c.Sweep.Constraints {
		con, err := sweep.ParseConstraint(s)
		if err != nil {
			return nil, fmt.Errorf("sweep.constraints: %w", err)
		}
		out = append(out, con)
	}
	return out, nil
}

// Fixed turns Strategy.Params into a combination in name order. Numbers become numeric values,
// anything else a label.
func (c *Config) Fixed() param.Combination {
	names := make([]string, 0, len(c.Strategy.Params))
	for name := range c.Strategy.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var combo param.Combination
	for _, name := range names {
		combo = combo.With(name, param.ParseValue(c.Strategy.Params[name]))
	}
	return combo
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
