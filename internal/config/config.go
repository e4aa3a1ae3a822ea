// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Setup bounds the blocking steps of the live bring-up and sets account defaults.
type Setup struct {
	InitTimeout       time.Duration `yaml:"init_timeout"`
	LoadTimeout       time.Duration `yaml:"load_timeout"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	BaseCurrency      string        `yaml:"base_currency"`
	DefaultResolution string        `yaml:"default_resolution"`
}

// Job describes the live run to set up.
type Job struct {
	ID          string            `yaml:"id"`
	Mode        string            `yaml:"mode"`
	Brokerage   string            `yaml:"brokerage"`
	ServerClass string            `yaml:"server_class"`
	UserID      string            `yaml:"user_id"`
	Settings    map[string]string `yaml:"settings"`
}

// StrategyParams groups tunable knobs for a strategy implementation.
type StrategyParams struct {
	OBILevels         int     `yaml:"obi_levels"`
	OBIThreshold      float64 `yaml:"obi_threshold"`
	VolWindowSecs     int     `yaml:"vol_window_secs"`
	TrendThreshold    float64 `yaml:"trend_threshold"`
	TrendWindowSecs   int     `yaml:"trend_window_secs"`
	TrendMinVolumeUSD float64 `yaml:"trend_min_volume_usd"`
}

// Strategy names the artifact to load the algorithm from and how to pick one type out of it.
type Strategy struct {
	Artifact string
	Hint     string
	Symbols  []string
	Params   StrategyParams
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
}

// Feed configures the market data feed.
type Feed struct {
	Provider   string
	Interval   time.Duration
	SeedPrices map[string]float64 `yaml:"seed_prices"`
}

// Runlog selects where setup run records go.
type Runlog struct {
	JSONLPath   string `yaml:"jsonl_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Setup      Setup      `yaml:"setup"`
	Job        Job        `yaml:"job"`
	Strategy   Strategy   `yaml:"strategy"`
	Risk       Risk       `yaml:"risk"`
	Feed       Feed       `yaml:"feed"`
	Brokerages Brokerages `yaml:"brokerages"`
	Runlog     Runlog     `yaml:"runlog"`
}

// Defaults fills unset fields with the values the live path expects.
func (c *Config) Defaults() {
	if c.Setup.InitTimeout <= 0 {
		c.Setup.InitTimeout = 10 * time.Second
	}
	if c.Setup.LoadTimeout <= 0 {
		c.Setup.LoadTimeout = 10 * time.Second
	}
	if c.Setup.ConnectTimeout <= 0 {
		c.Setup.ConnectTimeout = 30 * time.Second
	}
	if c.Setup.BaseCurrency == "" {
		c.Setup.BaseCurrency = "USD"
	}
	if c.Setup.DefaultResolution == "" {
		c.Setup.DefaultResolution = "minute"
	}
	if c.Job.Mode == "" {
		c.Job.Mode = "live"
	}
	if c.Strategy.Artifact == "" {
		c.Strategy.Artifact = "builtin"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
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
	config.Defaults()
	return &config, nil
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
