// Package config provides configuration management for the watcher and CLI.
// The analytics engine itself takes all inputs as arguments; nothing in the
// core packages reads configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"optionwatch/internal/market"
	"optionwatch/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Watcher   WatcherConfig    `mapstructure:"watcher"`
	Risk      RiskConfig       `mapstructure:"risk"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Symbols   []SymbolConfig   `mapstructure:"symbols"`
	Scenarios []ScenarioConfig `mapstructure:"scenarios"`
}

// WatcherConfig holds evaluation-cycle settings.
type WatcherConfig struct {
	UpdateIntervalSeconds int    `mapstructure:"update_interval_seconds"`
	MaxIterations         int    `mapstructure:"max_iterations"` // 0 = run forever
	JournalPath           string `mapstructure:"journal_path"`
	OffHoursEvaluation    bool   `mapstructure:"off_hours_evaluation"`
}

// RiskConfig holds portfolio exposure limits. Zero disables a limit.
type RiskConfig struct {
	MaxDelta        float64 `mapstructure:"max_delta"`
	MaxGamma        float64 `mapstructure:"max_gamma"`
	MaxTheta        float64 `mapstructure:"max_theta"`
	MaxVega         float64 `mapstructure:"max_vega"`
	MaxScenarioLoss float64 `mapstructure:"max_scenario_loss"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SymbolConfig describes one watched underlying.
type SymbolConfig struct {
	Symbol         string `mapstructure:"symbol"`
	Venue          string `mapstructure:"venue"` // "US" or "CRYPTO"
	Enabled        bool   `mapstructure:"enabled"`
	Open           string `mapstructure:"market_open"`
	Close          string `mapstructure:"market_close"`
	PreMarketStart string `mapstructure:"pre_market_start"`
	AfterHoursEnd  string `mapstructure:"after_hours_end"`
}

// Hours returns the symbol's trading hours, defaulting any unset field.
func (s SymbolConfig) Hours() market.Hours {
	h := market.DefaultHours()
	if s.Open != "" {
		h.Open = s.Open
	}
	if s.Close != "" {
		h.Close = s.Close
	}
	if s.PreMarketStart != "" {
		h.PreMarketStart = s.PreMarketStart
	}
	if s.AfterHoursEnd != "" {
		h.AfterHoursEnd = s.AfterHoursEnd
	}
	return h
}

// ScenarioConfig describes one named market shock.
type ScenarioConfig struct {
	Name     string  `mapstructure:"name"`
	SpotPct  float64 `mapstructure:"spot_pct"`
	VolShift float64 `mapstructure:"vol_shift"`
	Days     int     `mapstructure:"days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optionwatch"
	}
	return filepath.Join(home, ".config", "optionwatch")
}

// Load loads configuration from the specified directory. If configDir is
// empty, uses the default config directory. A missing config file is
// replaced by a commented template.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("watcher.update_interval_seconds", 60)
	v.SetDefault("watcher.max_iterations", 0)
	v.SetDefault("watcher.journal_path", filepath.Join(configDir, "optionwatch.db"))
	v.SetDefault("watcher.off_hours_evaluation", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "optionwatch.log"))
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age_days", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTIONWATCH_JOURNAL"); v != "" {
		cfg.Watcher.JournalPath = v
	}
	if v := os.Getenv("OPTIONWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPTIONWATCH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Watcher.UpdateIntervalSeconds = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Watcher.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update_interval_seconds must be positive")
	}
	if c.Risk.MaxDelta < 0 || c.Risk.MaxGamma < 0 || c.Risk.MaxTheta < 0 ||
		c.Risk.MaxVega < 0 || c.Risk.MaxScenarioLoss < 0 {
		return fmt.Errorf("risk limits must be non-negative")
	}
	seen := make(map[string]bool)
	for _, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario without a name")
		}
		if seen[sc.Name] {
			return fmt.Errorf("duplicate scenario name: %s", sc.Name)
		}
		seen[sc.Name] = true
	}
	for _, s := range c.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbol entry without a symbol")
		}
		if err := s.Hours().Validate(); err != nil {
			return fmt.Errorf("symbol %s: %w", s.Symbol, err)
		}
	}
	return nil
}

// ScenarioSet converts the configured scenarios into engine scenarios,
// preserving order.
func (c *Config) ScenarioSet() []models.Scenario {
	out := make([]models.Scenario, len(c.Scenarios))
	for i, sc := range c.Scenarios {
		out[i] = models.Scenario{Name: sc.Name, SpotPct: sc.SpotPct, VolShift: sc.VolShift, Days: sc.Days}
	}
	return out
}

// Limits converts the configured risk section into engine limits.
func (c *Config) Limits() models.RiskLimits {
	return models.RiskLimits{
		MaxDelta:        c.Risk.MaxDelta,
		MaxGamma:        c.Risk.MaxGamma,
		MaxTheta:        c.Risk.MaxTheta,
		MaxVega:         c.Risk.MaxVega,
		MaxScenarioLoss: c.Risk.MaxScenarioLoss,
	}
}

// EnabledSymbols returns the symbols marked enabled, in config order.
func (c *Config) EnabledSymbols() []SymbolConfig {
	var out []SymbolConfig
	for _, s := range c.Symbols {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
