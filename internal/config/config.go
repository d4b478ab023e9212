package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Trends   TrendsConfig   `yaml:"trends"`
	Rollup   RollupConfig   `yaml:"rollup"`
	Editor   EditorConfig   `yaml:"editor"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
	// RateLimit is the per-tenant request budget per minute; 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type TrendsConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type RollupConfig struct {
	Enabled        bool `yaml:"enabled"`
	TickIntervalMs int  `yaml:"tick_interval_ms"`
	Concurrency    int  `yaml:"concurrency"`
}

type EditorConfig struct {
	DebounceMs    int `yaml:"debounce_ms"`
	IdleTimeoutMs int `yaml:"idle_timeout_ms"`
}

type EngineConfig struct {
	HybridUnitShare      float64 `yaml:"hybrid_unit_share"`
	WeightTolerance      float64 `yaml:"weight_tolerance"`
	UnbalancedDeviation  float64 `yaml:"unbalanced_deviation"`
	CriticalWeightFactor float64 `yaml:"critical_weight_factor"`
	CriticalProgress     int     `yaml:"critical_progress"`
	CriticalWindowDays   int     `yaml:"critical_window_days"`
	HighRiskShare        float64 `yaml:"high_risk_share"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Rollup.TickIntervalMs) * time.Millisecond
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Editor.DebounceMs) * time.Millisecond
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Editor.IdleTimeoutMs) * time.Millisecond
}

// EngineParams converts the engine section into validated rule parameters.
func (c *Config) EngineParams() (engine.Params, error) {
	p := engine.Params{
		HybridUnitShare:      c.Engine.HybridUnitShare,
		WeightTolerance:      c.Engine.WeightTolerance,
		UnbalancedDeviation:  c.Engine.UnbalancedDeviation,
		CriticalWeightFactor: c.Engine.CriticalWeightFactor,
		CriticalProgress:     c.Engine.CriticalProgress,
		CriticalWindowDays:   c.Engine.CriticalWindowDays,
		HighRiskShare:        c.Engine.HighRiskShare,
	}
	if err := p.Validate(); err != nil {
		return engine.Params{}, fmt.Errorf("engine config: %w", err)
	}
	return p, nil
}

func Load(path string) (*Config, error) {
	d := engine.DefaultParams()
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   600,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Rollup: RollupConfig{
			Enabled:        true,
			TickIntervalMs: 60000,
			Concurrency:    4,
		},
		Editor: EditorConfig{
			DebounceMs:    1500,
			IdleTimeoutMs: 600000,
		},
		Engine: EngineConfig{
			HybridUnitShare:      d.HybridUnitShare,
			WeightTolerance:      d.WeightTolerance,
			UnbalancedDeviation:  d.UnbalancedDeviation,
			CriticalWeightFactor: d.CriticalWeightFactor,
			CriticalProgress:     d.CriticalProgress,
			CriticalWindowDays:   d.CriticalWindowDays,
			HighRiskShare:        d.HighRiskShare,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envInt("STRATIX_PORT", &cfg.Server.Port)
	envInt("STRATIX_METRICS_PORT", &cfg.Server.MetricsPort)
	envInt("STRATIX_RATE_LIMIT", &cfg.Server.RateLimit)
	if v := os.Getenv("STRATIX_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("STRATIX_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("STRATIX_TRENDS_URL"); v != "" {
		cfg.Trends.URL = v
	}
	if v := os.Getenv("STRATIX_TRENDS_TOKEN"); v != "" {
		cfg.Trends.Token = v
	}
	if v := os.Getenv("STRATIX_ROLLUP_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rollup.Enabled = b
		}
	}
	envInt("STRATIX_TICK_INTERVAL_MS", &cfg.Rollup.TickIntervalMs)
	envInt("STRATIX_ROLLUP_CONCURRENCY", &cfg.Rollup.Concurrency)
	envInt("STRATIX_DEBOUNCE_MS", &cfg.Editor.DebounceMs)
	envInt("STRATIX_IDLE_TIMEOUT_MS", &cfg.Editor.IdleTimeoutMs)
	envFloat("STRATIX_HYBRID_UNIT_SHARE", &cfg.Engine.HybridUnitShare)
	envFloat("STRATIX_CRITICAL_WEIGHT_FACTOR", &cfg.Engine.CriticalWeightFactor)
	envInt("STRATIX_CRITICAL_PROGRESS", &cfg.Engine.CriticalProgress)
	envInt("STRATIX_CRITICAL_WINDOW_DAYS", &cfg.Engine.CriticalWindowDays)
	envFloat("STRATIX_HIGH_RISK_SHARE", &cfg.Engine.HighRiskShare)
	envFloat("STRATIX_WEIGHT_TOLERANCE", &cfg.Engine.WeightTolerance)
	envFloat("STRATIX_UNBALANCED_DEVIATION", &cfg.Engine.UnbalancedDeviation)
	if v := os.Getenv("STRATIX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.ToLower(os.Getenv("STRATIX_LOG_FORMAT")); v == "json" || v == "text" {
		cfg.Logging.Format = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
