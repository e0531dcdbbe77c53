package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Forecast ForecastConfig `yaml:"forecast" mapstructure:"forecast"`
	Tariff   TariffConfig   `yaml:"tariff" mapstructure:"tariff"`
	Seed     SeedConfig     `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// StoreConfig configures the snapshot store backend.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EngineConfig carries the reconciliation and risk thresholds. These are
// configuration rather than literals because they materially change
// classification outcomes.
type EngineConfig struct {
	IntervalSecs       int     `yaml:"interval_secs" mapstructure:"interval_secs"`
	MaxParallel        int     `yaml:"max_parallel" mapstructure:"max_parallel"`
	AmazonGapThreshold int     `yaml:"amazon_gap_threshold" mapstructure:"amazon_gap_threshold"`
	CriticalRiskUSD    float64 `yaml:"critical_risk_usd" mapstructure:"critical_risk_usd"`
	RiskAnnualization  float64 `yaml:"risk_annualization" mapstructure:"risk_annualization"`
	PauseRiskThreshold float64 `yaml:"pause_risk_threshold" mapstructure:"pause_risk_threshold"`
	TopRecommendations int     `yaml:"top_recommendations" mapstructure:"top_recommendations"`
}

// ForecastConfig tunes the stockout forecaster.
type ForecastConfig struct {
	HorizonScale       float64 `yaml:"horizon_scale" mapstructure:"horizon_scale"`
	LeadScale          float64 `yaml:"lead_scale" mapstructure:"lead_scale"`
	ReorderBump        float64 `yaml:"reorder_bump" mapstructure:"reorder_bump"`
	TrailingPoints     int     `yaml:"trailing_points" mapstructure:"trailing_points"`
	FallbackDemandDays float64 `yaml:"fallback_demand_days" mapstructure:"fallback_demand_days"`
}

// TariffConfig tunes the tariff scenario engine.
type TariffConfig struct {
	ProjectionFactor float64 `yaml:"projection_factor" mapstructure:"projection_factor"`
	AltCostBasis     float64 `yaml:"alt_cost_basis" mapstructure:"alt_cost_basis"`
	AltTariffRate    float64 `yaml:"alt_tariff_rate" mapstructure:"alt_tariff_rate"`
	SplitRatio       float64 `yaml:"split_ratio" mapstructure:"split_ratio"`
	ReferencePath    string  `yaml:"reference_path" mapstructure:"reference_path"`
}

// SeedConfig points at the snapshot used to seed an empty store.
type SeedConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "nexus.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.interval_secs", 30)
	v.SetDefault("engine.max_parallel", 8)
	v.SetDefault("engine.amazon_gap_threshold", 5)
	v.SetDefault("engine.critical_risk_usd", 5000)
	v.SetDefault("engine.risk_annualization", 12)
	v.SetDefault("engine.pause_risk_threshold", 55)
	v.SetDefault("engine.top_recommendations", 3)
	v.SetDefault("forecast.horizon_scale", 2.8)
	v.SetDefault("forecast.lead_scale", 6.0)
	v.SetDefault("forecast.reorder_bump", 0.08)
	v.SetDefault("forecast.trailing_points", 3)
	v.SetDefault("forecast.fallback_demand_days", 14)
	v.SetDefault("tariff.projection_factor", 4)
	v.SetDefault("tariff.alt_cost_basis", 0.85)
	v.SetDefault("tariff.alt_tariff_rate", 0.05)
	v.SetDefault("tariff.split_ratio", 0.40)
	v.SetDefault("tariff.reference_path", "testdata/tariffs.json")
	v.SetDefault("seed.path", "testdata/seed_snapshot.json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Default returns the configuration defaults without touching file or env.
// Engine tests use this to get the production thresholds.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Store:  StoreConfig{Path: "nexus.db"},
		Log:    LogConfig{Level: "info", Format: "json"},
		Engine: EngineConfig{
			IntervalSecs:       30,
			MaxParallel:        8,
			AmazonGapThreshold: 5,
			CriticalRiskUSD:    5000,
			RiskAnnualization:  12,
			PauseRiskThreshold: 55,
			TopRecommendations: 3,
		},
		Forecast: ForecastConfig{
			HorizonScale:       2.8,
			LeadScale:          6.0,
			ReorderBump:        0.08,
			TrailingPoints:     3,
			FallbackDemandDays: 14,
		},
		Tariff: TariffConfig{
			ProjectionFactor: 4,
			AltCostBasis:     0.85,
			AltTariffRate:    0.05,
			SplitRatio:       0.40,
			ReferencePath:    "testdata/tariffs.json",
		},
		Seed: SeedConfig{Path: "testdata/seed_snapshot.json"},
	}
}
