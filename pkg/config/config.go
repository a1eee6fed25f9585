// Package config provides a reusable loader for the arbitrage engine's
// configuration files and environment variables. It mirrors the option
// names listed in spec.md §6 and is versioned so callers can depend on a
// stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/solarb/engine/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// OptimizationMethod selects which §4.6 search strategy the optimizer uses.
type OptimizationMethod string

const (
	OptimizationBrent        OptimizationMethod = "brent_method"
	OptimizationGoldenSearch OptimizationMethod = "golden_section"
	OptimizationTernary      OptimizationMethod = "ternary"
)

// WatcherConfig groups the discovery-watcher-only options from spec.md §6.
type WatcherConfig struct {
	OnlySucceed bool `mapstructure:"only_succeed" json:"only_succeed"`
	OnlyFailed  bool `mapstructure:"only_failed" json:"only_failed"`
	MaxPools    int  `mapstructure:"max_pools" json:"max_pools"`
	MaxRoutes   int  `mapstructure:"max_routes" json:"max_routes"`
}

// Config is the unified configuration for one engine instance.
type Config struct {
	BaseMint        string `mapstructure:"base_mint" json:"base_mint"`
	MinimumProfit   int64  `mapstructure:"minimum_profit" json:"minimum_profit"`
	MaxHops         int    `mapstructure:"max_hops" json:"max_hops"`
	RoutesBatchSize int    `mapstructure:"routes_batch_size" json:"routes_batch_size"`

	OptimizationMethod          OptimizationMethod `mapstructure:"optimization_method" json:"optimization_method"`
	OptimizationAmountPercent   int64              `mapstructure:"optimization_amount_percent" json:"optimization_amount_percent"`
	PriceThreshold              float64            `mapstructure:"price_threshold" json:"price_threshold"`
	PriceThresholdBps           int64              `mapstructure:"price_threshold_bps" json:"price_threshold_bps"`
	BondingCurveThresholdMargin int64              `mapstructure:"bonding_curve_threshold_margin" json:"bonding_curve_threshold_margin"`
	RejectTinyHighRoi           bool               `mapstructure:"reject_tiny_high_roi" json:"reject_tiny_high_roi"`

	EnabledSlippage bool `mapstructure:"enabled_slippage" json:"enabled_slippage"`
	SlippageBps     int  `mapstructure:"slippage_bps" json:"slippage_bps"`

	SenderParallelism int           `mapstructure:"sender_parallelism" json:"sender_parallelism"`
	SenderTick        time.Duration `mapstructure:"sender_tick" json:"sender_tick"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window" json:"rate_limit_window"`

	MinWsolLiquidity uint64 `mapstructure:"min_wsol_liquidity" json:"min_wsol_liquidity"`

	Watcher WatcherConfig `mapstructure:"watcher" json:"watcher"`

	LookupTableTTL time.Duration `mapstructure:"lookup_table_ttl" json:"lookup_table_ttl"`

	RPCEndpoint   string `mapstructure:"rpc_endpoint" json:"rpc_endpoint"`
	WSEndpoint    string `mapstructure:"ws_endpoint" json:"ws_endpoint"`
	KeypairPath   string `mapstructure:"keypair_path" json:"keypair_path"`
	ProgramsFile  string `mapstructure:"programs_file" json:"programs_file"`
	DebugHTTPAddr string `mapstructure:"debug_http_addr" json:"debug_http_addr"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// Default returns a Config populated with the engine's built-in defaults.
// Everything else (file, then ARB_-prefixed env vars) is merged on top.
func Default() Config {
	var c Config
	c.MaxHops = 4
	c.RoutesBatchSize = 16
	c.OptimizationMethod = OptimizationBrent
	c.OptimizationAmountPercent = 100
	c.BondingCurveThresholdMargin = 1_000_000_000
	c.RejectTinyHighRoi = true
	c.SlippageBps = 50
	c.SenderParallelism = 8
	c.SenderTick = time.Millisecond
	c.RateLimitWindow = 60 * time.Second
	c.MinWsolLiquidity = 5_000_000_000
	c.Watcher = WatcherConfig{MaxPools: 20_000, MaxRoutes: 200_000}
	c.LookupTableTTL = 2 * time.Hour
	c.DebugHTTPAddr = "127.0.0.1:9090"
	c.Logging.Level = "info"
	return c
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads the default configuration, optionally merges an env-specific
// override file, applies ARB_-prefixed environment variables on top, and
// stores the result in AppConfig.
func Load(env string) (*Config, error) {
	_ = godotenv.Load() // best effort; a missing .env file is not an error

	cfg := Default()

	v := viper.New()
	v.SetConfigName("default")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		v.SetConfigName(env)
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	AppConfig = cfg
	return &cfg, nil
}

// LoadFromEnv loads configuration using the ARB_ENV environment variable to
// select an optional override file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ARB_ENV", ""))
}

// bindDefaults seeds viper with the zero-config defaults so a partial YAML
// file or a handful of env vars only need to override what they change.
func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("base_mint", cfg.BaseMint)
	v.SetDefault("minimum_profit", cfg.MinimumProfit)
	v.SetDefault("max_hops", cfg.MaxHops)
	v.SetDefault("routes_batch_size", cfg.RoutesBatchSize)
	v.SetDefault("optimization_method", string(cfg.OptimizationMethod))
	v.SetDefault("optimization_amount_percent", cfg.OptimizationAmountPercent)
	v.SetDefault("price_threshold", cfg.PriceThreshold)
	v.SetDefault("price_threshold_bps", cfg.PriceThresholdBps)
	v.SetDefault("bonding_curve_threshold_margin", cfg.BondingCurveThresholdMargin)
	v.SetDefault("reject_tiny_high_roi", cfg.RejectTinyHighRoi)
	v.SetDefault("enabled_slippage", cfg.EnabledSlippage)
	v.SetDefault("slippage_bps", cfg.SlippageBps)
	v.SetDefault("sender_parallelism", cfg.SenderParallelism)
	v.SetDefault("sender_tick", cfg.SenderTick)
	v.SetDefault("rate_limit_window", cfg.RateLimitWindow)
	v.SetDefault("min_wsol_liquidity", cfg.MinWsolLiquidity)
	v.SetDefault("watcher.only_succeed", cfg.Watcher.OnlySucceed)
	v.SetDefault("watcher.only_failed", cfg.Watcher.OnlyFailed)
	v.SetDefault("watcher.max_pools", cfg.Watcher.MaxPools)
	v.SetDefault("watcher.max_routes", cfg.Watcher.MaxRoutes)
	v.SetDefault("lookup_table_ttl", cfg.LookupTableTTL)
	v.SetDefault("debug_http_addr", cfg.DebugHTTPAddr)
	v.SetDefault("logging.level", cfg.Logging.Level)
}
