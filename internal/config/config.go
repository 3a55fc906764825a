// Package config loads the sniper configuration from a YAML file.
// Environment variable references in the file (${VAR} syntax) are
// expanded before parsing, which keeps secrets like the wallet key
// out of the file itself.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	General   GeneralConfig   `yaml:"general"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Detection DetectionConfig `yaml:"detection"`
	Trade     TradeConfig     `yaml:"trade"`
	Filters   FiltersConfig   `yaml:"filters"`
	Exits     ExitsConfig     `yaml:"exits"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

type GeneralConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json|text
	DryRun    bool   `yaml:"dry_run"`
}

type EndpointsConfig struct {
	RPC []string `yaml:"rpc"`
	WS  []string `yaml:"ws"`
}

type WalletConfig struct {
	PrivateKey string `yaml:"private_key"` // base58 64-byte keypair, usually ${SNIPER_PRIVATE_KEY}
}

type DetectionConfig struct {
	DedupCapacity     int `yaml:"dedup_capacity"`
	ResolveAttempts   int `yaml:"resolve_attempts"`
	ResolveBackoffMs  int `yaml:"resolve_backoff_ms"`
	OffchainTimeoutMs int `yaml:"offchain_timeout_ms"`
}

type TradeConfig struct {
	BuyAmountSOL          float64 `yaml:"buy_amount_sol"`
	SlippageBps           int     `yaml:"slippage_bps"`
	MaxSOLPerToken        float64 `yaml:"max_sol_per_token"`
	MinTokensOut          float64 `yaml:"min_tokens_out"` // whole tokens
	MaxHoldings           int     `yaml:"max_holdings"`
	ConfirmTimeoutSeconds int     `yaml:"confirm_timeout_seconds"`
}

// FiltersConfig holds the optional buy filters. Absent fields leave the
// corresponding filter disabled.
type FiltersConfig struct {
	MinLiquiditySOL         *float64 `yaml:"min_liquidity_sol"`
	MaxLiquiditySOL         *float64 `yaml:"max_liquidity_sol"`
	MinMarketCapSOL         *float64 `yaml:"min_market_cap_sol"`
	MaxMarketCapSOL         *float64 `yaml:"max_market_cap_sol"`
	MinHolders              *int     `yaml:"min_holders"`
	MaxCreatorAllocationPct *float64 `yaml:"max_creator_allocation_pct"`
	MinInitialBuySOL        *float64 `yaml:"min_initial_buy_sol"`
	MaxDetectionAgeMs       int      `yaml:"max_detection_age_ms"`
	Bypass                  bool     `yaml:"bypass"`
	OnMissingData           string   `yaml:"on_missing_data"` // skip|reject
}

type ExitsConfig struct {
	TakeProfitPct        float64 `yaml:"take_profit_pct"`
	StopLossPct          float64 `yaml:"stop_loss_pct"`
	MaxHoldSeconds       int     `yaml:"max_hold_seconds"`
	CheckIntervalSeconds int     `yaml:"check_interval_seconds"`
	PriceTTLMs           int     `yaml:"price_ttl_ms"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory|db
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

type ServerConfig struct {
	FeedAddr         string `yaml:"feed_addr"`
	MetricsAddr      string `yaml:"metrics_addr"`
	RecentDetections int    `yaml:"recent_detections"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Detection.DedupCapacity == 0 {
		cfg.Detection.DedupCapacity = 10000
	}
	if cfg.Detection.ResolveAttempts == 0 {
		cfg.Detection.ResolveAttempts = 5
	}
	if cfg.Detection.ResolveBackoffMs == 0 {
		cfg.Detection.ResolveBackoffMs = 500
	}
	if cfg.Detection.OffchainTimeoutMs == 0 {
		cfg.Detection.OffchainTimeoutMs = 3000
	}
	if cfg.Trade.BuyAmountSOL == 0 {
		cfg.Trade.BuyAmountSOL = 0.1
	}
	if cfg.Trade.SlippageBps == 0 {
		cfg.Trade.SlippageBps = 500
	}
	if cfg.Trade.MaxSOLPerToken == 0 {
		cfg.Trade.MaxSOLPerToken = 0.0001
	}
	if cfg.Trade.MinTokensOut == 0 {
		cfg.Trade.MinTokensOut = 1_000_000
	}
	if cfg.Trade.MaxHoldings == 0 {
		cfg.Trade.MaxHoldings = 5
	}
	if cfg.Trade.ConfirmTimeoutSeconds == 0 {
		cfg.Trade.ConfirmTimeoutSeconds = 30
	}
	if cfg.Filters.OnMissingData == "" {
		cfg.Filters.OnMissingData = "skip"
	}
	if cfg.Exits.TakeProfitPct == 0 {
		cfg.Exits.TakeProfitPct = 30.0
	}
	if cfg.Exits.StopLossPct == 0 {
		cfg.Exits.StopLossPct = -20.0
	}
	if cfg.Exits.MaxHoldSeconds == 0 {
		cfg.Exits.MaxHoldSeconds = 3600
	}
	if cfg.Exits.CheckIntervalSeconds == 0 {
		cfg.Exits.CheckIntervalSeconds = 5
	}
	if cfg.Exits.PriceTTLMs == 0 {
		cfg.Exits.PriceTTLMs = 2000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Server.FeedAddr == "" {
		cfg.Server.FeedAddr = ":8080"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Server.RecentDetections == 0 {
		cfg.Server.RecentDetections = 100
	}
}

// Validate checks cross-field constraints that defaults cannot repair.
func (c *Config) Validate() error {
	if len(c.Endpoints.RPC) == 0 {
		return fmt.Errorf("config: at least one RPC endpoint is required")
	}
	if len(c.Endpoints.WS) == 0 {
		return fmt.Errorf("config: at least one WS endpoint is required")
	}
	if !c.General.DryRun && c.Wallet.PrivateKey == "" {
		return fmt.Errorf("config: wallet.private_key is required unless general.dry_run is set")
	}
	switch c.General.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.General.LogFormat)
	}
	switch c.Filters.OnMissingData {
	case "skip", "reject":
	default:
		return fmt.Errorf("config: unknown filters.on_missing_data %q", c.Filters.OnMissingData)
	}
	switch c.Storage.Backend {
	case "memory":
	case "db":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: storage.postgres_dsn is required for db backend")
		}
		if c.Storage.ClickhouseDSN == "" {
			return fmt.Errorf("config: storage.clickhouse_dsn is required for db backend")
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}
