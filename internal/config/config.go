// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr    string   `mapstructure:"listen_addr"`
	WebhookURL    string   `mapstructure:"webhook_url"`
	RPCList       []string `mapstructure:"rpc_list"`
	HeliusAPIKey  string   `mapstructure:"helius_api_key"`
	TelegramToken string   `mapstructure:"telegram_token"`

	// Intervals and limits, all in seconds unless noted.
	PollInterval  int  `mapstructure:"poll_interval"`
	DedupWindow   int  `mapstructure:"dedup_window"`
	CallTimeout   int  `mapstructure:"call_timeout"`
	BatchWorkers  int  `mapstructure:"batch_workers"`
	Retries       int  `mapstructure:"retries"`
	WatchTTLHours int  `mapstructure:"watch_ttl_hours"` // 0 disables TTL eviction
	DebugLogging  bool `mapstructure:"debug_logging"`

	// Rug heuristic thresholds. Empirically tuned policy constants, not
	// derived values; on-chain behavior adapts, so they must stay tunable.
	MassiveDumpAmount      uint64 `mapstructure:"massive_dump_amount"`
	DeveloperDumpTotal     uint64 `mapstructure:"developer_dump_total"`
	LiquidityDrainLamports int64  `mapstructure:"liquidity_drain_lamports"`
	LiquidityBurnAmount    uint64 `mapstructure:"liquidity_burn_amount"`
	SlowDrainFloor         uint64 `mapstructure:"slow_drain_floor"`
}

const (
	DefaultPollInterval = 35
	DefaultDedupWindow  = 600
	DefaultCallTimeout  = 10
	DefaultBatchWorkers = 8
	DefaultRetries      = 3

	DefaultMassiveDumpAmount      = 40_000_000
	DefaultDeveloperDumpTotal     = 90_000_000
	DefaultLiquidityDrainLamports = 1_500_000_000 // 1.5 SOL
	DefaultLiquidityBurnAmount    = 500_000_000
	DefaultSlowDrainFloor         = 300
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":              ":3000",
		"poll_interval":            DefaultPollInterval,
		"dedup_window":             DefaultDedupWindow,
		"call_timeout":             DefaultCallTimeout,
		"batch_workers":            DefaultBatchWorkers,
		"retries":                  DefaultRetries,
		"massive_dump_amount":      DefaultMassiveDumpAmount,
		"developer_dump_total":     DefaultDeveloperDumpTotal,
		"liquidity_drain_lamports": DefaultLiquidityDrainLamports,
		"liquidity_burn_amount":    DefaultLiquidityBurnAmount,
		"slow_drain_floor":         DefaultSlowDrainFloor,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, "https"); err != nil {
			return errors.New("webhook URL must use HTTPS")
		}
	}
	if cfg.TelegramToken == "" {
		return errors.New("missing telegram_token in configuration")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PollInterval <= 0 {
		return errors.New("invalid poll_interval")
	}
	if cfg.DedupWindow <= 0 {
		return errors.New("invalid dedup_window")
	}
	if cfg.CallTimeout <= 0 {
		return errors.New("invalid call_timeout")
	}
	if cfg.BatchWorkers <= 0 {
		return errors.New("invalid batch_workers")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.WatchTTLHours < 0 {
		return errors.New("invalid watch_ttl_hours")
	}
	if cfg.MassiveDumpAmount == 0 || cfg.DeveloperDumpTotal == 0 ||
		cfg.LiquidityDrainLamports <= 0 || cfg.LiquidityBurnAmount == 0 {
		return errors.New("rug thresholds must be positive")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("RUGWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if key := v.GetString("HELIUS_API_KEY"); key != "" {
		cfg.HeliusAPIKey = key
	}
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if envRPCList := v.GetString("RPC_LIST"); envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
