// config.go - Configuration management for the pool daemon
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/zerocash"
)

// Config represents the daemon configuration
type Config struct {
	Pool    PoolConfig    `yaml:"pool"`
	Storage StorageConfig `yaml:"storage"`
	RPC     RPCConfig     `yaml:"rpc"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type PoolConfig struct {
	// Tree shape, only used when the data dir holds no tree yet
	Depth            int    `yaml:"depth"`
	RootHistorySize  int    `yaml:"root_history_size"`
	MaxDepositAmount uint64 `yaml:"max_deposit_amount"`

	// Authority is a base58 key. Empty means the devnet authority.
	Authority string `yaml:"authority"`
	Bump      uint8  `yaml:"bump"`

	DepositFeeRate    uint16 `yaml:"deposit_fee_rate"`
	WithdrawalFeeRate uint16 `yaml:"withdrawal_fee_rate"`
	FeeErrorMargin    uint16 `yaml:"fee_error_margin"`
	MaxSwapFee        uint64 `yaml:"max_swap_fee"`

	// VerifyingKeyPath points at a gnark verifying key. Empty means the
	// embedded key.
	VerifyingKeyPath string `yaml:"verifying_key_path"`

	MarketFeeBps uint16 `yaml:"market_fee_bps"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	// GenesisLedger is a JSON ledger imported by init into a fresh store.
	// Optional.
	GenesisLedger string `yaml:"genesis_ledger"`
}

type RPCConfig struct {
	Listen string `yaml:"listen"`
	// Per client IP. Zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	AuditLogPath string `yaml:"audit_log_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	policy := zerocash.DefaultFeePolicy()
	return &Config{
		Pool: PoolConfig{
			Depth:             merkle.DefaultDepth,
			RootHistorySize:   merkle.DefaultRootHistorySize,
			MaxDepositAmount:  1_000_000_000_000,
			Bump:              255,
			DepositFeeRate:    policy.DepositFeeRate,
			WithdrawalFeeRate: policy.WithdrawalFeeRate,
			FeeErrorMargin:    policy.FeeErrorMargin,
			MarketFeeBps:      30,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		RPC: RPCConfig{
			Listen:        "127.0.0.1:8545",
			RatePerSecond: 5,
			Burst:         10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:        "info",
			AuditLogPath: "audit.log",
		},
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		config := DefaultConfig()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pool.Depth <= 0 || c.Pool.Depth > merkle.MaxDepth {
		return fmt.Errorf("pool.depth must be in [1, %d]", merkle.MaxDepth)
	}
	if c.Pool.RootHistorySize <= 0 {
		return fmt.Errorf("pool.root_history_size must be positive")
	}
	if err := c.FeePolicy().Validate(); err != nil {
		return err
	}
	if c.Pool.MarketFeeBps > zerocash.BasisPoints {
		return fmt.Errorf("pool.market_fee_bps must not exceed %d", zerocash.BasisPoints)
	}
	if c.Pool.Authority != "" {
		if _, err := zerocash.ParsePubkey(c.Pool.Authority); err != nil {
			return fmt.Errorf("pool.authority: %w", err)
		}
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must be set")
	}
	if c.RPC.Listen == "" {
		return fmt.Errorf("rpc.listen must be set")
	}
	if c.RPC.RatePerSecond < 0 {
		return fmt.Errorf("rpc.rate_per_second must not be negative")
	}
	if c.RPC.RatePerSecond > 0 && c.RPC.Burst <= 0 {
		return fmt.Errorf("rpc.burst must be positive when rate limiting is on")
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics.path must be set when metrics are enabled")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) FeePolicy() zerocash.FeePolicy {
	return zerocash.FeePolicy{
		DepositFeeRate:    c.Pool.DepositFeeRate,
		WithdrawalFeeRate: c.Pool.WithdrawalFeeRate,
		FeeErrorMargin:    c.Pool.FeeErrorMargin,
	}
}

// devnetAuthority is used when no authority is configured.
var devnetAuthority = zerocash.DeriveAddress([]byte("devnet_authority"))

func (c *Config) Authority() zerocash.Pubkey {
	if c.Pool.Authority == "" {
		return devnetAuthority
	}
	return zerocash.MustParsePubkey(c.Pool.Authority)
}

func (c *Config) TreeConfig() merkle.Config {
	return merkle.Config{
		Depth:            c.Pool.Depth,
		RootHistorySize:  c.Pool.RootHistorySize,
		MaxDepositAmount: c.Pool.MaxDepositAmount,
		Authority:        c.Authority(),
		Bump:             c.Pool.Bump,
	}
}
