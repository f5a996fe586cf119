package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/michaelpento.lv/swapguard/executor"
)

// Config is the executor service configuration. Addresses are kept in hex
// string form so both JSON and YAML files stay human-editable; Build
// converts them into the executor's typed configuration.
type Config struct {
	// Chain and network settings
	ChainID     uint64 `json:"chain_id" yaml:"chain_id"`
	RPCEndpoint string `json:"rpc_endpoint" yaml:"rpc_endpoint"`

	// Exchange identities
	WrappedAsset string `json:"wrapped_asset" yaml:"wrapped_asset"`
	OutputAsset  string `json:"output_asset" yaml:"output_asset"`
	Pool         string `json:"pool" yaml:"pool"`
	PriceFeed    string `json:"price_feed" yaml:"price_feed"`
	Owner        string `json:"owner" yaml:"owner"`
	Vault        string `json:"vault" yaml:"vault"`

	// Exchange behavior
	ZeroForOne          bool `json:"zero_for_one" yaml:"zero_for_one"`
	FinalAmountFromPool bool `json:"final_amount_from_pool" yaml:"final_amount_from_pool"`
	HistorySize         int  `json:"history_size" yaml:"history_size"`

	// Price feed rate limit
	PriceRateLimit RateLimitConfig `json:"price_rate_limit" yaml:"price_rate_limit"`

	// Feature flags
	PrometheusEnabled  bool   `json:"prometheus_enabled" yaml:"prometheus_enabled"`
	PrometheusEndpoint string `json:"prometheus_endpoint" yaml:"prometheus_endpoint"`

	// Internal components
	Logger *zap.Logger `json:"-" yaml:"-"`
}

// RateLimitConfig bounds outbound RPC traffic to a collaborator.
type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	WaitTimeout       time.Duration `json:"wait_timeout" yaml:"wait_timeout"`
}

// Validate checks the rate limit parameters.
func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	return nil
}

// ValidateConfig checks the whole configuration and reports every problem.
func (c *Config) ValidateConfig() error {
	var problems []string

	if c.ChainID == 0 {
		problems = append(problems, "chain_id must be specified")
	}
	if c.RPCEndpoint == "" {
		problems = append(problems, "rpc_endpoint must be specified")
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"wrapped_asset", c.WrappedAsset},
		{"output_asset", c.OutputAsset},
		{"pool", c.Pool},
		{"price_feed", c.PriceFeed},
		{"owner", c.Owner},
		{"vault", c.Vault},
	} {
		if f.value == "" {
			problems = append(problems, fmt.Sprintf("%s must be specified", f.name))
			continue
		}
		if !common.IsHexAddress(f.value) {
			problems = append(problems, fmt.Sprintf("%s is not a valid address: %s", f.name, f.value))
		}
	}

	if err := c.PriceRateLimit.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("price rate limit error: %v", err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Build converts the loaded configuration into the executor's typed form.
func (c *Config) Build() (executor.Config, error) {
	if err := c.ValidateConfig(); err != nil {
		return executor.Config{}, err
	}
	return executor.Config{
		WrappedAsset:        common.HexToAddress(c.WrappedAsset),
		OutputAsset:         common.HexToAddress(c.OutputAsset),
		Pool:                common.HexToAddress(c.Pool),
		PriceFeed:           common.HexToAddress(c.PriceFeed),
		Owner:               common.HexToAddress(c.Owner),
		Vault:               common.HexToAddress(c.Vault),
		ZeroForOne:          c.ZeroForOne,
		FinalAmountFromPool: c.FinalAmountFromPool,
		HistorySize:         c.HistorySize,
	}, nil
}

// LoadConfig reads the configuration file, decoding JSON or YAML by file
// extension.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".swapguard.json")
	}

	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(cfgFile)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	config.Logger = logger

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a configuration with sane defaults for tests and
// local runs. Addresses still have to be filled in.
func DefaultConfig() *Config {
	return &Config{
		Logger:      zap.NewNop(),
		ChainID:     1,
		RPCEndpoint: "http://localhost:8545",
		HistorySize: 256,
		PriceRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
			WaitTimeout:       time.Second,
		},
	}
}
