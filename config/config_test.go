package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.WrappedAsset = "0x0000000000000000000000000000000000000001"
	cfg.OutputAsset = "0x0000000000000000000000000000000000000002"
	cfg.Pool = "0x0000000000000000000000000000000000000003"
	cfg.PriceFeed = "0x0000000000000000000000000000000000000004"
	cfg.Owner = "0x0000000000000000000000000000000000000005"
	cfg.Vault = "0x0000000000000000000000000000000000000006"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().ValidateConfig())
	})

	t.Run("missing address", func(t *testing.T) {
		cfg := validConfig()
		cfg.Pool = ""
		err := cfg.ValidateConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pool must be specified")
	})

	t.Run("malformed address", func(t *testing.T) {
		cfg := validConfig()
		cfg.Owner = "not-an-address"
		err := cfg.ValidateConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner is not a valid address")
	})

	t.Run("collects every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChainID = 0
		cfg.RPCEndpoint = ""
		cfg.PriceRateLimit.BurstSize = 0
		err := cfg.ValidateConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chain_id must be specified")
		assert.Contains(t, err.Error(), "rpc_endpoint must be specified")
		assert.Contains(t, err.Error(), "burst size must be positive")
	})
}

func TestBuild(t *testing.T) {
	cfg := validConfig()
	cfg.FinalAmountFromPool = true

	execCfg, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(cfg.Pool), execCfg.Pool)
	assert.Equal(t, common.HexToAddress(cfg.Owner), execCfg.Owner)
	assert.True(t, execCfg.FinalAmountFromPool)
	assert.Equal(t, cfg.HistorySize, execCfg.HistorySize)

	cfg.Vault = ""
	_, err = cfg.Build()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	jsonBody := `{
		"chain_id": 1,
		"rpc_endpoint": "http://localhost:8545",
		"wrapped_asset": "0x0000000000000000000000000000000000000001",
		"output_asset": "0x0000000000000000000000000000000000000002",
		"pool": "0x0000000000000000000000000000000000000003",
		"price_feed": "0x0000000000000000000000000000000000000004",
		"owner": "0x0000000000000000000000000000000000000005",
		"vault": "0x0000000000000000000000000000000000000006",
		"history_size": 64,
		"price_rate_limit": {"requests_per_second": 5, "burst_size": 10}
	}`
	yamlBody := `chain_id: 1
rpc_endpoint: http://localhost:8545
wrapped_asset: "0x0000000000000000000000000000000000000001"
output_asset: "0x0000000000000000000000000000000000000002"
pool: "0x0000000000000000000000000000000000000003"
price_feed: "0x0000000000000000000000000000000000000004"
owner: "0x0000000000000000000000000000000000000005"
vault: "0x0000000000000000000000000000000000000006"
history_size: 64
price_rate_limit:
  requests_per_second: 5
  burst_size: 10
`

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "swapguard.json")
		require.NoError(t, os.WriteFile(path, []byte(jsonBody), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), cfg.ChainID)
		assert.Equal(t, 64, cfg.HistorySize)
		assert.Equal(t, 10, cfg.PriceRateLimit.BurstSize)
		assert.NotNil(t, cfg.Logger)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "swapguard.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "0x0000000000000000000000000000000000000003", cfg.Pool)
		assert.Equal(t, float64(5), cfg.PriceRateLimit.RequestsPerSecond)
	})

	t.Run("invalid content fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "swapguard.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"chain_id": 1}`), 0o600))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}
