package cmd

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/swapguard/config"
	"github.com/michaelpento.lv/swapguard/executor"
	"github.com/michaelpento.lv/swapguard/oracle"
	"github.com/michaelpento.lv/swapguard/pool"
	"github.com/michaelpento.lv/swapguard/token"
	"github.com/michaelpento.lv/swapguard/utils"
)

// runtime bundles everything a command needs to drive the executor.
type runtime struct {
	cfg    *config.Config
	client *ethclient.Client
	sender *utils.TxSender
	exec   *executor.Executor
	log    *zap.Logger
}

func (r *runtime) close() {
	if r.client != nil {
		r.client.Close()
	}
}

// caller is the account submitting the exchange.
func (r *runtime) caller() common.Address {
	return r.sender.From()
}

// newRuntime wires the executor and its collaborators from the config file
// and environment. The signing key comes from the environment only, never
// from the config file.
func newRuntime() (*runtime, error) {
	_ = config.LoadEnv()
	log := utils.GetLogger()

	cfg, err := config.LoadConfig(config.GetEnvWithDefault(config.EnvConfigFile, cfgFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCEndpoint, err)
	}

	key, err := config.GetRequiredEnv(config.EnvPrivateKey)
	if err != nil {
		client.Close()
		return nil, err
	}
	sender, err := utils.NewTxSender(client, key, new(big.Int).SetUint64(cfg.ChainID), log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create tx sender: %w", err)
	}

	limiter := rate.NewLimiter(
		rate.Limit(cfg.PriceRateLimit.RequestsPerSecond),
		cfg.PriceRateLimit.BurstSize,
	)
	feed, err := oracle.NewFeed(client, common.HexToAddress(cfg.PriceFeed), limiter, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create price feed: %w", err)
	}
	amm, err := pool.NewAMM(sender, common.HexToAddress(cfg.Pool), log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create pool adapter: %w", err)
	}
	wrapped, err := token.NewWrapped(sender, common.HexToAddress(cfg.WrappedAsset), log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create wrapped asset adapter: %w", err)
	}
	gateway, err := token.NewGateway(sender, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create token gateway: %w", err)
	}

	execCfg, err := cfg.Build()
	if err != nil {
		client.Close()
		return nil, err
	}
	exec, err := executor.New(execCfg, executor.Dependencies{
		Price:   feed,
		Pool:    amm,
		Wrapped: wrapped,
		Tokens:  gateway,
	}, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	if cfg.PrometheusEnabled {
		serveMetrics(cfg.PrometheusEndpoint, exec, log)
	}

	return &runtime{cfg: cfg, client: client, sender: sender, exec: exec, log: log}, nil
}

// serveMetrics exposes the executor metrics over HTTP for scraping.
func serveMetrics(endpoint string, exec *executor.Executor, log *zap.Logger) {
	if endpoint == "" {
		endpoint = ":9090"
	}
	if err := exec.Metrics().Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("failed to register metrics", zap.Error(err))
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(endpoint, mux); err != nil {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// parseBig parses a base-10 integer amount from a flag value.
func parseBig(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s value: %q", name, s)
	}
	return v, nil
}

// optionalBig parses a flag that may be left empty.
func optionalBig(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return parseBig(name, s)
}
