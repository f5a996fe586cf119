package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/swapguard/config"
	"github.com/michaelpento.lv/swapguard/oracle"
	"github.com/michaelpento.lv/swapguard/utils"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Read the current reference price",
	Long:  `Query the configured price feed and print the latest answer.`,
	RunE:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

// runPrice only needs the feed, so it skips the signing key entirely.
func runPrice(cmd *cobra.Command, args []string) error {
	_ = config.LoadEnv()
	log := utils.GetLogger()

	cfg, err := config.LoadConfig(config.GetEnvWithDefault(config.EnvConfigFile, cfgFile))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := ethclient.Dial(cfg.RPCEndpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.RPCEndpoint, err)
	}
	defer client.Close()

	limiter := rate.NewLimiter(
		rate.Limit(cfg.PriceRateLimit.RequestsPerSecond),
		cfg.PriceRateLimit.BurstSize,
	)
	feed, err := oracle.NewFeed(client, common.HexToAddress(cfg.PriceFeed), limiter, log)
	if err != nil {
		return fmt.Errorf("failed to create price feed: %w", err)
	}

	price, updatedAt, err := feed.LatestPrice(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read price: %w", err)
	}
	fmt.Printf("price %s (updated %s)\n", price, updatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	return nil
}
