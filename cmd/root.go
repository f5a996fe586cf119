package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/swapguard/utils"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "swapguard",
	Short: "A guarded exchange executor for AMM pools",
	Long: `A CLI for executing single-hop and multi-hop asset exchanges against
an AMM pool, guarded by an external price reference and a slippage bound.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.swapguard.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
