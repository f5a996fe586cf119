package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	swapValue      string
	swapSlippage   uint8
	swapPriceLimit string
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Execute a single-hop exchange",
	Long: `Wrap the given native value, swap it through the pool, and forward the
output asset to the caller. The exchange fails if the output falls below
the oracle price minus the slippage bound; on failure every completed step
is rolled back.`,
	RunE: runSwap,
}

func init() {
	swapCmd.Flags().StringVar(&swapValue, "value", "", "native value to exchange, in wei")
	swapCmd.Flags().Uint8Var(&swapSlippage, "slippage", 1, "maximum slippage in percent (0-99)")
	swapCmd.Flags().StringVar(&swapPriceLimit, "price-limit", "", "optional pool price limit (sqrtPriceX96)")
	_ = swapCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(swapCmd)
}

func runSwap(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	value, err := parseBig("value", swapValue)
	if err != nil {
		return err
	}
	limit, err := optionalBig("price-limit", swapPriceLimit)
	if err != nil {
		return err
	}

	receipt, err := rt.exec.SingleHopExchange(cmd.Context(), rt.caller(), value, swapSlippage, limit)
	if err != nil {
		return fmt.Errorf("exchange failed: %w", err)
	}

	rt.log.Info("exchange complete",
		zap.Uint64("receipt_id", receipt.ID),
		zap.String("input", receipt.InputAmount.String()),
		zap.String("output", receipt.OutputAmount.String()),
	)
	fmt.Printf("receipt %d: %s in, %s out\n", receipt.ID, receipt.InputAmount, receipt.OutputAmount)
	return nil
}
