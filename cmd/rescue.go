package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rescueCmd = &cobra.Command{
	Use:   "rescue <asset>",
	Short: "Sweep a stranded asset balance to the owner",
	Long: `Transfer the vault's entire balance of the given asset to the
configured owner. Only the owner account may run this, and it refuses to
run while an exchange is in flight.`,
	Args: cobra.ExactArgs(1),
	RunE: runRescue,
}

func init() {
	rootCmd.AddCommand(rescueCmd)
}

func runRescue(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid asset address: %q", args[0])
	}
	asset := common.HexToAddress(args[0])

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	amount, err := rt.exec.RescueFunds(cmd.Context(), rt.caller(), asset)
	if err != nil {
		return fmt.Errorf("rescue failed: %w", err)
	}

	rt.log.Info("rescue complete",
		zap.Stringer("asset", asset),
		zap.String("amount", amount.String()),
	)
	fmt.Printf("rescued %s of %s\n", amount, asset.Hex())
	return nil
}
