package pool

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAMM(t *testing.T, addr common.Address) *AMM {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(poolABI))
	require.NoError(t, err)
	return &AMM{addr: addr, abi: parsed, logger: zap.NewNop()}
}

func swapLog(t *testing.T, p *AMM, addr common.Address, delta0, delta1 *big.Int) *types.Log {
	t.Helper()
	event := p.abi.Events["Swap"]

	data, err := event.Inputs.NonIndexed().Pack(
		delta0, delta1, big.NewInt(1), big.NewInt(1), big.NewInt(0),
	)
	require.NoError(t, err)

	return &types.Log{
		Address: addr,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(common.HexToAddress("0x01").Bytes()),
			common.BytesToHash(common.HexToAddress("0x02").Bytes()),
		},
		Data: data,
	}
}

func TestDecodeSwapDeltas(t *testing.T) {
	addr := common.HexToAddress("0x0000000000000000000000000000000000000003")
	p := testAMM(t, addr)

	t.Run("recovers both deltas", func(t *testing.T) {
		receipt := &types.Receipt{Logs: []*types.Log{
			swapLog(t, p, addr, big.NewInt(100), big.NewInt(-95)),
		}}
		delta0, delta1, err := p.decodeSwapDeltas(receipt)
		require.NoError(t, err)
		assert.Equal(t, "100", delta0.String())
		assert.Equal(t, "-95", delta1.String())
	})

	t.Run("skips logs from other contracts", func(t *testing.T) {
		other := common.HexToAddress("0x00000000000000000000000000000000000000FF")
		receipt := &types.Receipt{Logs: []*types.Log{
			swapLog(t, p, other, big.NewInt(1), big.NewInt(-1)),
			swapLog(t, p, addr, big.NewInt(100), big.NewInt(-95)),
		}}
		_, delta1, err := p.decodeSwapDeltas(receipt)
		require.NoError(t, err)
		assert.Equal(t, "-95", delta1.String())
	})

	t.Run("missing event", func(t *testing.T) {
		receipt := &types.Receipt{}
		_, _, err := p.decodeSwapDeltas(receipt)
		assert.Error(t, err)
	})
}

func TestPriceBounds(t *testing.T) {
	// One past the pool's hard bounds in each direction.
	assert.Equal(t, "4295128740", minSqrtRatio.String())
	assert.Equal(t, "1461446703485210103287273052203988822378723970341", maxSqrtRatio.String())
	assert.Equal(t, 1, maxSqrtRatio.Cmp(minSqrtRatio))
}
