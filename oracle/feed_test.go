package oracle

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

type mockCaller struct {
	response []byte
	err      error
	calls    int
	lastMsg  ethereum.CallMsg
}

func (m *mockCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.calls++
	m.lastMsg = msg
	return m.response, m.err
}

// encodeRoundData produces a wire-format latestRoundData response.
func encodeRoundData(t *testing.T, answer, updatedAt *big.Int) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(aggregatorABI))
	require.NoError(t, err)

	out, err := parsed.Methods["latestRoundData"].Outputs.Pack(
		big.NewInt(7), answer, big.NewInt(0), updatedAt, big.NewInt(7),
	)
	require.NoError(t, err)
	return out
}

func TestLatestPrice(t *testing.T) {
	addr := common.HexToAddress("0x0000000000000000000000000000000000000004")
	updated := big.NewInt(1700000000)

	t.Run("decodes answer and timestamp", func(t *testing.T) {
		caller := &mockCaller{response: encodeRoundData(t, big.NewInt(1000), updated)}
		feed, err := NewFeed(caller, addr, nil, zaptest.NewLogger(t))
		require.NoError(t, err)

		price, quotedAt, err := feed.LatestPrice(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "1000", price.String())
		assert.Equal(t, time.Unix(updated.Int64(), 0).UTC(), quotedAt)
		assert.Equal(t, &addr, caller.lastMsg.To)
	})

	t.Run("negative answer passes through unchanged", func(t *testing.T) {
		caller := &mockCaller{response: encodeRoundData(t, big.NewInt(-42), updated)}
		feed, err := NewFeed(caller, addr, nil, zaptest.NewLogger(t))
		require.NoError(t, err)

		price, _, err := feed.LatestPrice(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "-42", price.String())
	})

	t.Run("rpc error", func(t *testing.T) {
		caller := &mockCaller{err: errors.New("connection reset")}
		feed, err := NewFeed(caller, addr, nil, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, _, err = feed.LatestPrice(context.Background())
		assert.Error(t, err)
	})

	t.Run("garbage response", func(t *testing.T) {
		caller := &mockCaller{response: []byte{0x01, 0x02}}
		feed, err := NewFeed(caller, addr, nil, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, _, err = feed.LatestPrice(context.Background())
		assert.Error(t, err)
	})

	t.Run("rate limit honors context cancellation", func(t *testing.T) {
		caller := &mockCaller{response: encodeRoundData(t, big.NewInt(1000), updated)}
		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		limiter.Allow() // drain the burst
		feed, err := NewFeed(caller, addr, limiter, zaptest.NewLogger(t))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, _, err = feed.LatestPrice(ctx)
		assert.Error(t, err)
		assert.Equal(t, 0, caller.calls)
	})
}

func TestNewFeedRejectsNilCaller(t *testing.T) {
	_, err := NewFeed(nil, common.Address{}, nil, nil)
	assert.Error(t, err)
}
