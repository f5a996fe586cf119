package executor

import (
	"encoding/binary"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// Receipt summarizes one completed exchange.
type Receipt struct {
	ID           uint64
	Caller       common.Address
	InputAmount  *big.Int
	OutputAmount *big.Int
	Hops         int
	ExecutedAt   time.Time
}

// swapHistory retains a bounded window of recent receipts for inspection.
type swapHistory struct {
	cache *lru.Cache
	seq   atomic.Uint64
}

func newSwapHistory(size int) (*swapHistory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &swapHistory{cache: cache}, nil
}

// nextID derives a receipt identifier from the caller and a monotonic
// sequence number.
func (h *swapHistory) nextID(caller common.Address) uint64 {
	seq := h.seq.Add(1)

	var buf [common.AddressLength + 8]byte
	copy(buf[:], caller.Bytes())
	binary.BigEndian.PutUint64(buf[common.AddressLength:], seq)
	return xxhash.Sum64(buf[:])
}

func (h *swapHistory) add(r Receipt) {
	h.cache.Add(r.ID, r)
}

// recent returns the retained receipts, oldest first.
func (h *swapHistory) recent() []Receipt {
	keys := h.cache.Keys()
	out := make([]Receipt, 0, len(keys))
	for _, k := range keys {
		if v, ok := h.cache.Peek(k); ok {
			out = append(out, v.(Receipt))
		}
	}
	return out
}
