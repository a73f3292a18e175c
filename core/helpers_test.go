package core

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/log"
	"github.com/salenode/salenode/metrics"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

var (
	owner = testAddr(1)
	buyer = testAddr(2)
	third = testAddr(3)
)

const (
	testSupply       = 1000
	testRevealPeriod = 60
	testEpoch        = 1_000_000
)

// newTestSale creates a contract with a manual clock, a quiet logger, and
// a private metrics registry.
func newTestSale(t *testing.T) (*TokenSale, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testEpoch)
	s, err := NewTokenSale(Config{
		Owner:        owner,
		TotalSupply:  uint256.NewInt(testSupply),
		RevealPeriod: testRevealPeriod,
		Clock:        clock,
		Logger:       log.NewWithHandler(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewTokenSale failed: %v", err)
	}
	return s, clock
}

// newActiveSale creates a sale that is initialized at price 100 and
// started.
func newActiveSale(t *testing.T) (*TokenSale, *ManualClock) {
	t.Helper()
	s, clock := newTestSale(t)
	if err := s.InitializeSale(owner, uint256.NewInt(100)); err != nil {
		t.Fatalf("InitializeSale failed: %v", err)
	}
	if err := s.StartSale(owner); err != nil {
		t.Fatalf("StartSale failed: %v", err)
	}
	return s, clock
}

// packCommit builds the commit value that encodes (salt, value):
// salt<<256 | value.
func packCommit(salt, value uint64) *big.Int {
	c := new(big.Int).Lsh(new(big.Int).SetUint64(salt), 256)
	return c.Or(c, new(big.Int).SetUint64(value))
}

// checkConservation verifies the sum of all balances equals total supply.
func checkConservation(t *testing.T, s *TokenSale) {
	t.Helper()
	sum := new(uint256.Int)
	s.ledger.ForEachBalance(func(_ types.Address, bal *uint256.Int) {
		sum.Add(sum, bal)
	})
	if !sum.Eq(s.TotalSupply()) {
		t.Fatalf("conservation violated: sum %s, supply %s", sum, s.TotalSupply())
	}
}

// lastEvent returns the most recent event, failing when none exist.
func lastEvent(t *testing.T, s *TokenSale) types.Event {
	t.Helper()
	evs := s.Feed().Events(0)
	if len(evs) == 0 {
		t.Fatal("expected at least one event")
	}
	return evs[len(evs)-1]
}
