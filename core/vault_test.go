package core

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/log"
	"github.com/salenode/salenode/metrics"
)

// recordingSink captures outbound payments.
type recordingSink struct {
	to     types.Address
	amount *uint256.Int
	calls  int
}

func (r *recordingSink) Pay(to types.Address, amount *uint256.Int) error {
	r.to = to
	r.amount = new(uint256.Int).Set(amount)
	r.calls++
	return nil
}

// failingSink rejects every payment.
type failingSink struct{}

func (failingSink) Pay(types.Address, *uint256.Int) error {
	return errors.New("settlement rejected")
}

// reentrantSink calls back into the contract mid-payment and records
// what the nested call returned.
type reentrantSink struct {
	sale   *TokenSale
	nested error
}

func (r *reentrantSink) Pay(types.Address, *uint256.Int) error {
	r.nested = r.sale.WithdrawEther(owner, uint256.NewInt(1))
	return nil
}

// newSaleWithSink mirrors newActiveSale with a caller-supplied payment
// sink and the vault funded by a 500-unit commit.
func newSaleWithSink(t *testing.T, sink PaymentSink) *TokenSale {
	t.Helper()
	s, err := NewTokenSale(Config{
		Owner:        owner,
		TotalSupply:  uint256.NewInt(testSupply),
		RevealPeriod: testRevealPeriod,
		Clock:        NewManualClock(testEpoch),
		Payout:       sink,
		Logger:       log.NewWithHandler(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewTokenSale failed: %v", err)
	}
	if err := s.InitializeSale(owner, uint256.NewInt(100)); err != nil {
		t.Fatalf("InitializeSale failed: %v", err)
	}
	if err := s.StartSale(owner); err != nil {
		t.Fatalf("StartSale failed: %v", err)
	}
	if err := s.Commit(buyer, uint256.NewInt(500), packCommit(1, 500)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return s
}

func TestCommit_AccruesVault(t *testing.T) {
	s, _ := newActiveSale(t)
	if err := s.Commit(buyer, uint256.NewInt(200), packCommit(1, 200)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := s.Commit(third, uint256.NewInt(300), packCommit(2, 300)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if got := s.Vault().Uint64(); got != 500 {
		t.Fatalf("expected vault 500, got %d", got)
	}
}

func TestWithdrawEther(t *testing.T) {
	sink := &recordingSink{}
	s := newSaleWithSink(t, sink)

	if err := s.WithdrawEther(owner, uint256.NewInt(300)); err != nil {
		t.Fatalf("WithdrawEther failed: %v", err)
	}
	if got := s.Vault().Uint64(); got != 200 {
		t.Fatalf("expected vault 200 after withdrawal, got %d", got)
	}
	if sink.calls != 1 || sink.to != owner || sink.amount.Uint64() != 300 {
		t.Fatalf("unexpected sink call: calls=%d to=%s amount=%v", sink.calls, sink.to.Hex(), sink.amount)
	}

	ev := lastEvent(t, s)
	if ev.Kind != types.EventVaultWithdrawal || ev.Amount.Uint64() != 300 {
		t.Fatalf("unexpected withdrawal event: %+v", ev)
	}
}

func TestWithdrawEther_NotOwner(t *testing.T) {
	s := newSaleWithSink(t, DiscardSink{})
	err := s.WithdrawEther(buyer, uint256.NewInt(1))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWithdrawEther_ZeroAmount(t *testing.T) {
	s := newSaleWithSink(t, DiscardSink{})
	err := s.WithdrawEther(owner, uint256.NewInt(0))
	if !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected ErrZeroAmount, got %v", err)
	}
}

func TestWithdrawEther_ExceedsVault(t *testing.T) {
	s := newSaleWithSink(t, DiscardSink{})
	err := s.WithdrawEther(owner, uint256.NewInt(501))
	if !errors.Is(err, ErrInsufficientVault) {
		t.Fatalf("expected ErrInsufficientVault, got %v", err)
	}
	if got := s.Vault().Uint64(); got != 500 {
		t.Fatalf("vault should be untouched, got %d", got)
	}
}

// A sink failure restores the vault and surfaces ErrPaymentFailed.
func TestWithdrawEther_PaymentFailure(t *testing.T) {
	s := newSaleWithSink(t, failingSink{})

	err := s.WithdrawEther(owner, uint256.NewInt(300))
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got %v", err)
	}
	if got := s.Vault().Uint64(); got != 500 {
		t.Fatalf("vault should be restored after failure, got %d", got)
	}
}

// A sink that re-enters the contract mid-payment is rejected by the
// reentrancy latch; the outer withdrawal still completes.
func TestWithdrawEther_ReentrantSinkRejected(t *testing.T) {
	sink := &reentrantSink{}
	s := newSaleWithSink(t, sink)
	sink.sale = s

	if err := s.WithdrawEther(owner, uint256.NewInt(300)); err != nil {
		t.Fatalf("outer WithdrawEther failed: %v", err)
	}
	if !errors.Is(sink.nested, ErrReentrantCall) {
		t.Fatalf("nested call: expected ErrReentrantCall, got %v", sink.nested)
	}
	if got := s.Vault().Uint64(); got != 200 {
		t.Fatalf("expected vault 200 after one withdrawal, got %d", got)
	}
}
