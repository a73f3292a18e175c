package core

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

func TestStopResume(t *testing.T) {
	s, _ := newTestSale(t)

	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}
	if !s.Stopped() {
		t.Fatal("contract should be stopped")
	}

	if err := s.ResumeContract(owner); err != nil {
		t.Fatalf("ResumeContract failed: %v", err)
	}
	if s.Stopped() {
		t.Fatal("contract should be running again")
	}
}

func TestStopContract_NotOwner(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.StopContract(buyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStopContract_AlreadyStopped(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}
	if err := s.StopContract(owner); !errors.Is(err, ErrAlreadyStopped) {
		t.Fatalf("expected ErrAlreadyStopped, got %v", err)
	}
}

func TestResumeContract_NotStopped(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.ResumeContract(owner); !errors.Is(err, ErrContractNotStopped) {
		t.Fatalf("expected ErrContractNotStopped, got %v", err)
	}
}

// While stopped, commit and reveal must always fail with ContractStopped,
// and only then does emergencyWithdraw become available.
func TestStop_PathExclusivity(t *testing.T) {
	s, clock := newActiveSale(t)

	// Commit before the stop so a reveal would otherwise be possible.
	if err := s.Commit(buyer, uint256.NewInt(250), packCommit(7, 250)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	clock.Advance(testRevealPeriod)

	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}

	if err := s.Commit(buyer, uint256.NewInt(1), packCommit(1, 1)); !errors.Is(err, ErrContractStopped) {
		t.Fatalf("commit while stopped: expected ErrContractStopped, got %v", err)
	}
	if err := s.Reveal(buyer, uint256.NewInt(7), uint256.NewInt(250)); !errors.Is(err, ErrContractStopped) {
		t.Fatalf("reveal while stopped: expected ErrContractStopped, got %v", err)
	}
}

func TestEmergencyWithdraw_WhileNotStopped(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.EmergencyWithdraw(owner); !errors.Is(err, ErrContractNotStopped) {
		t.Fatalf("expected ErrContractNotStopped, got %v", err)
	}
}

func TestEmergencyWithdraw(t *testing.T) {
	s, _ := newTestSale(t)

	// Give the buyer a balance, then stop.
	if err := s.Transfer(owner, buyer, uint256.NewInt(200)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}

	if err := s.EmergencyWithdraw(buyer); err != nil {
		t.Fatalf("EmergencyWithdraw failed: %v", err)
	}
	if !s.BalanceOf(buyer).IsZero() {
		t.Fatal("withdrawn balance should be zero")
	}
	checkConservation(t, s)

	ev := lastEvent(t, s)
	if ev.Kind != types.EventEmergencyWithdrawal {
		t.Fatalf("expected emergency-withdrawal event, got %s", ev.Kind)
	}
	if ev.Address != buyer || ev.Amount.Uint64() != 200 {
		t.Fatalf("unexpected event payload: %s %s", ev.Address, ev.Amount)
	}
}

func TestEmergencyWithdraw_OneShot(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.Transfer(owner, buyer, uint256.NewInt(200)); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}

	if err := s.EmergencyWithdraw(buyer); err != nil {
		t.Fatalf("first EmergencyWithdraw failed: %v", err)
	}
	if err := s.EmergencyWithdraw(buyer); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("second EmergencyWithdraw: expected ErrInsufficientBalance, got %v", err)
	}
}

func TestEmergencyWithdraw_ZeroBalance(t *testing.T) {
	s, _ := newTestSale(t)
	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}
	if err := s.EmergencyWithdraw(buyer); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestResume_ReopensPurchasePath(t *testing.T) {
	s, _ := newActiveSale(t)
	if err := s.StopContract(owner); err != nil {
		t.Fatalf("StopContract failed: %v", err)
	}
	if err := s.ResumeContract(owner); err != nil {
		t.Fatalf("ResumeContract failed: %v", err)
	}
	if err := s.Commit(buyer, uint256.NewInt(100), packCommit(1, 100)); err != nil {
		t.Fatalf("commit after resume failed: %v", err)
	}
}
