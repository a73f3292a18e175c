package state

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

// checkConservation verifies the sum of all balances equals total supply.
func checkConservation(t *testing.T, l *Ledger) {
	t.Helper()
	sum := new(uint256.Int)
	l.ForEachBalance(func(_ types.Address, bal *uint256.Int) {
		sum.Add(sum, bal)
	})
	if !sum.Eq(l.TotalSupply()) {
		t.Fatalf("conservation violated: sum %s, supply %s", sum, l.TotalSupply())
	}
}

func TestNewLedger_MintsOnce(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(1000))

	if bal := l.BalanceOf(holder); bal.Uint64() != 1000 {
		t.Fatalf("expected genesis balance 1000, got %s", bal)
	}
	if supply := l.TotalSupply(); supply.Uint64() != 1000 {
		t.Fatalf("expected supply 1000, got %s", supply)
	}
	checkConservation(t, l)
}

func TestBalanceOf_UnknownAccount(t *testing.T) {
	l := NewLedger(testAddr(1), uint256.NewInt(1000))
	if bal := l.BalanceOf(testAddr(9)); !bal.IsZero() {
		t.Fatalf("expected zero balance for unknown account, got %s", bal)
	}
}

func TestBalanceOf_ReturnsCopy(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(1000))

	bal := l.BalanceOf(holder)
	bal.SetUint64(5)
	if l.BalanceOf(holder).Uint64() != 1000 {
		t.Fatal("BalanceOf must return a copy")
	}
}

func TestCreditDebit(t *testing.T) {
	holder := testAddr(1)
	other := testAddr(2)
	l := NewLedger(holder, uint256.NewInt(1000))

	if err := l.Debit(holder, uint256.NewInt(300)); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	l.Credit(other, uint256.NewInt(300))

	if l.BalanceOf(holder).Uint64() != 700 {
		t.Fatalf("expected 700, got %s", l.BalanceOf(holder))
	}
	if l.BalanceOf(other).Uint64() != 300 {
		t.Fatalf("expected 300, got %s", l.BalanceOf(other))
	}
	checkConservation(t, l)
}

func TestDebit_Insufficient(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(100))

	err := l.Debit(holder, uint256.NewInt(101))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if l.BalanceOf(holder).Uint64() != 100 {
		t.Fatal("failed debit must not change the balance")
	}
}

func TestClear_MovesToZeroAddress(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(400))

	cleared := l.Clear(holder)
	if cleared.Uint64() != 400 {
		t.Fatalf("expected 400 cleared, got %s", cleared)
	}
	if !l.BalanceOf(holder).IsZero() {
		t.Fatal("cleared account should have zero balance")
	}
	if l.BalanceOf(types.ZeroAddress).Uint64() != 400 {
		t.Fatal("cleared amount should accrue to the zero address")
	}
	checkConservation(t, l)
}

func TestClear_EmptyAccount(t *testing.T) {
	l := NewLedger(testAddr(1), uint256.NewInt(400))
	if cleared := l.Clear(testAddr(9)); !cleared.IsZero() {
		t.Fatalf("expected zero cleared for empty account, got %s", cleared)
	}
}

// --- Allowances ---

func TestSetAndConsumeAllowance(t *testing.T) {
	owner := testAddr(1)
	spender := testAddr(2)
	l := NewLedger(owner, uint256.NewInt(1000))

	l.SetAllowance(owner, spender, uint256.NewInt(500))
	if l.Allowance(owner, spender).Uint64() != 500 {
		t.Fatalf("expected allowance 500, got %s", l.Allowance(owner, spender))
	}

	if err := l.ConsumeAllowance(owner, spender, uint256.NewInt(200)); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if l.Allowance(owner, spender).Uint64() != 300 {
		t.Fatalf("expected allowance 300, got %s", l.Allowance(owner, spender))
	}
}

func TestConsumeAllowance_Insufficient(t *testing.T) {
	owner := testAddr(1)
	spender := testAddr(2)
	l := NewLedger(owner, uint256.NewInt(1000))
	l.SetAllowance(owner, spender, uint256.NewInt(100))

	err := l.ConsumeAllowance(owner, spender, uint256.NewInt(101))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if l.Allowance(owner, spender).Uint64() != 100 {
		t.Fatal("failed consume must not change the allowance")
	}
}

func TestShrinkAllowance_SmallerThanSpend(t *testing.T) {
	owner := testAddr(1)
	spender := testAddr(2)
	l := NewLedger(owner, uint256.NewInt(1000))
	l.SetAllowance(owner, spender, uint256.NewInt(50))

	// An allowance smaller than the spend is zeroed, not underflowed.
	l.ShrinkAllowance(owner, spender, uint256.NewInt(80))
	if !l.Allowance(owner, spender).IsZero() {
		t.Fatalf("expected zeroed allowance, got %s", l.Allowance(owner, spender))
	}
}

func TestHasAllowance(t *testing.T) {
	owner := testAddr(1)
	spender := testAddr(2)
	l := NewLedger(owner, uint256.NewInt(1000))

	if l.HasAllowance(owner, spender) {
		t.Fatal("no allowance entry should exist yet")
	}
	l.SetAllowance(owner, spender, uint256.NewInt(0))
	if !l.HasAllowance(owner, spender) {
		t.Fatal("explicit zero allowance entry should exist")
	}
}

// --- Snapshot and revert ---

func TestSnapshotRevert_Balances(t *testing.T) {
	holder := testAddr(1)
	other := testAddr(2)
	l := NewLedger(holder, uint256.NewInt(1000))

	snap := l.Snapshot()
	if err := l.Debit(holder, uint256.NewInt(400)); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	l.Credit(other, uint256.NewInt(400))

	l.RevertToSnapshot(snap)
	if l.BalanceOf(holder).Uint64() != 1000 {
		t.Fatalf("expected restored balance 1000, got %s", l.BalanceOf(holder))
	}
	if !l.BalanceOf(other).IsZero() {
		t.Fatal("credited account should be gone after revert")
	}
	checkConservation(t, l)
}

func TestSnapshotRevert_Allowances(t *testing.T) {
	owner := testAddr(1)
	spender := testAddr(2)
	l := NewLedger(owner, uint256.NewInt(1000))
	l.SetAllowance(owner, spender, uint256.NewInt(100))

	snap := l.Snapshot()
	l.SetAllowance(owner, spender, uint256.NewInt(999))
	l.RevertToSnapshot(snap)

	if l.Allowance(owner, spender).Uint64() != 100 {
		t.Fatalf("expected restored allowance 100, got %s", l.Allowance(owner, spender))
	}
}

func TestSnapshotRevert_Nested(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(1000))

	snap1 := l.Snapshot()
	if err := l.Debit(holder, uint256.NewInt(100)); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	snap2 := l.Snapshot()
	if err := l.Debit(holder, uint256.NewInt(100)); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	l.RevertToSnapshot(snap2)
	if l.BalanceOf(holder).Uint64() != 900 {
		t.Fatalf("expected 900 after inner revert, got %s", l.BalanceOf(holder))
	}
	l.RevertToSnapshot(snap1)
	if l.BalanceOf(holder).Uint64() != 1000 {
		t.Fatalf("expected 1000 after outer revert, got %s", l.BalanceOf(holder))
	}
}

func TestRevert_UnknownSnapshotIsNoop(t *testing.T) {
	holder := testAddr(1)
	l := NewLedger(holder, uint256.NewInt(1000))
	l.RevertToSnapshot(42)
	if l.BalanceOf(holder).Uint64() != 1000 {
		t.Fatal("unknown snapshot revert must not change state")
	}
}

func TestNewLedgerFromBalances(t *testing.T) {
	balances := map[types.Address]*uint256.Int{
		testAddr(1): uint256.NewInt(600),
		testAddr(2): uint256.NewInt(400),
	}
	allowances := map[types.Address]map[types.Address]*uint256.Int{
		testAddr(1): {testAddr(2): uint256.NewInt(50)},
	}
	l := NewLedgerFromBalances(balances, allowances, uint256.NewInt(1000))

	if l.BalanceOf(testAddr(1)).Uint64() != 600 {
		t.Fatalf("expected 600, got %s", l.BalanceOf(testAddr(1)))
	}
	if l.Allowance(testAddr(1), testAddr(2)).Uint64() != 50 {
		t.Fatalf("expected allowance 50, got %s", l.Allowance(testAddr(1), testAddr(2)))
	}
	checkConservation(t, l)
}
