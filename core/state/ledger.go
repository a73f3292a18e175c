// Package state implements the fungible-token ledger backing the sale:
// per-account balances, (owner, spender) allowances, and a journal of
// revertible changes giving every operation all-or-nothing semantics.
package state

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// Ledger errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Ledger is an in-memory fungible-token ledger with a fixed total supply.
// The supply is minted once to the genesis holder; no mint path exists
// afterwards, so the sum of all balances (including the zero address,
// which accumulates extinguished claims) equals the total supply after
// every committed operation.
type Ledger struct {
	balances    map[types.Address]*uint256.Int
	allowances  map[types.Address]map[types.Address]*uint256.Int
	totalSupply *uint256.Int
	journal     *journal
}

// NewLedger creates a ledger with the entire supply credited to holder.
func NewLedger(holder types.Address, totalSupply *uint256.Int) *Ledger {
	l := &Ledger{
		balances:    make(map[types.Address]*uint256.Int),
		allowances:  make(map[types.Address]map[types.Address]*uint256.Int),
		totalSupply: new(uint256.Int).Set(totalSupply),
		journal:     newJournal(),
	}
	l.balances[holder] = new(uint256.Int).Set(totalSupply)
	return l
}

// NewLedgerFromBalances reconstructs a ledger from a persisted snapshot.
// The caller is responsible for the balances summing to totalSupply.
func NewLedgerFromBalances(balances map[types.Address]*uint256.Int, allowances map[types.Address]map[types.Address]*uint256.Int, totalSupply *uint256.Int) *Ledger {
	l := &Ledger{
		balances:    make(map[types.Address]*uint256.Int, len(balances)),
		allowances:  make(map[types.Address]map[types.Address]*uint256.Int, len(allowances)),
		totalSupply: new(uint256.Int).Set(totalSupply),
		journal:     newJournal(),
	}
	for addr, bal := range balances {
		l.balances[addr] = new(uint256.Int).Set(bal)
	}
	for owner, spenders := range allowances {
		m := make(map[types.Address]*uint256.Int, len(spenders))
		for spender, amt := range spenders {
			m[spender] = new(uint256.Int).Set(amt)
		}
		l.allowances[owner] = m
	}
	return l
}

// TotalSupply returns a copy of the fixed total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(l.totalSupply)
}

// BalanceOf returns a copy of addr's balance. Unknown accounts have a
// zero balance.
func (l *Ledger) BalanceOf(addr types.Address) *uint256.Int {
	if bal, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Allowance returns a copy of the remaining amount spender may move on
// behalf of owner.
func (l *Ledger) Allowance(owner, spender types.Address) *uint256.Int {
	if m, ok := l.allowances[owner]; ok {
		if amt, ok := m[spender]; ok {
			return new(uint256.Int).Set(amt)
		}
	}
	return new(uint256.Int)
}

// HasAllowance reports whether an explicit allowance entry exists for the
// (owner, spender) pair, regardless of its value.
func (l *Ledger) HasAllowance(owner, spender types.Address) bool {
	m, ok := l.allowances[owner]
	if !ok {
		return false
	}
	_, ok = m[spender]
	return ok
}

// Credit adds amount to addr's balance.
func (l *Ledger) Credit(addr types.Address, amount *uint256.Int) {
	prev, existed := l.balances[addr]
	l.journal.append(balanceChange{addr: addr, prev: copyOrNil(prev), existed: existed})
	next := new(uint256.Int)
	if existed {
		next.Set(prev)
	}
	next.Add(next, amount)
	l.balances[addr] = next
}

// Debit subtracts amount from addr's balance, failing with
// ErrInsufficientBalance if the balance is smaller than amount.
func (l *Ledger) Debit(addr types.Address, amount *uint256.Int) error {
	prev, existed := l.balances[addr]
	bal := new(uint256.Int)
	if existed {
		bal.Set(prev)
	}
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.journal.append(balanceChange{addr: addr, prev: copyOrNil(prev), existed: existed})
	l.balances[addr] = bal.Sub(bal, amount)
	return nil
}

// Clear zeroes addr's balance and credits the cleared amount to the zero
// address, preserving the supply invariant. It returns the amount cleared.
func (l *Ledger) Clear(addr types.Address) *uint256.Int {
	cleared := l.BalanceOf(addr)
	if cleared.IsZero() {
		return cleared
	}
	prev := l.balances[addr]
	l.journal.append(balanceChange{addr: addr, prev: copyOrNil(prev), existed: true})
	l.balances[addr] = new(uint256.Int)
	l.Credit(types.ZeroAddress, cleared)
	return cleared
}

// SetAllowance sets the amount spender may move on behalf of owner.
func (l *Ledger) SetAllowance(owner, spender types.Address, amount *uint256.Int) {
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[types.Address]*uint256.Int)
		l.allowances[owner] = m
	}
	prev, existed := m[spender]
	l.journal.append(allowanceChange{owner: owner, spender: spender, prev: copyOrNil(prev), existed: existed})
	m[spender] = new(uint256.Int).Set(amount)
}

// ShrinkAllowance reduces the (owner, spender) allowance after a spend of
// amount: an allowance smaller than amount is zeroed, a larger one is
// reduced by amount. Missing entries are left untouched.
func (l *Ledger) ShrinkAllowance(owner, spender types.Address, amount *uint256.Int) {
	m, ok := l.allowances[owner]
	if !ok {
		return
	}
	prev, ok := m[spender]
	if !ok {
		return
	}
	l.journal.append(allowanceChange{owner: owner, spender: spender, prev: copyOrNil(prev), existed: true})
	next := new(uint256.Int)
	if prev.Gt(amount) {
		next.Sub(prev, amount)
	}
	m[spender] = next
}

// ConsumeAllowance verifies that spender holds an allowance of at least
// amount from owner, then shrinks it. Fails with ErrInsufficientAllowance
// on a shortfall.
func (l *Ledger) ConsumeAllowance(owner, spender types.Address, amount *uint256.Int) error {
	if l.Allowance(owner, spender).Lt(amount) {
		return ErrInsufficientAllowance
	}
	l.ShrinkAllowance(owner, spender, amount)
	return nil
}

// ForEachBalance invokes fn for every account with a balance entry.
func (l *Ledger) ForEachBalance(fn func(addr types.Address, bal *uint256.Int)) {
	for addr, bal := range l.balances {
		fn(addr, new(uint256.Int).Set(bal))
	}
}

// ForEachAllowance invokes fn for every explicit allowance entry.
func (l *Ledger) ForEachAllowance(fn func(owner, spender types.Address, amt *uint256.Int)) {
	for owner, m := range l.allowances {
		for spender, amt := range m {
			fn(owner, spender, new(uint256.Int).Set(amt))
		}
	}
}

// --- Snapshot and revert ---

// Snapshot returns an identifier for the current ledger state. A later
// RevertToSnapshot with the same identifier undoes every change made in
// between.
func (l *Ledger) Snapshot() int {
	return l.journal.snapshot()
}

// RevertToSnapshot undoes all changes made since the snapshot was taken.
func (l *Ledger) RevertToSnapshot(id int) {
	l.journal.revertToSnapshot(id, l)
}

func copyOrNil(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
