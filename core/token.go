// token.go implements the plain fungible-token operations: direct
// transfer, approval, and delegated transfer. These are the mechanical
// ledger surface; the interesting guarantees (reentrancy, pause gating,
// all-or-nothing mutation) are shared with the sale protocol.
package core

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/state"
	"github.com/salenode/salenode/core/types"
)

// Transfer moves value tokens from the caller to recipient. If an
// explicit allowance from the caller to the recipient exists it is
// shrunk by the transferred value (zeroed when smaller than it).
func (s *TokenSale) Transfer(caller, to types.Address, value *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireNotPaused(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	snap := s.ledger.Snapshot()
	if err := s.ledger.Debit(caller, value); err != nil {
		s.ledger.RevertToSnapshot(snap)
		return mapLedgerErr(err)
	}
	s.ledger.Credit(to, value)
	if s.ledger.HasAllowance(caller, to) {
		s.ledger.ShrinkAllowance(caller, to, value)
	}

	s.emit(types.Event{
		Kind:         types.EventTransfer,
		Address:      caller,
		Counterparty: to,
		Amount:       new(uint256.Int).Set(value),
	})
	return nil
}

// Approve sets the amount spender may move on the caller's behalf.
func (s *TokenSale) Approve(caller, spender types.Address, value *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireNotPaused(); err != nil {
		return err
	}

	s.ledger.SetAllowance(caller, spender, value)
	s.emit(types.Event{
		Kind:         types.EventApproval,
		Address:      caller,
		Counterparty: spender,
		Amount:       new(uint256.Int).Set(value),
	})
	return nil
}

// TransferFrom moves value tokens from from to to on the caller's
// pre-authorized allowance, shrinking the allowance by the value moved.
func (s *TokenSale) TransferFrom(caller, from, to types.Address, value *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireNotPaused(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	if s.ledger.BalanceOf(from).Lt(value) {
		return ErrInsufficientBalance
	}

	snap := s.ledger.Snapshot()
	if err := s.ledger.ConsumeAllowance(from, caller, value); err != nil {
		s.ledger.RevertToSnapshot(snap)
		return mapLedgerErr(err)
	}
	if err := s.ledger.Debit(from, value); err != nil {
		s.ledger.RevertToSnapshot(snap)
		return mapLedgerErr(err)
	}
	s.ledger.Credit(to, value)

	s.emit(types.Event{
		Kind:         types.EventTransfer,
		Address:      from,
		Counterparty: to,
		Amount:       new(uint256.Int).Set(value),
	})
	return nil
}

// mapLedgerErr translates ledger sentinels into the contract taxonomy.
func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, state.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, state.ErrInsufficientAllowance):
		return ErrInsufficientAllowance
	default:
		return err
	}
}
