// stop.go implements the emergency stop: a binary owner-controlled switch
// that disables the commit-reveal purchase path and opens a one-shot
// balance-clearing withdrawal for every holder. The withdrawal is a
// ledger write-off, not a refund: it extinguishes and records the
// holder's claim, and performs no payment-currency transfer.
package core

import (
	"github.com/salenode/salenode/core/types"
)

// StopContract engages the emergency stop.
func (s *TokenSale) StopContract(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if s.stopped {
		return ErrAlreadyStopped
	}

	s.stopped = true
	s.emit(types.Event{
		Kind:    types.EventStopped,
		Address: caller,
	})
	s.logger.Warn("emergency stop engaged")
	return nil
}

// ResumeContract disengages the emergency stop.
func (s *TokenSale) ResumeContract(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if !s.stopped {
		return ErrContractNotStopped
	}

	s.stopped = false
	s.emit(types.Event{
		Kind:    types.EventResumed,
		Address: caller,
	})
	s.logger.Warn("emergency stop disengaged")
	return nil
}

// EmergencyWithdraw zeroes the caller's token balance while the emergency
// stop is engaged, moving the extinguished claim to the zero address so
// total supply stays conserved, and emits a withdrawal record. Available
// only while stopped; one-shot per holder because the balance is zero
// afterwards.
func (s *TokenSale) EmergencyWithdraw(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if !s.stopped {
		return ErrContractNotStopped
	}
	if s.ledger.BalanceOf(caller).IsZero() {
		return ErrInsufficientBalance
	}

	snap := s.ledger.Snapshot()
	cleared := s.ledger.Clear(caller)
	if cleared.IsZero() {
		s.ledger.RevertToSnapshot(snap)
		return ErrInsufficientBalance
	}

	s.registry.Counter("sale_emergency_withdrawals").Inc()
	s.emit(types.Event{
		Kind:    types.EventEmergencyWithdrawal,
		Address: caller,
		Amount:  cleared,
	})
	s.logger.Info("emergency withdrawal", "account", caller, "amount", cleared)
	return nil
}
