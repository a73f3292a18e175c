// vault.go implements the payment-currency side of the contract: the
// vault accumulating buyer payments and the owner's withdrawal path
// through an external payment sink. The sink call is the one place a
// guarded operation hands control to untrusted code, so the reentrancy
// latch stays held across it while the serialization mutex is released.
package core

import (
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// PaymentSink receives outbound payment-currency transfers. A sink error
// surfaces to the caller as ErrPaymentFailed and rolls the vault debit
// back.
type PaymentSink interface {
	Pay(to types.Address, amount *uint256.Int) error
}

// DiscardSink accepts and drops every payment. It is the default sink
// for deployments where payment settlement happens out of band.
type DiscardSink struct{}

// Pay implements PaymentSink.
func (DiscardSink) Pay(types.Address, *uint256.Int) error { return nil }

// WithdrawEther pays amount from the contract vault to the owner through
// the payment sink. Owner-only; amount must be positive and no larger
// than the vault balance.
func (s *TokenSale) WithdrawEther(caller types.Address, amount *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	if s.vault.Lt(amount) {
		return ErrInsufficientVault
	}

	s.vault.Sub(s.vault, amount)

	// Hand control to the sink without holding the mutex. The latch
	// stays held: a callback re-entering the contract fails with
	// ErrReentrantCall instead of deadlocking or observing the
	// intermediate vault state.
	s.mu.Unlock()
	payErr := s.payout.Pay(s.owner, amount)
	s.mu.Lock()

	if payErr != nil {
		s.vault.Add(s.vault, amount)
		s.logger.Error("vault withdrawal failed", "amount", amount, "err", payErr)
		return ErrPaymentFailed
	}

	s.registry.Counter("sale_vault_withdrawals").Inc()
	s.emit(types.Event{
		Kind:    types.EventVaultWithdrawal,
		Address: s.owner,
		Amount:  new(uint256.Int).Set(amount),
	})
	s.logger.Info("vault withdrawal", "amount", amount)
	return nil
}
