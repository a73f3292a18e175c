// commit_reveal.go implements the two-phase purchase protocol. A buyer
// first commits a value alongside a positive payment; after the reveal
// period has elapsed the buyer reveals a (salt, value) pair whose hash
// must match the hash of the stored commit value, and receives
// value/price tokens (truncating division) debited from the owner's
// balance.
//
// Both sides of the comparison are hashed over canonical fixed-width
// encodings: the stored commit value as its 64-byte big-endian form, the
// reveal pair as two 32-byte big-endian words. A reveal therefore only
// matches a commit whose value encodes exactly salt<<256 | value.
package core

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/crypto"
)

// Commit records a purchase commitment for the caller, overwriting any
// prior unrevealed commit. The attached payment accrues to the contract
// vault; no tokens are granted yet. Requires an active sale, no emergency
// stop, a passing pause predicate, a positive payment, and a positive
// commit value.
func (s *TokenSale) Commit(caller types.Address, payment *uint256.Int, commitValue *big.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if s.stopped {
		return ErrContractStopped
	}
	if err := s.requireNotPaused(); err != nil {
		return err
	}
	if !s.cfg.active {
		return ErrSaleNotActive
	}
	if payment == nil || payment.IsZero() {
		return ErrZeroPayment
	}
	if commitValue == nil || commitValue.Sign() <= 0 {
		return ErrInvalidCommitValue
	}

	s.commits[caller] = commitRecord{
		timestamp: s.clock.Now(),
		value:     new(big.Int).Set(commitValue),
	}
	s.vault.Add(s.vault, payment)
	s.registry.Counter("sale_commits").Inc()
	s.emit(types.Event{
		Kind:    types.EventCommit,
		Address: caller,
		Amount:  new(uint256.Int).Set(payment),
		Data:    commitValue.Bytes(),
	})
	s.logger.Info("commit recorded", "buyer", caller, "payment", payment)
	return nil
}

// Reveal discloses the (salt, value) pair for the caller's pending
// commit. On success the caller is credited value/price tokens
// (truncating) debited from the owner's balance, the commit record is
// cleared, and transfer plus reveal notifications are emitted. A value
// smaller than the price yields zero tokens but is not itself an error.
func (s *TokenSale) Reveal(caller types.Address, salt, value *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if s.stopped {
		return ErrContractStopped
	}
	if err := s.requireNotPaused(); err != nil {
		return err
	}
	rec, ok := s.commits[caller]
	if !ok {
		return ErrNoCommitFound
	}
	if s.clock.Now() < rec.timestamp+s.revealPeriod {
		return ErrRevealTooEarly
	}
	if salt == nil || value == nil {
		return ErrInvalidCommitRevealPair
	}
	if crypto.RevealDigest(salt, value) != crypto.CommitDigest(rec.value) {
		return ErrInvalidCommitRevealPair
	}

	tokens := new(uint256.Int).Div(value, s.cfg.price)
	if s.ledger.BalanceOf(s.owner).Lt(tokens) {
		return ErrInsufficientSupply
	}

	snap := s.ledger.Snapshot()
	if !tokens.IsZero() {
		if err := s.ledger.Debit(s.owner, tokens); err != nil {
			s.ledger.RevertToSnapshot(snap)
			return ErrInsufficientSupply
		}
		s.ledger.Credit(caller, tokens)
	}
	delete(s.commits, caller)

	s.registry.Counter("sale_reveals").Inc()
	s.registry.Counter("sale_tokens_sold").Add(int64(tokens.Uint64()))
	if !tokens.IsZero() {
		s.emit(types.Event{
			Kind:         types.EventTransfer,
			Address:      s.owner,
			Counterparty: caller,
			Amount:       tokens,
		})
	}
	saltBytes := salt.Bytes32()
	s.emit(types.Event{
		Kind:    types.EventReveal,
		Address: caller,
		Amount:  new(uint256.Int).Set(value),
		Data:    saltBytes[:],
	})
	s.logger.Info("reveal accepted", "buyer", caller, "value", value, "tokens", tokens)
	return nil
}
