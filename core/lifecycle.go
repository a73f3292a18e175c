// lifecycle.go implements the sale state machine:
// Uninitialized -> Configured -> {Active, Closed} with Active <-> Closed
// thereafter. All transitions are owner-only.
package core

import (
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// InitializeSale configures the sale price. It can succeed at most once
// for the life of the contract; a second call fails with
// ErrAlreadyInitialized regardless of the price argument.
func (s *TokenSale) InitializeSale(caller types.Address, price *uint256.Int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if s.cfg.initialized {
		return ErrAlreadyInitialized
	}
	if price == nil || price.IsZero() {
		return ErrInvalidPrice
	}

	s.cfg.price = new(uint256.Int).Set(price)
	s.cfg.initialized = true
	s.logger.Info("sale initialized", "price", price)
	return nil
}

// StartSale activates the sale and emits a sale-started notification
// carrying the configured price. Fails with ErrAlreadyActive when the
// sale is already running.
func (s *TokenSale) StartSale(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if !s.cfg.initialized {
		return ErrNotInitialized
	}
	if s.cfg.active {
		return ErrAlreadyActive
	}

	s.cfg.active = true
	s.emit(types.Event{
		Kind:    types.EventSaleStarted,
		Address: caller,
		Amount:  new(uint256.Int).Set(s.cfg.price),
	})
	s.logger.Info("sale started", "price", s.cfg.price)
	return nil
}

// EndSale closes the sale. The transition is unconditional and idempotent;
// the sale-ended notification is emitted only when the sale was actually
// open.
func (s *TokenSale) EndSale(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if !s.cfg.active {
		return nil
	}

	s.cfg.active = false
	s.emit(types.Event{
		Kind:    types.EventSaleEnded,
		Address: caller,
	})
	s.logger.Info("sale ended")
	return nil
}
