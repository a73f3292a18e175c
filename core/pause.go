// pause.go implements the time-boxed pause window. The owner initiates a
// pause and becomes-or-designates the pauser by doing so; the window is
// lifted either by the pauser's explicit unpause or automatically once
// its duration elapses. Splitting pause authority (owner) from release
// authority (pauser) lets the owner delegate per incident while
// self-expiry bounds worst-case downtime if the pauser is unreachable.
package core

import (
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// PauseContract engages a pause window of the given duration in seconds
// and records the caller as the pauser. Initiating a new pause while an
// unexpired window is active fails with ErrContractPaused; once the
// window has expired a new pause may be engaged without an explicit
// unpause.
func (s *TokenSale) PauseContract(caller types.Address, duration int64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if s.pauseActive() {
		return ErrContractPaused
	}
	if duration <= 0 {
		return ErrInvalidDuration
	}

	s.pause = pauseState{
		paused:    true,
		startedAt: s.clock.Now(),
		duration:  duration,
	}
	s.pauser = caller
	s.registry.Counter("sale_pauses").Inc()
	s.emit(types.Event{
		Kind:    types.EventPaused,
		Address: caller,
		Amount:  uint256.NewInt(uint64(duration)),
	})
	s.logger.Warn("contract paused", "pauser", caller, "duration", duration)
	return nil
}

// UnpauseContract clears the pause window. Only the current pauser may
// call it. Calling it while already unpaused is a no-op.
func (s *TokenSale) UnpauseContract(caller types.Address) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.exit()

	if caller != s.pauser || s.pauser.IsZero() {
		return ErrUnauthorized
	}
	if !s.pause.paused {
		return nil
	}

	s.pause = pauseState{}
	s.emit(types.Event{
		Kind:    types.EventUnpaused,
		Address: caller,
	})
	s.logger.Info("contract unpaused", "pauser", caller)
	return nil
}
