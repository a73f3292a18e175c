package storage

import (
	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/log"
)

// Drain copies events from ch into the store until stop is closed.
// Withdrawal events additionally produce a receipt row. Intended to run
// in its own goroutine, subscribed to the contract's event feed.
func (s *Store) Drain(ch <-chan types.Event, stop <-chan struct{}, logger *log.Logger) {
	if logger == nil {
		logger = log.Default().Module("storage")
	}
	for {
		select {
		case <-stop:
			return
		case ev := <-ch:
			if err := s.RecordEvent(ev); err != nil {
				logger.Error("failed to persist event", "seq", ev.Seq, "kind", ev.Kind, "err", err)
				continue
			}
			switch ev.Kind {
			case types.EventEmergencyWithdrawal, types.EventVaultWithdrawal:
				if _, err := s.RecordReceipt(ev.Kind, ev.Address, ev.Amount, ev.Time); err != nil {
					logger.Error("failed to persist receipt", "seq", ev.Seq, "err", err)
				}
			}
		}
	}
}
