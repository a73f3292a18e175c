// sale.go implements the TokenSale contract: a fixed-supply token ledger
// under a controlled sale process. Buyers commit a value, wait out the
// reveal period, then reveal matching data to receive tokens at the
// configured price, debited from the owner's balance. The owner can pause
// user-facing operations for a bounded window or engage an emergency stop
// that replaces the purchase path with a one-shot balance-clearing
// withdrawal.
package core

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/state"
	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/log"
	"github.com/salenode/salenode/metrics"
)

// saleConfig is the one-shot sale configuration.
type saleConfig struct {
	price       *uint256.Int
	initialized bool
	active      bool
}

// pauseState is the current pause window. The window self-expires: the
// guard predicate treats it as lifted once now >= startedAt + duration,
// with no explicit unpause required.
type pauseState struct {
	paused    bool
	startedAt int64
	duration  int64
}

// commitRecord is a buyer's pending commitment. One record exists per
// buyer at a time; a new commit before reveal overwrites the prior one.
type commitRecord struct {
	timestamp int64
	value     *big.Int
}

// Config carries the immutable construction parameters of a TokenSale.
type Config struct {
	// Owner is the privileged principal and the genesis holder of the
	// entire token supply. Fixed for the life of the contract.
	Owner types.Address

	// TotalSupply is minted once to Owner at construction.
	TotalSupply *uint256.Int

	// RevealPeriod is the mandatory delay, in seconds, between a commit
	// and its reveal.
	RevealPeriod int64

	// Clock supplies logical time. Defaults to SystemClock.
	Clock Clock

	// Payout receives outbound payment-currency transfers for
	// WithdrawEther. Defaults to DiscardSink.
	Payout PaymentSink

	// Logger receives operational logging. Defaults to the package
	// default logger.
	Logger *log.Logger

	// Metrics receives operation counters. Defaults to the process-wide
	// default registry.
	Metrics *metrics.Registry
}

// TokenSale is the sale contract instance. All exported methods are safe
// for concurrent use; a single mutex serializes entry points while the
// reentrancy latch rejects synchronous re-entry from collaborator
// callbacks within one serialized call.
type TokenSale struct {
	mu      sync.Mutex
	entered bool // reentrancy latch, held for the duration of one guarded call

	owner  types.Address
	pauser types.Address // most recent pause initiator, release authority

	cfg     saleConfig
	pause   pauseState
	stopped bool
	commits map[types.Address]commitRecord
	vault   *uint256.Int // payment units held by the contract

	revealPeriod int64
	ledger       *state.Ledger
	feed         *types.EventFeed
	clock        Clock
	payout       PaymentSink
	logger       *log.Logger
	registry     *metrics.Registry
}

// NewTokenSale creates a sale contract, minting the full supply to the
// owner's ledger balance.
func NewTokenSale(cfg Config) (*TokenSale, error) {
	if cfg.Owner.IsZero() {
		return nil, ErrInvalidRecipient
	}
	if cfg.TotalSupply == nil || cfg.TotalSupply.IsZero() {
		return nil, ErrZeroAmount
	}
	if cfg.RevealPeriod <= 0 {
		return nil, ErrInvalidDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Payout == nil {
		cfg.Payout = DiscardSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default().Module("sale")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultRegistry
	}
	return &TokenSale{
		owner:        cfg.Owner,
		commits:      make(map[types.Address]commitRecord),
		vault:        new(uint256.Int),
		revealPeriod: cfg.RevealPeriod,
		ledger:       state.NewLedger(cfg.Owner, cfg.TotalSupply),
		feed:         types.NewEventFeed(),
		clock:        cfg.Clock,
		payout:       cfg.Payout,
		logger:       cfg.Logger,
		registry:     cfg.Metrics,
	}, nil
}

// --- Guard helpers ---

// enter acquires the serialization mutex and the reentrancy latch. It
// fails with ErrReentrantCall when the latch is already held, which only
// happens when a collaborator callback re-enters the contract from
// within a guarded call.
func (s *TokenSale) enter() error {
	s.mu.Lock()
	if s.entered {
		s.mu.Unlock()
		return ErrReentrantCall
	}
	s.entered = true
	return nil
}

// exit releases the latch and the mutex. Deferred on every exit path.
func (s *TokenSale) exit() {
	s.entered = false
	s.mu.Unlock()
}

// pauseActive reports whether an unexpired pause window is in effect.
func (s *TokenSale) pauseActive() bool {
	return s.pause.paused && s.clock.Now() < s.pause.startedAt+s.pause.duration
}

// requireNotPaused gates user-facing operations on the pause predicate.
func (s *TokenSale) requireNotPaused() error {
	if s.pauseActive() {
		return ErrContractPaused
	}
	return nil
}

// requireOwner gates administrative operations.
func (s *TokenSale) requireOwner(caller types.Address) error {
	if caller != s.owner {
		return ErrUnauthorized
	}
	return nil
}

// emit appends an event to the feed, stamps it with the logical clock,
// and bumps the per-kind counter.
func (s *TokenSale) emit(ev types.Event) {
	ev.Time = s.clock.Now()
	seq := s.feed.Append(ev)
	s.registry.Counter("sale_events_" + string(ev.Kind)).Inc()
	s.logger.Debug("event emitted", "kind", ev.Kind, "seq", seq, "address", ev.Address)
}

// --- Read-only views ---

// Owner returns the contract owner.
func (s *TokenSale) Owner() types.Address { return s.owner }

// Pauser returns the current pauser (zero until a pause has occurred).
func (s *TokenSale) Pauser() types.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauser
}

// Price returns the configured sale price, or nil before initialization.
func (s *TokenSale) Price() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.price == nil {
		return nil
	}
	return new(uint256.Int).Set(s.cfg.price)
}

// Initialized reports whether the sale has been configured.
func (s *TokenSale) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.initialized
}

// Active reports whether the sale is accepting commits.
func (s *TokenSale) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.active
}

// Stopped reports whether the emergency stop is engaged.
func (s *TokenSale) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Paused reports whether an unexpired pause window is in effect.
func (s *TokenSale) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pauseActive()
}

// Vault returns the payment units currently held by the contract.
func (s *TokenSale) Vault() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(uint256.Int).Set(s.vault)
}

// RevealPeriod returns the mandatory commit-to-reveal delay in seconds.
func (s *TokenSale) RevealPeriod() int64 { return s.revealPeriod }

// BalanceOf returns addr's token balance.
func (s *TokenSale) BalanceOf(addr types.Address) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BalanceOf(addr)
}

// Allowance returns the remaining amount spender may move for owner.
func (s *TokenSale) Allowance(owner, spender types.Address) *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Allowance(owner, spender)
}

// TotalSupply returns the fixed token supply.
func (s *TokenSale) TotalSupply() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TotalSupply()
}

// CommitOf returns the pending commit record for addr, if any.
func (s *TokenSale) CommitOf(addr types.Address) (timestamp int64, value *big.Int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.commits[addr]
	if !ok {
		return 0, nil, false
	}
	return rec.timestamp, new(big.Int).Set(rec.value), true
}

// Feed returns the contract's event feed.
func (s *TokenSale) Feed() *types.EventFeed { return s.feed }
