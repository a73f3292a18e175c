// export.go converts the contract's live state to and from a portable
// snapshot form: the ledger balances and allowances, sale configuration,
// pause and stop state, pending commits, and the vault. The storage
// layer persists snapshots as CBOR.
package core

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/state"
	"github.com/salenode/salenode/core/types"
	"github.com/salenode/salenode/log"
	"github.com/salenode/salenode/metrics"
)

// CommitExport is the snapshot form of a pending commit record.
type CommitExport struct {
	Timestamp int64  `cbor:"1,keyasint"`
	Value     []byte `cbor:"2,keyasint"`
}

// StateExport is the snapshot form of the full contract state. Addresses
// are hex strings; amounts are big-endian byte slices.
type StateExport struct {
	Owner         string                       `cbor:"1,keyasint"`
	Pauser        string                       `cbor:"2,keyasint"`
	TotalSupply   []byte                       `cbor:"3,keyasint"`
	Balances      map[string][]byte            `cbor:"4,keyasint"`
	Allowances    map[string]map[string][]byte `cbor:"5,keyasint"`
	Price         []byte                       `cbor:"6,keyasint"`
	Initialized   bool                         `cbor:"7,keyasint"`
	Active        bool                         `cbor:"8,keyasint"`
	Stopped       bool                         `cbor:"9,keyasint"`
	Paused        bool                         `cbor:"10,keyasint"`
	PauseStart    int64                        `cbor:"11,keyasint"`
	PauseDuration int64                        `cbor:"12,keyasint"`
	Commits       map[string]CommitExport      `cbor:"13,keyasint"`
	Vault         []byte                       `cbor:"14,keyasint"`
	RevealPeriod  int64                        `cbor:"15,keyasint"`
}

// ExportState returns a deep copy of the contract state in snapshot form.
func (s *TokenSale) ExportState() *StateExport {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex := &StateExport{
		Owner:         s.owner.Hex(),
		Pauser:        s.pauser.Hex(),
		TotalSupply:   s.ledger.TotalSupply().Bytes(),
		Balances:      make(map[string][]byte),
		Allowances:    make(map[string]map[string][]byte),
		Initialized:   s.cfg.initialized,
		Active:        s.cfg.active,
		Stopped:       s.stopped,
		Paused:        s.pause.paused,
		PauseStart:    s.pause.startedAt,
		PauseDuration: s.pause.duration,
		Commits:       make(map[string]CommitExport, len(s.commits)),
		Vault:         s.vault.Bytes(),
		RevealPeriod:  s.revealPeriod,
	}
	if s.cfg.price != nil {
		ex.Price = s.cfg.price.Bytes()
	}
	s.ledger.ForEachBalance(func(addr types.Address, bal *uint256.Int) {
		ex.Balances[addr.Hex()] = bal.Bytes()
	})
	s.ledger.ForEachAllowance(func(owner, spender types.Address, amt *uint256.Int) {
		m, ok := ex.Allowances[owner.Hex()]
		if !ok {
			m = make(map[string][]byte)
			ex.Allowances[owner.Hex()] = m
		}
		m[spender.Hex()] = amt.Bytes()
	})
	for addr, rec := range s.commits {
		ex.Commits[addr.Hex()] = CommitExport{
			Timestamp: rec.timestamp,
			Value:     rec.value.Bytes(),
		}
	}
	return ex
}

// RestoreTokenSale reconstructs a contract from a snapshot. The runtime
// collaborators (clock, sink, logger, metrics) come from cfg; the
// snapshot supplies everything else, including owner and reveal period.
func RestoreTokenSale(ex *StateExport, cfg Config) (*TokenSale, error) {
	if ex == nil {
		return nil, ErrInvalidRecipient
	}
	owner := types.HexToAddress(ex.Owner)
	if owner.IsZero() {
		return nil, ErrInvalidRecipient
	}
	if ex.RevealPeriod <= 0 {
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

	balances := make(map[types.Address]*uint256.Int, len(ex.Balances))
	for addrHex, raw := range ex.Balances {
		balances[types.HexToAddress(addrHex)] = new(uint256.Int).SetBytes(raw)
	}
	allowances := make(map[types.Address]map[types.Address]*uint256.Int, len(ex.Allowances))
	for ownerHex, spenders := range ex.Allowances {
		m := make(map[types.Address]*uint256.Int, len(spenders))
		for spenderHex, raw := range spenders {
			m[types.HexToAddress(spenderHex)] = new(uint256.Int).SetBytes(raw)
		}
		allowances[types.HexToAddress(ownerHex)] = m
	}

	s := &TokenSale{
		owner:  owner,
		pauser: types.HexToAddress(ex.Pauser),
		cfg: saleConfig{
			initialized: ex.Initialized,
			active:      ex.Active,
		},
		pause: pauseState{
			paused:    ex.Paused,
			startedAt: ex.PauseStart,
			duration:  ex.PauseDuration,
		},
		stopped:      ex.Stopped,
		commits:      make(map[types.Address]commitRecord, len(ex.Commits)),
		vault:        new(uint256.Int).SetBytes(ex.Vault),
		revealPeriod: ex.RevealPeriod,
		ledger:       state.NewLedgerFromBalances(balances, allowances, new(uint256.Int).SetBytes(ex.TotalSupply)),
		feed:         types.NewEventFeed(),
		clock:        cfg.Clock,
		payout:       cfg.Payout,
		logger:       cfg.Logger,
		registry:     cfg.Metrics,
	}
	if len(ex.Price) > 0 {
		s.cfg.price = new(uint256.Int).SetBytes(ex.Price)
	}
	for addrHex, rec := range ex.Commits {
		s.commits[types.HexToAddress(addrHex)] = commitRecord{
			timestamp: rec.Timestamp,
			value:     new(big.Int).SetBytes(rec.Value),
		}
	}
	return s, nil
}
