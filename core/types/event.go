// event.go defines the notifications emitted by the sale contract and the
// in-memory feed they are published on. Events are the only observable
// side effect of an operation besides its ledger mutation.
package types

import (
	"sync"

	"github.com/holiman/uint256"
)

// EventKind identifies the category of an emitted event.
type EventKind string

const (
	EventTransfer            EventKind = "transfer"
	EventApproval            EventKind = "approval"
	EventSaleStarted         EventKind = "sale-started"
	EventSaleEnded           EventKind = "sale-ended"
	EventCommit              EventKind = "commit"
	EventReveal              EventKind = "reveal"
	EventEmergencyWithdrawal EventKind = "emergency-withdrawal"
	EventVaultWithdrawal     EventKind = "vault-withdrawal"
	EventPaused              EventKind = "paused"
	EventUnpaused            EventKind = "unpaused"
	EventStopped             EventKind = "stopped"
	EventResumed             EventKind = "resumed"
)

// Event is a single emitted notification. Address is the primary account
// the event concerns (buyer, holder, spender owner); Counterparty is the
// secondary account where one applies (transfer recipient, approved
// spender). Amount carries token or payment units depending on Kind, and
// Data holds kind-specific extra bytes (e.g. the reveal salt).
type Event struct {
	Seq          uint64
	Kind         EventKind
	Address      Address
	Counterparty Address
	Amount       *uint256.Int
	Data         []byte
	Time         int64
}

// EventFeed is an append-only, sequence-numbered event stream. Appends
// assign monotonically increasing sequence numbers starting at 1.
// Subscribers receive a copy of every event appended after they subscribe;
// a subscriber that falls behind its buffer drops events rather than
// blocking the publisher.
type EventFeed struct {
	mu     sync.Mutex
	seq    uint64
	events []Event
	subs   []chan Event
}

// NewEventFeed creates an empty feed.
func NewEventFeed() *EventFeed {
	return &EventFeed{}
}

// Append assigns the next sequence number to ev, records it, and fans it
// out to subscribers. It returns the assigned sequence number.
func (f *EventFeed) Append(ev Event) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ev.Seq = f.seq
	f.events = append(f.events, ev)
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop rather than stall the contract.
		}
	}
	return ev.Seq
}

// Events returns a copy of all events with Seq > after.
func (f *EventFeed) Events(after uint64) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0, len(f.events))
	for _, ev := range f.events {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of events appended so far.
func (f *EventFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// Subscribe registers a new subscriber with the given buffer size and
// returns its channel. The channel is never closed by the feed.
func (f *EventFeed) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch
}
