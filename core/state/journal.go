package state

import (
	"github.com/holiman/uint256"

	"github.com/salenode/salenode/core/types"
)

// journalEntry is a revertible ledger change.
type journalEntry interface {
	revert(l *Ledger)
}

// journal tracks ledger modifications for snapshot/revert.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int // snapshot ID -> entry index
	nextID    int
}

func newJournal() *journal {
	return &journal{
		snapshots: make(map[int]int),
	}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, l *Ledger) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	// Revert in reverse order.
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(l)
	}
	j.entries = j.entries[:idx]

	// Remove invalidated snapshots.
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
}

// --- Concrete journal entries ---

type balanceChange struct {
	addr    types.Address
	prev    *uint256.Int
	existed bool
}

func (ch balanceChange) revert(l *Ledger) {
	if !ch.existed {
		delete(l.balances, ch.addr)
		return
	}
	l.balances[ch.addr] = ch.prev
}

type allowanceChange struct {
	owner   types.Address
	spender types.Address
	prev    *uint256.Int
	existed bool
}

func (ch allowanceChange) revert(l *Ledger) {
	m, ok := l.allowances[ch.owner]
	if !ok {
		return
	}
	if !ch.existed {
		delete(m, ch.spender)
		return
	}
	m[ch.spender] = ch.prev
}
