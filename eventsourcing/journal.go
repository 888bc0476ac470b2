// Package eventsourcing journals every accepted order command so the
// book can be rebuilt by deterministic replay.
package eventsourcing

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// EntryType identifies the journalled command
type EntryType string

const (
	EntrySubmit EntryType = "SUBMIT"
	EntryCancel EntryType = "CANCEL"
	EntryModify EntryType = "MODIFY"
)

// Entry is one journalled order command. Sequence numbers are assigned
// by the journal and strictly increase; replaying entries in sequence
// order reproduces the book exactly.
type Entry struct {
	EntryID   uuid.UUID        `json:"entry_id"`
	Sequence  uint64           `json:"sequence"`
	Type      EntryType        `json:"type"`
	OrderID   uint64           `json:"order_id"`
	Side      models.OrderSide `json:"side,omitempty"`
	OrderType models.OrderType `json:"order_type,omitempty"`
	Price     int64            `json:"price,omitempty"`
	Quantity  uint64           `json:"quantity,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Journal is an append-only log of order commands
type Journal interface {
	// Append records a command and assigns it the next sequence number
	Append(entry Entry) (Entry, error)

	// Entries returns every journalled command in sequence order
	Entries() ([]Entry, error)

	// Len returns the number of journalled commands
	Len() int
}

// SubmitEntry builds the journal entry for an accepted submission
func SubmitEntry(order *models.Order) Entry {
	return Entry{
		EntryID:   uuid.New(),
		Type:      EntrySubmit,
		OrderID:   order.ID,
		Side:      order.Side,
		OrderType: order.Type,
		Price:     order.Price,
		Quantity:  order.Quantity,
		Timestamp: time.Now(),
	}
}

// CancelEntry builds the journal entry for a cancellation
func CancelEntry(orderID uint64) Entry {
	return Entry{
		EntryID:   uuid.New(),
		Type:      EntryCancel,
		OrderID:   orderID,
		Timestamp: time.Now(),
	}
}

// ModifyEntry builds the journal entry for a modification
func ModifyEntry(update models.OrderUpdate) Entry {
	return Entry{
		EntryID:   uuid.New(),
		Type:      EntryModify,
		OrderID:   update.ID,
		Side:      update.Side,
		Price:     update.Price,
		Quantity:  update.Quantity,
		Timestamp: time.Now(),
	}
}

// MemoryJournal is the in-process Journal implementation. Safe for
// concurrent appenders.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []Entry
	nextSeq uint64
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{nextSeq: 1}
}

func (j *MemoryJournal) Append(entry Entry) (Entry, error) {
	if entry.Type != EntrySubmit && entry.Type != EntryCancel && entry.Type != EntryModify {
		return Entry{}, fmt.Errorf("unknown journal entry type: %s", entry.Type)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Sequence = j.nextSeq
	j.nextSeq++
	j.entries = append(j.entries, entry)
	return entry, nil
}

func (j *MemoryJournal) Entries() ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries := make([]Entry, len(j.entries))
	copy(entries, j.entries)
	return entries, nil
}

func (j *MemoryJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
