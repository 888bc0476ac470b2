package eventsourcing

import (
	"fmt"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/logging"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// Recorder journals the commands an engine accepts. It implements
// engine.CommandJournal, so the engine's worker invokes it synchronously
// and journal order matches processing order; rejected submissions never
// reach the journal and so never replay.
type Recorder struct {
	journal Journal
}

func NewRecorder(journal Journal) *Recorder {
	return &Recorder{journal: journal}
}

func (r *Recorder) RecordSubmit(order *models.Order) {
	if _, err := r.journal.Append(SubmitEntry(order)); err != nil {
		logging.LogStoreError("append", "journal", err)
	}
}

func (r *Recorder) RecordCancel(orderID uint64) {
	if _, err := r.journal.Append(CancelEntry(orderID)); err != nil {
		logging.LogStoreError("append", "journal", err)
	}
}

func (r *Recorder) RecordModify(update models.OrderUpdate) {
	if _, err := r.journal.Append(ModifyEntry(update)); err != nil {
		logging.LogStoreError("append", "journal", err)
	}
}

// Replay rebuilds an order book by re-applying every journalled command
// in sequence order. The result has the same depth and size as the book
// that produced the journal.
func Replay(journal Journal) (*engine.OrderBook, error) {
	start := time.Now()
	logging.LogReplay(logging.EventReplayStarted, 0, 0)

	entries, err := journal.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	book := engine.NewOrderBook()
	applied := 0

	for _, entry := range entries {
		switch entry.Type {
		case EntrySubmit:
			order := models.NewOrder(entry.OrderID, entry.Side, entry.OrderType, entry.Price, entry.Quantity)
			if _, err := book.AddOrder(order); err != nil {
				return nil, fmt.Errorf("replay failed at sequence %d: %w", entry.Sequence, err)
			}

		case EntryCancel:
			book.CancelOrder(entry.OrderID)

		case EntryModify:
			update := models.OrderUpdate{
				ID:       entry.OrderID,
				Side:     entry.Side,
				Price:    entry.Price,
				Quantity: entry.Quantity,
			}
			if _, err := book.ModifyOrder(update); err != nil {
				return nil, fmt.Errorf("replay failed at sequence %d: %w", entry.Sequence, err)
			}

		default:
			return nil, fmt.Errorf("unknown entry type %q at sequence %d", entry.Type, entry.Sequence)
		}
		applied++
	}

	logging.LogReplay(logging.EventReplayCompleted, applied, time.Since(start))
	return book, nil
}
