package eventsourcing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

func TestMemoryJournalSequencing(t *testing.T) {
	journal := NewMemoryJournal()

	first, err := journal.Append(SubmitEntry(models.NewOrder(1, models.OrderSideBuy, models.OrderTypeGoodTillCancel, 10, 100)))
	require.NoError(t, err)
	second, err := journal.Append(CancelEntry(1))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, 2, journal.Len())

	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EntrySubmit, entries[0].Type)
	assert.Equal(t, EntryCancel, entries[1].Type)
}

func TestMemoryJournalRejectsUnknownType(t *testing.T) {
	journal := NewMemoryJournal()

	_, err := journal.Append(Entry{Type: EntryType("TRUNCATE")})
	assert.Error(t, err)
	assert.Equal(t, 0, journal.Len())
}

func TestReplayRebuildsBook(t *testing.T) {
	journal := NewMemoryJournal()

	live := engine.NewOrderBook()
	apply := func(entry Entry) {
		switch entry.Type {
		case EntrySubmit:
			order := models.NewOrder(entry.OrderID, entry.Side, entry.OrderType, entry.Price, entry.Quantity)
			_, err := live.AddOrder(order)
			require.NoError(t, err)
		case EntryCancel:
			live.CancelOrder(entry.OrderID)
		case EntryModify:
			_, err := live.ModifyOrder(models.OrderUpdate{
				ID: entry.OrderID, Side: entry.Side, Price: entry.Price, Quantity: entry.Quantity,
			})
			require.NoError(t, err)
		}
		_, err := journal.Append(entry)
		require.NoError(t, err)
	}

	apply(SubmitEntry(models.NewOrder(1, models.OrderSideBuy, models.OrderTypeGoodTillCancel, 10, 100)))
	apply(SubmitEntry(models.NewOrder(2, models.OrderSideBuy, models.OrderTypeGoodTillCancel, 9, 50)))
	apply(SubmitEntry(models.NewOrder(3, models.OrderSideSell, models.OrderTypeGoodTillCancel, 10, 40)))
	apply(SubmitEntry(models.NewOrder(4, models.OrderSideSell, models.OrderTypeFillAndKill, 9, 200)))
	apply(CancelEntry(2))
	apply(ModifyEntry(models.OrderUpdate{ID: 1, Side: models.OrderSideBuy, Price: 11, Quantity: 30}))
	apply(SubmitEntry(models.NewOrder(5, models.OrderSideSell, models.OrderTypeGoodTillCancel, 12, 60)))

	rebuilt, err := Replay(journal)
	require.NoError(t, err)

	assert.Equal(t, live.Size(), rebuilt.Size())
	assert.Equal(t, live.Depth(), rebuilt.Depth())
}

func TestReplayEmptyJournal(t *testing.T) {
	book, err := Replay(NewMemoryJournal())
	require.NoError(t, err)
	assert.Equal(t, 0, book.Size())
}

func TestRecorderJournalsEngineCommands(t *testing.T) {
	journal := NewMemoryJournal()

	me := engine.NewMatchingEngine()
	me.SetCommandJournal(NewRecorder(journal))
	require.NoError(t, me.Start(context.Background()))
	defer func() { _ = me.Stop() }()

	_, err := me.SubmitOrder(models.NewOrder(1, models.OrderSideBuy, models.OrderTypeGoodTillCancel, 10, 100))
	require.NoError(t, err)
	_, err = me.SubmitOrder(models.NewOrder(2, models.OrderSideSell, models.OrderTypeGoodTillCancel, 10, 40))
	require.NoError(t, err)
	_, err = me.CancelOrder(99) // unknown: must not be journalled
	require.NoError(t, err)

	// A rejected submission must not be journalled either.
	_, err = me.SubmitOrder(models.NewOrder(1, models.OrderSideSell, models.OrderTypeGoodTillCancel, 11, 5))
	require.NoError(t, err)

	require.Equal(t, 2, journal.Len())

	rebuilt, err := Replay(journal)
	require.NoError(t, err)

	size, err := me.Size()
	require.NoError(t, err)
	assert.Equal(t, size, rebuilt.Size())

	depth, err := me.Depth()
	require.NoError(t, err)
	assert.Equal(t, depth, rebuilt.Depth())
}
