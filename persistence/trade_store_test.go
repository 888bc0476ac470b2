package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
)

// These tests need a live PostgreSQL instance configured through the
// POSTGRES_* environment variables.
func testStore(t *testing.T) *TradeStore {
	t.Helper()
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set; skipping database tests")
	}

	db, err := Connect()
	require.NoError(t, err)
	require.NoError(t, InitSchema(db))
	t.Cleanup(func() { _ = db.Close() })

	return NewTradeStore(db)
}

func TestRecordAndQueryTrade(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	trade := engine.Trade{
		ID:        uuid.New(),
		Bid:       engine.TradeInfo{OrderID: 1001, Price: 10, Quantity: 40},
		Ask:       engine.TradeInfo{OrderID: 1002, Price: 9, Quantity: 40},
		Timestamp: time.Now().UTC(),
	}

	require.NoError(t, store.RecordTrade(ctx, trade))

	trades, err := store.TradesForOrder(ctx, 1001)
	require.NoError(t, err)
	require.NotEmpty(t, trades)

	found := false
	for _, record := range trades {
		if record.TradeID == trade.ID {
			found = true
			assert.Equal(t, uint64(1001), record.BuyOrderID)
			assert.Equal(t, uint64(1002), record.SellOrderID)
			assert.Equal(t, int64(10), record.BuyPrice)
			assert.Equal(t, int64(9), record.SellPrice)
			assert.Equal(t, uint64(40), record.Quantity)
		}
	}
	assert.True(t, found, "inserted trade not returned by TradesForOrder")
}

func TestRecentTradesOrdering(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	older := engine.Trade{
		ID:        uuid.New(),
		Bid:       engine.TradeInfo{OrderID: 2001, Price: 5, Quantity: 1},
		Ask:       engine.TradeInfo{OrderID: 2002, Price: 5, Quantity: 1},
		Timestamp: time.Now().UTC().Add(-time.Minute),
	}
	newer := engine.Trade{
		ID:        uuid.New(),
		Bid:       engine.TradeInfo{OrderID: 2003, Price: 6, Quantity: 2},
		Ask:       engine.TradeInfo{OrderID: 2004, Price: 6, Quantity: 2},
		Timestamp: time.Now().UTC(),
	}

	require.NoError(t, store.RecordTrade(ctx, older))
	require.NoError(t, store.RecordTrade(ctx, newer))

	trades, err := store.RecentTrades(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, trades)

	var olderIdx, newerIdx = -1, -1
	for i, record := range trades {
		if record.TradeID == older.ID {
			olderIdx = i
		}
		if record.TradeID == newer.ID {
			newerIdx = i
		}
	}
	require.NotEqual(t, -1, olderIdx)
	require.NotEqual(t, -1, newerIdx)
	assert.Less(t, newerIdx, olderIdx, "RecentTrades must return newest first")
}
