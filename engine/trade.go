package engine

import (
	"time"

	"github.com/google/uuid"
)

// TradeInfo is one side's view of an execution. Price is the resting
// price of that side's own order, not a shared clearing price, so the
// report preserves which limit each fill executed against.
type TradeInfo struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Trade is an immutable record of one execution between a buy and a sell
// order. Produced by the matching algorithm, never mutated.
type Trade struct {
	ID        uuid.UUID `json:"trade_id"`
	Bid       TradeInfo `json:"bid"`
	Ask       TradeInfo `json:"ask"`
	Timestamp time.Time `json:"timestamp"`
}

func newTrade(bid, ask TradeInfo) Trade {
	return Trade{
		ID:        uuid.New(),
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Now(),
	}
}

// LevelInfo is the aggregate view of one price level: the price and the
// total remaining quantity across every order resting there.
type LevelInfo struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// BookDepth is a point-in-time snapshot of both sides of the book, each
// ordered best-first (bids descending, asks ascending).
type BookDepth struct {
	Bids []LevelInfo `json:"bids"`
	Asks []LevelInfo `json:"asks"`
}
