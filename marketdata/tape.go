package marketdata

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
)

// TapeEntry is one print on the tape. Trades report a price per leg;
// the tape records the ask-leg price by convention, so every print is
// comparable regardless of which side was the aggressor.
type TapeEntry struct {
	Price     int64
	Quantity  uint64
	Timestamp time.Time
}

// Stats summarizes the current tape window.
type Stats struct {
	Trades int
	Volume uint64
	High   int64
	Low    int64
	Last   int64
	VWAP   decimal.Decimal
}

// Tape keeps a bounded rolling window of executed trades and computes
// summary statistics over it. Safe for concurrent use.
type Tape struct {
	mu      sync.RWMutex
	entries []TapeEntry
	maxSize int
}

func NewTape(maxSize int) *Tape {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Tape{
		entries: make([]TapeEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record appends a print, evicting the oldest when the window is full.
func (t *Tape) Record(price int64, quantity uint64, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == t.maxSize {
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:t.maxSize-1]
	}
	t.entries = append(t.entries, TapeEntry{Price: price, Quantity: quantity, Timestamp: ts})
}

// Attach registers the tape as a trade listener on the engine. Prints
// are recorded at the ask-leg price.
func (t *Tape) Attach(me *engine.MatchingEngine) {
	me.SubscribeToEvents(engine.EventTypeTradeExecuted, func(event engine.Event) {
		trade, ok := event.Data.(engine.TradeExecutedEvent)
		if !ok {
			return
		}
		t.Record(trade.SellPrice, trade.Quantity, trade.Timestamp)
	})
}

// Len reports the number of prints currently in the window.
func (t *Tape) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of the current window, oldest first.
func (t *Tape) Entries() []TapeEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TapeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Stats computes volume, high, low, last and volume-weighted average
// price over the window. Returns the zero Stats when the tape is empty.
func (t *Tape) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.entries) == 0 {
		return Stats{}
	}

	stats := Stats{
		Trades: len(t.entries),
		High:   t.entries[0].Price,
		Low:    t.entries[0].Price,
		Last:   t.entries[len(t.entries)-1].Price,
	}

	notional := decimal.Zero
	for _, entry := range t.entries {
		stats.Volume += entry.Quantity
		if entry.Price > stats.High {
			stats.High = entry.Price
		}
		if entry.Price < stats.Low {
			stats.Low = entry.Price
		}
		notional = notional.Add(
			decimal.NewFromInt(entry.Price).Mul(decimal.NewFromInt(int64(entry.Quantity))),
		)
	}

	if stats.Volume > 0 {
		stats.VWAP = notional.Div(decimal.NewFromInt(int64(stats.Volume)))
	}
	return stats
}
