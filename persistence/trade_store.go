package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// OrderEventType identifies an order lifecycle event row
type OrderEventType string

const (
	OrderEventAccepted  OrderEventType = "ORDER_ACCEPTED"
	OrderEventRejected  OrderEventType = "ORDER_REJECTED"
	OrderEventCancelled OrderEventType = "ORDER_CANCELLED"
	OrderEventReplaced  OrderEventType = "ORDER_REPLACED"
)

// TradeRecord is one persisted execution, both sides priced at their own
// resting limit.
type TradeRecord struct {
	TradeID     uuid.UUID
	BuyOrderID  uint64
	SellOrderID uint64
	BuyPrice    int64
	SellPrice   int64
	Quantity    uint64
	ExecutedAt  time.Time
}

// TradeStore persists trades and order lifecycle events
type TradeStore struct {
	db *sql.DB
}

func NewTradeStore(db *sql.DB) *TradeStore {
	return &TradeStore{db: db}
}

// RecordTrade inserts one executed trade
func (ts *TradeStore) RecordTrade(ctx context.Context, trade engine.Trade) error {
	query := `
		INSERT INTO trades (trade_id, buy_order_id, sell_order_id, buy_price, sell_price, quantity, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ts.db.ExecContext(ctx, query,
		trade.ID,
		int64(trade.Bid.OrderID),
		int64(trade.Ask.OrderID),
		trade.Bid.Price,
		trade.Ask.Price,
		int64(trade.Bid.Quantity),
		trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", trade.ID, err)
	}
	return nil
}

// RecordOrderEvent inserts one order lifecycle event
func (ts *TradeStore) RecordOrderEvent(ctx context.Context, eventType OrderEventType, order *models.Order, occurredAt time.Time) error {
	query := `
		INSERT INTO order_events (order_id, event_type, side, order_type, price, quantity, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := ts.db.ExecContext(ctx, query,
		int64(order.ID),
		string(eventType),
		string(order.Side),
		string(order.Type),
		order.Price,
		int64(order.Quantity),
		string(order.Status),
		occurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order event for %d: %w", order.ID, err)
	}
	return nil
}

// TradesForOrder returns every persisted trade an order took part in, on
// either side, oldest first.
func (ts *TradeStore) TradesForOrder(ctx context.Context, orderID uint64) ([]TradeRecord, error) {
	query := `
		SELECT trade_id, buy_order_id, sell_order_id, buy_price, sell_price, quantity, executed_at
		FROM trades
		WHERE buy_order_id = $1 OR sell_order_id = $1
		ORDER BY executed_at ASC
	`

	rows, err := ts.db.QueryContext(ctx, query, int64(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for order %d: %w", orderID, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// RecentTrades returns the most recent persisted trades, newest first
func (ts *TradeStore) RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	query := `
		SELECT trade_id, buy_order_id, sell_order_id, buy_price, sell_price, quantity, executed_at
		FROM trades
		ORDER BY executed_at DESC
		LIMIT $1
	`

	rows, err := ts.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var trades []TradeRecord
	for rows.Next() {
		var record TradeRecord
		var buyOrderID, sellOrderID, quantity int64

		if err := rows.Scan(
			&record.TradeID,
			&buyOrderID,
			&sellOrderID,
			&record.BuyPrice,
			&record.SellPrice,
			&quantity,
			&record.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		record.BuyOrderID = uint64(buyOrderID)
		record.SellOrderID = uint64(sellOrderID)
		record.Quantity = uint64(quantity)
		trades = append(trades, record)
	}
	return trades, rows.Err()
}
