package persistence

import (
	"context"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// AttachStore wires a matching engine to the trade store: every trade
// and order lifecycle event is persisted, with failed writes handed to
// the retry queue instead of blocking or getting lost. The trade handler
// runs on the engine worker, so each insert gets a short deadline.
func AttachStore(me *engine.MatchingEngine, store *TradeStore, retry *RetryQueue) {
	me.SetTradeHandler(func(trade engine.Trade) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := store.RecordTrade(ctx, trade); err != nil {
			retry.QueueTrade(trade, err)
		}
	})

	recordOrderEvent := func(eventType OrderEventType) engine.EventListener {
		return func(event engine.Event) {
			data, ok := event.Data.(engine.OrderEvent)
			if !ok {
				return
			}

			order := &models.Order{
				ID:             data.OrderID,
				Side:           data.Side,
				Type:           data.Type,
				Price:          data.Price,
				Quantity:       data.Quantity,
				FilledQuantity: data.FilledQuantity,
				Status:         data.Status,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := store.RecordOrderEvent(ctx, eventType, order, data.Timestamp); err != nil {
				retry.QueueOrderEvent(eventType, order, data.Timestamp, err)
			}
		}
	}

	me.SubscribeToEvents(engine.EventTypeOrderAccepted, recordOrderEvent(OrderEventAccepted))
	me.SubscribeToEvents(engine.EventTypeOrderRejected, recordOrderEvent(OrderEventRejected))
	me.SubscribeToEvents(engine.EventTypeOrderCancelled, recordOrderEvent(OrderEventCancelled))
	me.SubscribeToEvents(engine.EventTypeOrderReplaced, recordOrderEvent(OrderEventReplaced))
}
