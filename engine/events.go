package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

type EventType string

const (
	EventTypeTradeExecuted  EventType = "TradeExecuted"
	EventTypeOrderAccepted  EventType = "OrderAccepted"
	EventTypeOrderRejected  EventType = "OrderRejected"
	EventTypeOrderCancelled EventType = "OrderCancelled"
	EventTypeOrderReplaced  EventType = "OrderReplaced"
	EventTypeDepthChange    EventType = "DepthChange"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

type TradeExecutedEvent struct {
	TradeID     uuid.UUID
	BuyOrderID  uint64
	SellOrderID uint64
	BuyPrice    int64
	SellPrice   int64
	Quantity    uint64
	Timestamp   time.Time
}

type OrderEvent struct {
	OrderID           uint64
	Side              models.OrderSide
	Type              models.OrderType
	Status            models.OrderStatus
	Price             int64
	Quantity          uint64
	FilledQuantity    uint64
	RemainingQuantity uint64
	Timestamp         time.Time
}

// DepthChangeEvent is published after every command that changed the
// book, with the resulting top of book.
type DepthChangeEvent struct {
	BestBid   int64
	BestAsk   int64
	HaveBid   bool
	HaveAsk   bool
	Timestamp time.Time
}

type EventListener func(event Event)

type EventBus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventListener),
	}
}

func (eb *EventBus) Subscribe(eventType EventType, listener EventListener) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners[eventType] = append(eb.listeners[eventType], listener)
}

func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	listeners := eb.listeners[event.Type]
	eb.mu.RUnlock()

	for _, listener := range listeners {
		go listener(event)
	}
}

// Unsubscribe removes all listeners for a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.listeners, eventType)
}

// GetListenerCount returns the number of listeners for an event type
func (eb *EventBus) GetListenerCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.listeners[eventType])
}

func orderEventFrom(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:           order.ID,
		Side:              order.Side,
		Type:              order.Type,
		Status:            order.Status,
		Price:             order.Price,
		Quantity:          order.Quantity,
		FilledQuantity:    order.FilledQuantity,
		RemainingQuantity: order.RemainingQuantity(),
		Timestamp:         time.Now(),
	}
}
