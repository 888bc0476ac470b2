package models

import (
	"fmt"
	"time"
)

// OrderSide represents the side of an order (buy or sell)
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents how an order behaves when it cannot fully trade
type OrderType string

const (
	// OrderTypeGoodTillCancel rests on the book until filled or cancelled.
	OrderTypeGoodTillCancel OrderType = "good_till_cancel"
	// OrderTypeFillAndKill matches what it can immediately and never rests.
	OrderTypeFillAndKill OrderType = "fill_and_kill"
)

// OrderStatus represents the current status of an order
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// OverfillError reports an attempt to fill an order beyond its remaining
// quantity. It signals a broken matching invariant, not a caller mistake,
// and is never swallowed or clamped.
type OverfillError struct {
	OrderID   uint64
	Requested uint64
	Remaining uint64
}

func (e *OverfillError) Error() string {
	return fmt.Sprintf("order %d cannot be filled for %d: only %d remaining",
		e.OrderID, e.Requested, e.Remaining)
}

// Order represents one resting or incoming order and its fill state.
// Price is a signed tick count; levels below zero are legal.
type Order struct {
	ID             uint64      `json:"id" db:"order_id"`
	Side           OrderSide   `json:"side" db:"side"`
	Type           OrderType   `json:"type" db:"type"`
	Price          int64       `json:"price" db:"price"`
	Quantity       uint64      `json:"quantity" db:"quantity"`
	FilledQuantity uint64      `json:"filled_quantity" db:"filled_quantity"`
	Status         OrderStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// NewOrder creates a new Order with zero filled quantity
func NewOrder(id uint64, side OrderSide, orderType OrderType, price int64, quantity uint64) *Order {
	now := time.Now()
	return &Order{
		ID:             id,
		Side:           side,
		Type:           orderType,
		Price:          price,
		Quantity:       quantity,
		FilledQuantity: 0,
		Status:         OrderStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsValid validates the order fields
func (o *Order) IsValid() bool {
	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return false
	}
	if o.Type != OrderTypeGoodTillCancel && o.Type != OrderTypeFillAndKill {
		return false
	}
	if o.Quantity == 0 {
		return false
	}
	return o.FilledQuantity <= o.Quantity
}

// RemainingQuantity returns the unfilled quantity of the order
func (o *Order) RemainingQuantity() uint64 {
	return o.Quantity - o.FilledQuantity
}

// IsFilled checks if the order is completely filled
func (o *Order) IsFilled() bool {
	return o.FilledQuantity == o.Quantity
}

// IsPartiallyFilled checks if the order is partially filled
func (o *Order) IsPartiallyFilled() bool {
	return o.FilledQuantity > 0 && o.FilledQuantity < o.Quantity
}

// Fill reduces the remaining quantity by the given amount. Filling more
// than the remaining quantity is a matching-invariant breach and returns
// an OverfillError; the order is left untouched.
func (o *Order) Fill(quantity uint64) error {
	if quantity > o.RemainingQuantity() {
		return &OverfillError{
			OrderID:   o.ID,
			Requested: quantity,
			Remaining: o.RemainingQuantity(),
		}
	}

	o.FilledQuantity += quantity
	o.UpdatedAt = time.Now()

	if o.IsFilled() {
		o.Status = OrderStatusFilled
	} else if o.IsPartiallyFilled() {
		o.Status = OrderStatusPartiallyFilled
	}
	return nil
}

// Cancel marks the order as cancelled
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()
}

// Reject marks the order as rejected
func (o *Order) Reject() {
	o.Status = OrderStatusRejected
	o.UpdatedAt = time.Now()
}

// OrderUpdate describes a modification request for a resting order. A
// modify is a cancel-then-reinsert: the replacement keeps the original ID
// and order type but is placed at the tail of its new price level.
type OrderUpdate struct {
	ID       uint64
	Side     OrderSide
	Price    int64
	Quantity uint64
}

// ToOrder builds the replacement order carrying the preserved type
func (u OrderUpdate) ToOrder(orderType OrderType) *Order {
	return NewOrder(u.ID, u.Side, orderType, u.Price, u.Quantity)
}
