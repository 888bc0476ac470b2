package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

var (
	validate     *validator.Validate
	onceValidate sync.Once
)

func GetValidator() *validator.Validate {
	onceValidate.Do(func() {
		validate = validator.New()
	})
	return validate
}

// OrderRequest is an inbound new-order request. Price is deliberately
// unconstrained: negative limit prices are legal.
type OrderRequest struct {
	ID       uint64 `json:"id" validate:"required"`
	Side     string `json:"side" validate:"required,oneof=buy sell"`
	Type     string `json:"type" validate:"required,oneof=good_till_cancel fill_and_kill"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity" validate:"required,gt=0"`
}

type CancelRequest struct {
	OrderID uint64 `json:"order_id" validate:"required"`
}

type ModifyRequest struct {
	OrderID  uint64 `json:"order_id" validate:"required"`
	Side     string `json:"side" validate:"required,oneof=buy sell"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity" validate:"required,gt=0"`
}

// Validate checks the request against its tags and returns a
// human-readable error listing every failing field.
func (r *OrderRequest) Validate() error {
	return describeErrors(GetValidator().Struct(r))
}

func (r *CancelRequest) Validate() error {
	return describeErrors(GetValidator().Struct(r))
}

func (r *ModifyRequest) Validate() error {
	return describeErrors(GetValidator().Struct(r))
}

// ToOrder converts a validated request into a domain order.
func (r *OrderRequest) ToOrder() *models.Order {
	return models.NewOrder(r.ID, models.OrderSide(r.Side), models.OrderType(r.Type), r.Price, r.Quantity)
}

// ToUpdate converts a validated request into a domain order update.
func (r *ModifyRequest) ToUpdate() models.OrderUpdate {
	return models.OrderUpdate{
		ID:       r.OrderID,
		Side:     models.OrderSide(r.Side),
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

func describeErrors(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", e.Field(), e.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
