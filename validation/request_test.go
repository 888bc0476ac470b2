package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

func TestOrderRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request OrderRequest
		wantErr bool
	}{
		{
			name:    "valid good till cancel",
			request: OrderRequest{ID: 1, Side: "buy", Type: "good_till_cancel", Price: 100, Quantity: 10},
		},
		{
			name:    "valid fill and kill",
			request: OrderRequest{ID: 2, Side: "sell", Type: "fill_and_kill", Price: 100, Quantity: 10},
		},
		{
			name:    "negative price is legal",
			request: OrderRequest{ID: 3, Side: "buy", Type: "good_till_cancel", Price: -5, Quantity: 10},
		},
		{
			name:    "zero price is legal",
			request: OrderRequest{ID: 4, Side: "sell", Type: "good_till_cancel", Price: 0, Quantity: 1},
		},
		{
			name:    "missing id",
			request: OrderRequest{Side: "buy", Type: "good_till_cancel", Price: 100, Quantity: 10},
			wantErr: true,
		},
		{
			name:    "bad side",
			request: OrderRequest{ID: 5, Side: "short", Type: "good_till_cancel", Price: 100, Quantity: 10},
			wantErr: true,
		},
		{
			name:    "bad type",
			request: OrderRequest{ID: 6, Side: "buy", Type: "market", Price: 100, Quantity: 10},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			request: OrderRequest{ID: 7, Side: "buy", Type: "good_till_cancel", Price: 100},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderRequestToOrder(t *testing.T) {
	req := OrderRequest{ID: 42, Side: "sell", Type: "fill_and_kill", Price: -10, Quantity: 7}
	require.NoError(t, req.Validate())

	order := req.ToOrder()
	assert.Equal(t, uint64(42), order.ID)
	assert.Equal(t, models.OrderSideSell, order.Side)
	assert.Equal(t, models.OrderTypeFillAndKill, order.Type)
	assert.Equal(t, int64(-10), order.Price)
	assert.Equal(t, uint64(7), order.Quantity)
	assert.True(t, order.IsValid())
}

func TestModifyRequestToUpdate(t *testing.T) {
	req := ModifyRequest{OrderID: 9, Side: "buy", Price: 55, Quantity: 3}
	require.NoError(t, req.Validate())

	update := req.ToUpdate()
	assert.Equal(t, uint64(9), update.ID)
	assert.Equal(t, models.OrderSideBuy, update.Side)
	assert.Equal(t, int64(55), update.Price)
	assert.Equal(t, uint64(3), update.Quantity)
}

func TestCancelRequestValidate(t *testing.T) {
	assert.Error(t, (&CancelRequest{}).Validate())
	assert.NoError(t, (&CancelRequest{OrderID: 1}).Validate())
}
