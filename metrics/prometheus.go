package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter: Total orders accepted onto the book
	OrdersAcceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_accepted_total",
			Help: "Total number of orders accepted by the matching engine",
		},
		[]string{"side", "type"},
	)

	// Counter: Total orders rejected
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected before insertion",
		},
		[]string{"reason"},
	)

	// Counter: Total orders cancelled
	OrdersCancelledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders removed by cancellation",
		},
	)

	// Counter: Total trades executed
	TradesExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Total number of trades executed",
		},
	)

	// Counter: Total quantity traded
	TradedVolumeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "traded_volume_total",
			Help: "Total quantity traded across all executions",
		},
	)

	// Histogram: Matching latency per submitted order
	MatchLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_latency_seconds",
			Help:    "Time taken to match a submitted order against the book",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1us to ~16ms
		},
	)

	// Gauge: Currently resting orders
	RestingOrders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resting_orders",
			Help: "Current number of orders resting on the book",
		},
	)

	// Gauge: Price levels per side
	PriceLevels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "price_levels",
			Help: "Current number of populated price levels per side",
		},
		[]string{"side"},
	)

	// Gauges: Best prices
	BestBidPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_bid_price",
			Help: "Current best bid price",
		},
	)

	BestAskPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "best_ask_price",
			Help: "Current best ask price",
		},
	)

	// Gauge: Spread between best ask and best bid
	BookSpread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "book_spread",
			Help: "Current spread between best ask and best bid",
		},
	)
)

// RecordOrderAccepted increments the accepted-order counter
func RecordOrderAccepted(side, orderType string) {
	OrdersAcceptedTotal.WithLabelValues(side, orderType).Inc()
}

// RecordOrderRejected increments the rejected-order counter
func RecordOrderRejected(reason string) {
	OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordTrade records one execution and its quantity
func RecordTrade(quantity uint64) {
	TradesExecutedTotal.Inc()
	TradedVolumeTotal.Add(float64(quantity))
}

// UpdateBookGauges refreshes the book state gauges after a mutation
func UpdateBookGauges(restingOrders, bidLevels, askLevels int, bestBid, bestAsk int64, haveBid, haveAsk bool) {
	RestingOrders.Set(float64(restingOrders))
	PriceLevels.WithLabelValues("buy").Set(float64(bidLevels))
	PriceLevels.WithLabelValues("sell").Set(float64(askLevels))

	if haveBid {
		BestBidPrice.Set(float64(bestBid))
	} else {
		BestBidPrice.Set(0)
	}
	if haveAsk {
		BestAskPrice.Set(float64(bestAsk))
	} else {
		BestAskPrice.Set(0)
	}
	if haveBid && haveAsk {
		BookSpread.Set(float64(bestAsk - bestBid))
	} else {
		BookSpread.Set(0)
	}
}
