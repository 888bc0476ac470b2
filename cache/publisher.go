package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/logging"
)

// TradeMessage is the payload published on the trades channel.
type TradeMessage struct {
	TradeID     string    `json:"trade_id"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	BuyPrice    int64     `json:"buy_price"`
	SellPrice   int64     `json:"sell_price"`
	Quantity    uint64    `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

// DepthMessage is the payload published on the depth channel.
type DepthMessage struct {
	Depth     engine.BookDepth `json:"depth"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher fans engine activity out to Redis: trades on
// trades:<instrument>, depth snapshots on depth:<instrument>.
// Consumers subscribe to Redis instead of the engine itself.
type Publisher struct {
	redis      *RedisCache
	depthCache *DepthCache
	instrument string
}

func NewPublisher(redis *RedisCache, depthCache *DepthCache, instrument string) *Publisher {
	return &Publisher{
		redis:      redis,
		depthCache: depthCache,
		instrument: instrument,
	}
}

func (p *Publisher) tradesChannel() string {
	return fmt.Sprintf("trades:%s", p.instrument)
}

func (p *Publisher) depthChannel() string {
	return fmt.Sprintf("depth:%s", p.instrument)
}

// Attach wires the publisher to the engine's event bus. Trade events
// become trade messages; each depth-change event triggers a fresh
// depth snapshot.
func (p *Publisher) Attach(me *engine.MatchingEngine) {
	me.SubscribeToEvents(engine.EventTypeTradeExecuted, func(event engine.Event) {
		trade, ok := event.Data.(engine.TradeExecutedEvent)
		if !ok {
			return
		}
		p.publishTrade(trade)
	})

	me.SubscribeToEvents(engine.EventTypeDepthChange, func(event engine.Event) {
		p.publishDepth(me)
	})
}

func (p *Publisher) publishTrade(trade engine.TradeExecutedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msg := TradeMessage{
		TradeID:     trade.TradeID.String(),
		BuyOrderID:  trade.BuyOrderID,
		SellOrderID: trade.SellOrderID,
		BuyPrice:    trade.BuyPrice,
		SellPrice:   trade.SellPrice,
		Quantity:    trade.Quantity,
		Timestamp:   trade.Timestamp,
	}
	if err := p.redis.Publish(ctx, p.tradesChannel(), msg); err != nil {
		logging.LogStoreError("publish", p.tradesChannel(), err)
	}
}

func (p *Publisher) publishDepth(me *engine.MatchingEngine) {
	depth, err := me.Depth()
	if err != nil {
		logging.LogStoreError("depth_snapshot", p.instrument, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.depthCache.Set(ctx, depth); err != nil {
		logging.LogStoreError("cache_set", depthKey, err)
	}
	if err := p.redis.Publish(ctx, p.depthChannel(), DepthMessage{Depth: depth, Timestamp: time.Now()}); err != nil {
		logging.LogStoreError("publish", p.depthChannel(), err)
	}
}
