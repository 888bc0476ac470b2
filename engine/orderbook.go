package engine

import (
	"container/list"

	"github.com/google/btree"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// PriceLevel holds the orders resting at one price in arrival order
// (front = oldest = highest time priority). Volume is the maintained
// aggregate of remaining quantities, kept in step with every fill and
// removal so depth snapshots never rescan the queue.
type PriceLevel struct {
	Price  int64
	Orders *list.List
	Volume uint64
}

// NewPriceLevel creates an empty price level
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: list.New(),
	}
}

func (pl *PriceLevel) AddOrder(order *models.Order) *list.Element {
	element := pl.Orders.PushBack(order)
	pl.Volume += order.RemainingQuantity()
	return element
}

func (pl *PriceLevel) RemoveOrder(element *list.Element) {
	if element == nil {
		return
	}
	order := element.Value.(*models.Order)
	pl.Volume -= order.RemainingQuantity()
	pl.Orders.Remove(element)
}

// reduceVolume accounts for a fill against an order that stays queued
func (pl *PriceLevel) reduceVolume(quantity uint64) {
	pl.Volume -= quantity
}

func (pl *PriceLevel) IsEmpty() bool {
	return pl.Orders.Len() == 0
}

// front returns the oldest order at this level, or nil if empty
func (pl *PriceLevel) front() *models.Order {
	element := pl.Orders.Front()
	if element == nil {
		return nil
	}
	return element.Value.(*models.Order)
}

func (pl *PriceLevel) Less(than btree.Item) bool {
	return pl.Price < than.(*PriceLevel).Price
}

// OrderBookSide is an ordered collection of price levels for one side of
// the book. Levels are kept in one price-ascending tree; the best level
// is the maximum for bids and the minimum for asks.
type OrderBookSide struct {
	tree *btree.BTree
}

func NewOrderBookSide() *OrderBookSide {
	return &OrderBookSide{
		tree: btree.New(32),
	}
}

func (obs *OrderBookSide) GetOrCreatePriceLevel(price int64) *PriceLevel {
	searchLevel := &PriceLevel{Price: price}

	if item := obs.tree.Get(searchLevel); item != nil {
		return item.(*PriceLevel)
	}

	newLevel := NewPriceLevel(price)
	obs.tree.ReplaceOrInsert(newLevel)
	return newLevel
}

// RemovePriceLevel removes a price level from the tree
func (obs *OrderBookSide) RemovePriceLevel(price int64) {
	obs.tree.Delete(&PriceLevel{Price: price})
}

// GetBestPrice returns the best price level (highest for bids, lowest for asks)
func (obs *OrderBookSide) GetBestPrice(isBid bool) *PriceLevel {
	var item btree.Item
	if isBid {
		item = obs.tree.Max()
	} else {
		item = obs.tree.Min()
	}

	if item != nil {
		return item.(*PriceLevel)
	}
	return nil
}

// Ascend iterates through price levels in ascending price order
func (obs *OrderBookSide) Ascend(iterator btree.ItemIterator) {
	obs.tree.Ascend(iterator)
}

// Descend iterates through price levels in descending price order
func (obs *OrderBookSide) Descend(iterator btree.ItemIterator) {
	obs.tree.Descend(iterator)
}

// Len returns the number of price levels
func (obs *OrderBookSide) Len() int {
	return obs.tree.Len()
}

// orderLocation tracks where a resting order sits so cancellation never
// scans a queue. It is a back-reference only; the price level's list owns
// the order.
type orderLocation struct {
	priceLevel *PriceLevel
	element    *list.Element
}

// OrderBook is the single-instrument matching core: both book sides, the
// id-to-location index, and the matching algorithm. It is synchronous and
// carries no internal locking; concurrent callers must serialize through
// an exclusive owner such as MatchingEngine.
type OrderBook struct {
	Bids   *OrderBookSide // buy side, best = highest price
	Asks   *OrderBookSide // sell side, best = lowest price
	orders map[uint64]*orderLocation
}

// NewOrderBook creates an empty order book
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids:   NewOrderBookSide(),
		Asks:   NewOrderBookSide(),
		orders: make(map[uint64]*orderLocation),
	}
}

func (ob *OrderBook) sideFor(side models.OrderSide) *OrderBookSide {
	if side == models.OrderSideBuy {
		return ob.Bids
	}
	return ob.Asks
}

// canMatch reports whether an order at the given side and price could
// trade against the current best opposite level.
func (ob *OrderBook) canMatch(side models.OrderSide, price int64) bool {
	if side == models.OrderSideBuy {
		bestAsk := ob.Asks.GetBestPrice(false)
		return bestAsk != nil && price >= bestAsk.Price
	}
	bestBid := ob.Bids.GetBestPrice(true)
	return bestBid != nil && price <= bestBid.Price
}

// AddOrder submits an order to the book and returns the trades produced
// by matching it. Benign rejections (duplicate id, invalid order, or a
// fill-and-kill that cannot trade at all) return (nil, nil) with no book
// mutation. A non-nil error means a matching invariant was breached.
//
// A fill-and-kill order is never left resting: any residual quantity
// after the match pass is cancelled before returning.
func (ob *OrderBook) AddOrder(order *models.Order) ([]Trade, error) {
	if order == nil || !order.IsValid() {
		if order != nil {
			order.Reject()
		}
		return nil, nil
	}

	if _, exists := ob.orders[order.ID]; exists {
		order.Reject()
		return nil, nil
	}

	if order.Type == models.OrderTypeFillAndKill && !ob.canMatch(order.Side, order.Price) {
		order.Reject()
		return nil, nil
	}

	priceLevel := ob.sideFor(order.Side).GetOrCreatePriceLevel(order.Price)
	element := priceLevel.AddOrder(order)
	ob.orders[order.ID] = &orderLocation{
		priceLevel: priceLevel,
		element:    element,
	}

	trades, err := ob.matchOrders()
	if err != nil {
		return nil, err
	}

	if order.Type == models.OrderTypeFillAndKill {
		ob.CancelOrder(order.ID)
	}

	return trades, nil
}

// CancelOrder removes a resting order in O(1). Cancelling an unknown or
// already-cancelled id is a no-op.
func (ob *OrderBook) CancelOrder(orderID uint64) {
	location, exists := ob.orders[orderID]
	if !exists {
		return
	}

	order := location.element.Value.(*models.Order)

	location.priceLevel.RemoveOrder(location.element)
	if location.priceLevel.IsEmpty() {
		ob.sideFor(order.Side).RemovePriceLevel(location.priceLevel.Price)
	}

	delete(ob.orders, orderID)
	order.Cancel()
}

// ModifyOrder replaces a resting order with new side, price, and quantity,
// preserving its id and order type. The replacement is a cancel followed
// by a fresh submission, so it joins the tail of its new price level and
// loses its former time priority. Unknown ids return (nil, nil).
func (ob *OrderBook) ModifyOrder(update models.OrderUpdate) ([]Trade, error) {
	location, exists := ob.orders[update.ID]
	if !exists {
		return nil, nil
	}

	existing := location.element.Value.(*models.Order)
	orderType := existing.Type

	ob.CancelOrder(update.ID)
	return ob.AddOrder(update.ToOrder(orderType))
}

// GetOrder returns the resting order with the given id, or nil
func (ob *OrderBook) GetOrder(orderID uint64) *models.Order {
	location, exists := ob.orders[orderID]
	if !exists {
		return nil
	}
	return location.element.Value.(*models.Order)
}

// Size returns the number of currently resting orders
func (ob *OrderBook) Size() int {
	return len(ob.orders)
}

// BestBid returns the best bid price, with ok=false on an empty side
func (ob *OrderBook) BestBid() (int64, bool) {
	level := ob.Bids.GetBestPrice(true)
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

// BestAsk returns the best ask price, with ok=false on an empty side
func (ob *OrderBook) BestAsk() (int64, bool) {
	level := ob.Asks.GetBestPrice(false)
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

// Depth returns the aggregate quantity at every price level on both
// sides, best-first. Read-only.
func (ob *OrderBook) Depth() BookDepth {
	depth := BookDepth{
		Bids: make([]LevelInfo, 0, ob.Bids.Len()),
		Asks: make([]LevelInfo, 0, ob.Asks.Len()),
	}

	ob.Bids.Descend(func(item btree.Item) bool {
		level := item.(*PriceLevel)
		depth.Bids = append(depth.Bids, LevelInfo{Price: level.Price, Quantity: level.Volume})
		return true
	})

	ob.Asks.Ascend(func(item btree.Item) bool {
		level := item.(*PriceLevel)
		depth.Asks = append(depth.Asks, LevelInfo{Price: level.Price, Quantity: level.Volume})
		return true
	})

	return depth
}

// matchOrders drains every cross from the book: while the best bid price
// reaches the best ask price, the oldest orders at those levels fill
// against each other for the minimum of their remaining quantities.
// Filled orders leave their queue and the index in the same step; emptied
// levels leave their side. Afterwards a fill-and-kill order left at the
// head of either best level is cancelled, since its remainder can no
// longer trade.
func (ob *OrderBook) matchOrders() ([]Trade, error) {
	var trades []Trade

	for {
		bidLevel := ob.Bids.GetBestPrice(true)
		askLevel := ob.Asks.GetBestPrice(false)
		if bidLevel == nil || askLevel == nil {
			break
		}
		if bidLevel.Price < askLevel.Price {
			break
		}

		for !bidLevel.IsEmpty() && !askLevel.IsEmpty() {
			bidElement := bidLevel.Orders.Front()
			askElement := askLevel.Orders.Front()
			bid := bidElement.Value.(*models.Order)
			ask := askElement.Value.(*models.Order)

			quantity := bid.RemainingQuantity()
			if ask.RemainingQuantity() < quantity {
				quantity = ask.RemainingQuantity()
			}

			if err := bid.Fill(quantity); err != nil {
				return nil, err
			}
			if err := ask.Fill(quantity); err != nil {
				return nil, err
			}
			bidLevel.reduceVolume(quantity)
			askLevel.reduceVolume(quantity)

			trades = append(trades, newTrade(
				TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
				TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
			))

			if bid.IsFilled() {
				bidLevel.Orders.Remove(bidElement)
				delete(ob.orders, bid.ID)
			}
			if ask.IsFilled() {
				askLevel.Orders.Remove(askElement)
				delete(ob.orders, ask.ID)
			}
		}

		if bidLevel.IsEmpty() {
			ob.Bids.RemovePriceLevel(bidLevel.Price)
		}
		if askLevel.IsEmpty() {
			ob.Asks.RemovePriceLevel(askLevel.Price)
		}
	}

	if bidLevel := ob.Bids.GetBestPrice(true); bidLevel != nil {
		if order := bidLevel.front(); order != nil && order.Type == models.OrderTypeFillAndKill {
			ob.CancelOrder(order.ID)
		}
	}
	if askLevel := ob.Asks.GetBestPrice(false); askLevel != nil {
		if order := askLevel.front(); order != nil && order.Type == models.OrderTypeFillAndKill {
			ob.CancelOrder(order.ID)
		}
	}

	return trades, nil
}
