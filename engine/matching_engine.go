package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/logging"
	"github.com/Dishantydv7/OrderBook-implementation/metrics"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

type commandType string

const (
	commandNew    commandType = "NEW"
	commandCancel commandType = "CANCEL"
	commandModify commandType = "MODIFY"
	commandDepth  commandType = "DEPTH"
	commandSize   commandType = "SIZE"
	commandStats  commandType = "STATS"
)

// OrderCommand represents a command to the matching engine
type OrderCommand struct {
	Type     commandType
	Order    *models.Order      // for NEW commands
	OrderID  uint64             // for CANCEL commands
	Update   models.OrderUpdate // for MODIFY commands
	Response chan *CommandResponse
}

// CommandResponse represents the result of processing a command
type CommandResponse struct {
	Trades []Trade
	Error  error
	Order  *models.Order
	Depth  *BookDepth
	Size   int
	Stats  map[string]interface{}
}

// CommandJournal records accepted commands. It is invoked synchronously
// by the worker goroutine, so recorded order matches processing order
// and a replay of the journal reproduces the book exactly.
type CommandJournal interface {
	RecordSubmit(order *models.Order)
	RecordCancel(orderID uint64)
	RecordModify(update models.OrderUpdate)
}

// MatchingEngine serializes all access to an OrderBook through a single
// worker goroutine. The book itself carries no locks; the worker is the
// only goroutine that ever touches it, so commands observe the book
// atomically and in submission order.
type MatchingEngine struct {
	orderBook   *OrderBook
	commandChan chan *OrderCommand
	stopChan    chan struct{}
	workerDone  chan struct{}
	wg          sync.WaitGroup
	isRunning   bool
	mu          sync.RWMutex

	tradeHandler func(Trade)
	eventBus     *EventBus
	journal      CommandJournal

	// worker-only, no lock needed
	commandsProcessed uint64
}

func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{
		orderBook:   NewOrderBook(),
		commandChan: make(chan *OrderCommand, 1000),
		stopChan:    make(chan struct{}),
		workerDone:  make(chan struct{}),
		eventBus:    NewEventBus(),
	}
}

// SetTradeHandler registers a callback invoked synchronously, in
// execution order, for every trade the engine produces.
func (me *MatchingEngine) SetTradeHandler(handler func(Trade)) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.tradeHandler = handler
}

// SetCommandJournal registers a journal for accepted commands. Must be
// called before Start.
func (me *MatchingEngine) SetCommandJournal(journal CommandJournal) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.journal = journal
}

func (me *MatchingEngine) GetEventBus() *EventBus {
	return me.eventBus
}

func (me *MatchingEngine) SubscribeToEvents(eventType EventType, listener EventListener) {
	me.eventBus.Subscribe(eventType, listener)
}

// Start begins the single-threaded matching worker
func (me *MatchingEngine) Start(ctx context.Context) error {
	me.mu.Lock()
	if me.isRunning {
		me.mu.Unlock()
		return fmt.Errorf("matching engine is already running")
	}
	me.isRunning = true
	me.mu.Unlock()

	me.wg.Add(1)
	go me.matchingWorker(ctx)

	return nil
}

// Stop shuts the worker down after draining queued commands
func (me *MatchingEngine) Stop() error {
	me.mu.Lock()
	if !me.isRunning {
		me.mu.Unlock()
		return fmt.Errorf("matching engine is not running")
	}
	me.mu.Unlock()

	close(me.stopChan)
	me.wg.Wait()

	me.mu.Lock()
	me.isRunning = false
	me.mu.Unlock()

	logging.LogEngineStopped()

	return nil
}

// IsRunning returns whether the matching engine is currently running
func (me *MatchingEngine) IsRunning() bool {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.isRunning
}

// matchingWorker is the only goroutine that ever touches the order book
func (me *MatchingEngine) matchingWorker(ctx context.Context) {
	defer me.wg.Done()
	defer close(me.workerDone)

	for {
		select {
		case <-ctx.Done():
			me.drainCommands()
			return

		case <-me.stopChan:
			me.drainCommands()
			return

		case cmd := <-me.commandChan:
			me.processCommand(cmd)
		}
	}
}

// drainCommands processes any remaining commands before stopping
func (me *MatchingEngine) drainCommands() {
	for {
		select {
		case cmd := <-me.commandChan:
			me.processCommand(cmd)
		default:
			return
		}
	}
}

// processCommand handles a single command (only called by matchingWorker)
func (me *MatchingEngine) processCommand(cmd *OrderCommand) {
	me.commandsProcessed++

	var response *CommandResponse

	switch cmd.Type {
	case commandNew:
		response = me.processNewOrder(cmd.Order)

	case commandCancel:
		response = me.processCancel(cmd.OrderID)

	case commandModify:
		response = me.processModify(cmd.Update)

	case commandDepth:
		depth := me.orderBook.Depth()
		response = &CommandResponse{Depth: &depth}

	case commandSize:
		response = &CommandResponse{Size: me.orderBook.Size()}

	case commandStats:
		response = &CommandResponse{Stats: me.statsSnapshot()}

	default:
		response = &CommandResponse{
			Error: fmt.Errorf("unknown command type: %s", cmd.Type),
		}
	}

	if cmd.Response != nil {
		cmd.Response <- response
		close(cmd.Response)
	}
}

func (me *MatchingEngine) processNewOrder(order *models.Order) *CommandResponse {
	start := time.Now()
	trades, err := me.orderBook.AddOrder(order)
	metrics.MatchLatencySeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		return &CommandResponse{Error: err, Order: order}
	}

	if order.Status == models.OrderStatusRejected {
		reason := rejectReason(order, me.orderBook)
		logging.LogOrderRejected(order.ID, string(order.Side), string(order.Type), reason)
		metrics.RecordOrderRejected(reason)
		me.publishOrderEvent(EventTypeOrderRejected, order)
	} else {
		if me.journal != nil {
			me.journal.RecordSubmit(order)
		}
		logging.LogOrderAccepted(order.ID, string(order.Side), string(order.Type), order.Price, order.Quantity)
		metrics.RecordOrderAccepted(string(order.Side), string(order.Type))
		me.publishOrderEvent(EventTypeOrderAccepted, order)
	}

	me.emitTrades(trades)
	me.refreshBookMetrics()
	if order.Status != models.OrderStatusRejected {
		me.publishDepthChange()
	}

	return &CommandResponse{Trades: trades, Order: order}
}

func (me *MatchingEngine) processCancel(orderID uint64) *CommandResponse {
	order := me.orderBook.GetOrder(orderID)
	me.orderBook.CancelOrder(orderID)

	if order != nil {
		if me.journal != nil {
			me.journal.RecordCancel(orderID)
		}
		logging.LogOrderCancelled(orderID, "user_cancel")
		metrics.OrdersCancelledTotal.Inc()
		me.publishOrderEvent(EventTypeOrderCancelled, order)
		me.refreshBookMetrics()
		me.publishDepthChange()
	}

	return &CommandResponse{Order: order}
}

func (me *MatchingEngine) processModify(update models.OrderUpdate) *CommandResponse {
	existed := me.orderBook.GetOrder(update.ID) != nil

	trades, err := me.orderBook.ModifyOrder(update)
	if err != nil {
		return &CommandResponse{Error: err}
	}

	if existed && me.journal != nil {
		me.journal.RecordModify(update)
	}
	if order := me.orderBook.GetOrder(update.ID); order != nil {
		me.publishOrderEvent(EventTypeOrderReplaced, order)
	}

	me.emitTrades(trades)
	me.refreshBookMetrics()
	if existed {
		me.publishDepthChange()
	}

	return &CommandResponse{Trades: trades}
}

func (me *MatchingEngine) emitTrades(trades []Trade) {
	me.mu.RLock()
	handler := me.tradeHandler
	me.mu.RUnlock()

	for _, trade := range trades {
		logging.LogTradeExecuted(trade.ID.String(), trade.Bid.OrderID, trade.Ask.OrderID,
			trade.Bid.Price, trade.Ask.Price, trade.Bid.Quantity)
		metrics.RecordTrade(trade.Bid.Quantity)

		if handler != nil {
			handler(trade)
		}

		me.eventBus.Publish(Event{
			Type:      EventTypeTradeExecuted,
			Timestamp: time.Now(),
			Data: TradeExecutedEvent{
				TradeID:     trade.ID,
				BuyOrderID:  trade.Bid.OrderID,
				SellOrderID: trade.Ask.OrderID,
				BuyPrice:    trade.Bid.Price,
				SellPrice:   trade.Ask.Price,
				Quantity:    trade.Bid.Quantity,
				Timestamp:   trade.Timestamp,
			},
		})
	}
}

func (me *MatchingEngine) publishOrderEvent(eventType EventType, order *models.Order) {
	me.eventBus.Publish(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      orderEventFrom(order),
	})
}

func (me *MatchingEngine) refreshBookMetrics() {
	bestBid, haveBid := me.orderBook.BestBid()
	bestAsk, haveAsk := me.orderBook.BestAsk()
	metrics.UpdateBookGauges(
		me.orderBook.Size(),
		me.orderBook.Bids.Len(),
		me.orderBook.Asks.Len(),
		bestBid, bestAsk, haveBid, haveAsk,
	)
}

// publishDepthChange announces that the book changed shape, carrying the
// new top of book so subscribers need not query the engine.
func (me *MatchingEngine) publishDepthChange() {
	bestBid, haveBid := me.orderBook.BestBid()
	bestAsk, haveAsk := me.orderBook.BestAsk()
	me.eventBus.Publish(Event{
		Type:      EventTypeDepthChange,
		Timestamp: time.Now(),
		Data: DepthChangeEvent{
			BestBid:   bestBid,
			BestAsk:   bestAsk,
			HaveBid:   haveBid,
			HaveAsk:   haveAsk,
			Timestamp: time.Now(),
		},
	})
}

// statsSnapshot is built on the worker goroutine so the book reads are
// serialized with mutations.
func (me *MatchingEngine) statsSnapshot() map[string]interface{} {
	return map[string]interface{}{
		"is_running":         true,
		"total_orders":       me.orderBook.Size(),
		"command_backlog":    len(me.commandChan),
		"command_capacity":   cap(me.commandChan),
		"bid_levels":         me.orderBook.Bids.Len(),
		"ask_levels":         me.orderBook.Asks.Len(),
		"commands_processed": me.commandsProcessed,
	}
}

func rejectReason(order *models.Order, book *OrderBook) string {
	if !order.IsValid() {
		return "invalid"
	}
	if book.GetOrder(order.ID) != nil {
		return "duplicate_id"
	}
	return "cannot_match"
}

// submit posts a command to the worker and waits for its response
func (me *MatchingEngine) submit(cmd *OrderCommand) (*CommandResponse, error) {
	me.mu.RLock()
	if !me.isRunning {
		me.mu.RUnlock()
		return nil, fmt.Errorf("matching engine is not running")
	}
	me.mu.RUnlock()

	cmd.Response = make(chan *CommandResponse, 1)

	select {
	case me.commandChan <- cmd:
	default:
		return nil, fmt.Errorf("command channel is full")
	}

	// The worker may have drained and exited between the isRunning check
	// and the send above; never wait on a response nobody will write.
	select {
	case response := <-cmd.Response:
		return response, response.Error
	case <-me.workerDone:
		select {
		case response := <-cmd.Response:
			return response, response.Error
		default:
			return nil, fmt.Errorf("matching engine is not running")
		}
	}
}

// SubmitOrder submits a new order and returns the trades it produced.
// Thread-safe: it only posts a message to the worker.
func (me *MatchingEngine) SubmitOrder(order *models.Order) (*CommandResponse, error) {
	return me.submit(&OrderCommand{Type: commandNew, Order: order})
}

// CancelOrder cancels a resting order by id. Unknown ids are a no-op.
func (me *MatchingEngine) CancelOrder(orderID uint64) (*CommandResponse, error) {
	return me.submit(&OrderCommand{Type: commandCancel, OrderID: orderID})
}

// ModifyOrder cancels and resubmits a resting order with new parameters
func (me *MatchingEngine) ModifyOrder(update models.OrderUpdate) (*CommandResponse, error) {
	return me.submit(&OrderCommand{Type: commandModify, Update: update})
}

// Depth returns a consistent snapshot of both sides of the book
func (me *MatchingEngine) Depth() (BookDepth, error) {
	response, err := me.submit(&OrderCommand{Type: commandDepth})
	if err != nil {
		return BookDepth{}, err
	}
	return *response.Depth, nil
}

// Size returns the number of currently resting orders
func (me *MatchingEngine) Size() (int, error) {
	response, err := me.submit(&OrderCommand{Type: commandSize})
	if err != nil {
		return 0, err
	}
	return response.Size, nil
}

// GetStats reports worker and book state for diagnostics. The snapshot
// is taken on the worker so it is consistent with in-flight commands.
func (me *MatchingEngine) GetStats() (map[string]interface{}, error) {
	response, err := me.submit(&OrderCommand{Type: commandStats})
	if err != nil {
		return nil, err
	}
	return response.Stats, nil
}
