package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/logging"
	"github.com/Dishantydv7/OrderBook-implementation/models"
)

// RetryQueue buffers failed store writes and retries them in the
// background with bounded attempts. Writes the queue gives up on are
// kept for inspection rather than silently dropped.
type RetryQueue struct {
	store         *TradeStore
	queue         chan *queuedWrite
	failedWrites  []*queuedWrite
	mu            sync.RWMutex
	maxRetries    int
	retryInterval time.Duration
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

type queuedWrite struct {
	trade      *engine.Trade
	eventType  OrderEventType
	order      *models.Order
	occurredAt time.Time
	attempts   int
	lastError  error
}

func NewRetryQueue(store *TradeStore, queueSize, maxRetries int, retryInterval time.Duration) *RetryQueue {
	return &RetryQueue{
		store:         store,
		queue:         make(chan *queuedWrite, queueSize),
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start starts the background retry worker
func (rq *RetryQueue) Start() {
	rq.mu.Lock()
	if rq.running {
		rq.mu.Unlock()
		return
	}
	rq.running = true
	rq.mu.Unlock()

	rq.wg.Add(1)
	go rq.processQueue()
}

// Stop stops the background retry worker
func (rq *RetryQueue) Stop() {
	rq.mu.Lock()
	if !rq.running {
		rq.mu.Unlock()
		return
	}
	rq.running = false
	rq.mu.Unlock()

	close(rq.stopCh)
	rq.wg.Wait()
}

// QueueTrade queues a failed trade write for retry
func (rq *RetryQueue) QueueTrade(trade engine.Trade, err error) {
	write := &queuedWrite{
		trade:     &trade,
		attempts:  1,
		lastError: err,
	}

	select {
	case rq.queue <- write:
		logging.LogStoreError("insert_trade", "trades", err)
	default:
		rq.recordFailed(write)
	}
}

// QueueOrderEvent queues a failed order-event write for retry
func (rq *RetryQueue) QueueOrderEvent(eventType OrderEventType, order *models.Order, occurredAt time.Time, err error) {
	write := &queuedWrite{
		eventType:  eventType,
		order:      order,
		occurredAt: occurredAt,
		attempts:   1,
		lastError:  err,
	}

	select {
	case rq.queue <- write:
		logging.LogStoreError("insert_order_event", "order_events", err)
	default:
		rq.recordFailed(write)
	}
}

// FailedWrites returns the writes the queue has given up on
func (rq *RetryQueue) FailedWrites() int {
	rq.mu.RLock()
	defer rq.mu.RUnlock()
	return len(rq.failedWrites)
}

// Pending returns the number of writes waiting for retry
func (rq *RetryQueue) Pending() int {
	return len(rq.queue)
}

func (rq *RetryQueue) recordFailed(write *queuedWrite) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.failedWrites = append(rq.failedWrites, write)
}

func (rq *RetryQueue) processQueue() {
	defer rq.wg.Done()

	for {
		select {
		case <-rq.stopCh:
			return

		case write := <-rq.queue:
			rq.retryWrite(write)
		}
	}
}

func (rq *RetryQueue) retryWrite(write *queuedWrite) {
	for write.attempts <= rq.maxRetries {
		select {
		case <-rq.stopCh:
			rq.recordFailed(write)
			return
		case <-time.After(rq.retryInterval):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		if write.trade != nil {
			err = rq.store.RecordTrade(ctx, *write.trade)
		} else {
			err = rq.store.RecordOrderEvent(ctx, write.eventType, write.order, write.occurredAt)
		}
		cancel()

		if err == nil {
			return
		}

		write.attempts++
		write.lastError = err
	}

	rq.recordFailed(write)
	logging.LogStoreError("retry_exhausted", "persistence", write.lastError)
}
