package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

type ErrorRateLimiter struct {
	mu          sync.Mutex
	errorCounts map[string]*errorEntry
}

type errorEntry struct {
	count      int
	firstSeen  time.Time
	lastLogged time.Time
	suppressed int
}

var (
	rateLimiter     *ErrorRateLimiter
	rateLimitWindow = 1 * time.Minute
	maxErrorsPerMin = 5
)

func NewErrorRateLimiter() *ErrorRateLimiter {
	return &ErrorRateLimiter{
		errorCounts: make(map[string]*errorEntry),
	}
}

func (rl *ErrorRateLimiter) ShouldLog(errorKey string) (shouldLog bool, suppressedCount int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.errorCounts[errorKey]

	if !exists {
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, 0
	}

	if now.Sub(entry.firstSeen) > rateLimitWindow {
		suppressedCount = entry.suppressed
		rl.errorCounts[errorKey] = &errorEntry{
			count:      1,
			firstSeen:  now,
			lastLogged: now,
		}
		return true, suppressedCount
	}

	entry.count++

	if entry.count <= maxErrorsPerMin {
		entry.lastLogged = now
		return true, 0
	}

	entry.suppressed++
	return false, 0
}

// InitLogger initializes the structured logger with JSON format
func InitLogger() *logrus.Logger {
	log = logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	rateLimiter = NewErrorRateLimiter()

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if log == nil {
		return InitLogger()
	}
	return log
}

// Event types as constants
const (
	EventOrderAccepted   = "order_accepted"
	EventOrderRejected   = "order_rejected"
	EventOrderCancelled  = "order_cancelled"
	EventOrderReplaced   = "order_replaced"
	EventTradeExecuted   = "trade_executed"
	EventStoreError      = "store_error"
	EventEngineStarted   = "engine_started"
	EventEngineStopped   = "engine_stopped"
	EventReplayStarted   = "replay_started"
	EventReplayCompleted = "replay_completed"
)

// LogOrderAccepted logs an order accepted onto the book
func LogOrderAccepted(orderID uint64, side, orderType string, price int64, quantity uint64) {
	GetLogger().WithFields(logrus.Fields{
		"event":    EventOrderAccepted,
		"order_id": orderID,
		"side":     side,
		"type":     orderType,
		"price":    price,
		"quantity": quantity,
	}).Info("Order accepted")
}

// LogOrderRejected logs an order rejected before insertion
func LogOrderRejected(orderID uint64, side, orderType, reason string) {
	GetLogger().WithFields(logrus.Fields{
		"event":    EventOrderRejected,
		"order_id": orderID,
		"side":     side,
		"type":     orderType,
		"reason":   reason,
	}).Warn("Order rejected")
}

// LogOrderCancelled logs an order removed by cancellation
func LogOrderCancelled(orderID uint64, reason string) {
	GetLogger().WithFields(logrus.Fields{
		"event":    EventOrderCancelled,
		"order_id": orderID,
		"reason":   reason,
	}).Info("Order cancelled")
}

// LogTradeExecuted logs one execution
func LogTradeExecuted(tradeID string, buyOrderID, sellOrderID uint64, buyPrice, sellPrice int64, quantity uint64) {
	GetLogger().WithFields(logrus.Fields{
		"event":         EventTradeExecuted,
		"trade_id":      tradeID,
		"buy_order_id":  buyOrderID,
		"sell_order_id": sellOrderID,
		"buy_price":     buyPrice,
		"sell_price":    sellPrice,
		"quantity":      quantity,
	}).Info("Trade executed")
}

// LogStoreError logs store write failures with rate limiting so a dead
// backend does not flood the log
func LogStoreError(operation, target string, err error) {
	if rateLimiter == nil {
		rateLimiter = NewErrorRateLimiter()
	}

	errorKey := fmt.Sprintf("%s:%s:%s", operation, target, err.Error())
	shouldLog, suppressedCount := rateLimiter.ShouldLog(errorKey)
	if !shouldLog {
		return
	}

	fields := logrus.Fields{
		"event":     EventStoreError,
		"operation": operation,
		"target":    target,
		"error":     err.Error(),
	}
	if suppressedCount > 0 {
		fields["suppressed_count"] = suppressedCount
	}

	GetLogger().WithFields(fields).Error("Store error")
}

// LogEngineStarted logs engine startup with its enabled collaborators
func LogEngineStarted(features interface{}) {
	GetLogger().WithFields(logrus.Fields{
		"event":    EventEngineStarted,
		"features": features,
	}).Info("Matching engine started")
}

// LogEngineStopped logs engine shutdown
func LogEngineStopped() {
	GetLogger().WithFields(logrus.Fields{
		"event": EventEngineStopped,
	}).Info("Matching engine stopped")
}

// LogReplay logs journal replay progress
func LogReplay(event string, entriesApplied int, duration time.Duration) {
	GetLogger().WithFields(logrus.Fields{
		"event":           event,
		"entries_applied": entriesApplied,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Replay event")
}
