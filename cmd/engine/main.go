package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Dishantydv7/OrderBook-implementation/cache"
	"github.com/Dishantydv7/OrderBook-implementation/engine"
	"github.com/Dishantydv7/OrderBook-implementation/eventsourcing"
	"github.com/Dishantydv7/OrderBook-implementation/logging"
	"github.com/Dishantydv7/OrderBook-implementation/marketdata"
	"github.com/Dishantydv7/OrderBook-implementation/persistence"
	"github.com/Dishantydv7/OrderBook-implementation/validation"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		// .env is optional; fall back to the process environment
		fmt.Fprintln(os.Stderr, "no .env file loaded, using process environment")
	}

	logger := logging.InitLogger()

	me := engine.NewMatchingEngine()

	journal := eventsourcing.NewMemoryJournal()
	me.SetCommandJournal(eventsourcing.NewRecorder(journal))

	tape := marketdata.NewTape(1000)
	tape.Attach(me)

	features := []string{"journal", "tape"}

	var retry *persistence.RetryQueue
	if os.Getenv("POSTGRES_HOST") != "" {
		db, err := persistence.Connect()
		if err != nil {
			logger.WithError(err).Warn("postgres unavailable, trades will not be persisted")
		} else {
			defer db.Close()
			if err := persistence.InitSchema(db); err != nil {
				logger.WithError(err).Fatal("failed to initialize database schema")
			}
			store := persistence.NewTradeStore(db)
			retry = persistence.NewRetryQueue(store, 1000, 5, 2*time.Second)
			retry.Start()
			defer retry.Stop()
			persistence.AttachStore(me, store, retry)
			features = append(features, "postgres")
		}
	}

	if os.Getenv("REDIS_HOST") != "" {
		redisCache, err := cache.NewRedisCache(cache.ConfigFromEnv())
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, market data will not be published")
		} else {
			defer redisCache.Close()
			instrument := envOr("INSTRUMENT", "DEFAULT")
			depthCache := cache.NewDepthCache(redisCache, 2*time.Second)
			cache.NewPublisher(redisCache, depthCache, instrument).Attach(me)
			features = append(features, "redis")
		}
	}

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("metrics listener failed")
			}
		}()
		features = append(features, "metrics")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := me.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start matching engine")
	}
	logging.LogEngineStarted(features)

	done := make(chan struct{})
	go commandLoop(me, tape, logger, done)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case <-done:
		logger.Info("input closed, shutting down")
	}

	if err := me.Stop(); err != nil {
		logger.WithError(err).Error("engine stop failed")
	}
}

// commandLoop reads line commands from stdin:
//
//	ADD <id> <buy|sell> <gtc|fak> <price> <quantity>
//	CANCEL <id>
//	MODIFY <id> <buy|sell> <price> <quantity>
//	DEPTH
//	SIZE
//	STATS
//	QUIT
func commandLoop(me *engine.MatchingEngine, tape *marketdata.Tape, logger *logrus.Logger, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb := strings.ToUpper(fields[0])

		switch verb {
		case "QUIT", "EXIT":
			return
		case "ADD":
			handleAdd(me, fields[1:])
		case "CANCEL":
			handleCancel(me, fields[1:])
		case "MODIFY":
			handleModify(me, fields[1:])
		case "DEPTH":
			handleDepth(me)
		case "SIZE":
			if size, err := me.Size(); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Printf("size: %d\n", size)
			}
		case "STATS":
			handleStats(me, tape)
		default:
			fmt.Printf("unknown command: %s\n", verb)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.WithError(err).Error("stdin read failed")
	}
}

func handleAdd(me *engine.MatchingEngine, args []string) {
	if len(args) != 5 {
		fmt.Println("usage: ADD <id> <buy|sell> <gtc|fak> <price> <quantity>")
		return
	}
	id, err1 := strconv.ParseUint(args[0], 10, 64)
	price, err2 := strconv.ParseInt(args[3], 10, 64)
	quantity, err3 := strconv.ParseUint(args[4], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("error: id, price and quantity must be integers")
		return
	}

	req := validation.OrderRequest{
		ID:       id,
		Side:     strings.ToLower(args[1]),
		Type:     expandType(args[2]),
		Price:    price,
		Quantity: quantity,
	}
	if err := req.Validate(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	resp, err := me.SubmitOrder(req.ToOrder())
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if resp.Order != nil {
		fmt.Printf("order %d: %s\n", resp.Order.ID, resp.Order.Status)
	}
	for _, trade := range resp.Trades {
		fmt.Printf("trade %s: buy %d @ %d, sell %d @ %d, qty %d\n",
			trade.ID, trade.Bid.OrderID, trade.Bid.Price, trade.Ask.OrderID, trade.Ask.Price, trade.Bid.Quantity)
	}
}

func handleCancel(me *engine.MatchingEngine, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: CANCEL <id>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Println("error: id must be an integer")
		return
	}
	if _, err := me.CancelOrder(id); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("cancel %d: ok\n", id)
}

func handleModify(me *engine.MatchingEngine, args []string) {
	if len(args) != 4 {
		fmt.Println("usage: MODIFY <id> <buy|sell> <price> <quantity>")
		return
	}
	id, err1 := strconv.ParseUint(args[0], 10, 64)
	price, err2 := strconv.ParseInt(args[2], 10, 64)
	quantity, err3 := strconv.ParseUint(args[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("error: id, price and quantity must be integers")
		return
	}

	req := validation.ModifyRequest{
		OrderID:  id,
		Side:     strings.ToLower(args[1]),
		Price:    price,
		Quantity: quantity,
	}
	if err := req.Validate(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	resp, err := me.ModifyOrder(req.ToUpdate())
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, trade := range resp.Trades {
		fmt.Printf("trade %s: buy %d @ %d, sell %d @ %d, qty %d\n",
			trade.ID, trade.Bid.OrderID, trade.Bid.Price, trade.Ask.OrderID, trade.Ask.Price, trade.Bid.Quantity)
	}
	fmt.Printf("modify %d: ok\n", id)
}

func handleDepth(me *engine.MatchingEngine) {
	depth, err := me.Depth()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("asks:")
	for i := len(depth.Asks) - 1; i >= 0; i-- {
		fmt.Printf("  %d x %d\n", depth.Asks[i].Price, depth.Asks[i].Quantity)
	}
	fmt.Println("bids:")
	for _, level := range depth.Bids {
		fmt.Printf("  %d x %d\n", level.Price, level.Quantity)
	}
}

func handleStats(me *engine.MatchingEngine, tape *marketdata.Tape) {
	engineStats, err := me.GetStats()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for key, value := range engineStats {
		fmt.Printf("%s: %v\n", key, value)
	}
	stats := tape.Stats()
	if stats.Trades > 0 {
		fmt.Printf("tape: %d trades, volume %d, high %d, low %d, last %d, vwap %s\n",
			stats.Trades, stats.Volume, stats.High, stats.Low, stats.Last, stats.VWAP.StringFixed(4))
	}
}

func expandType(raw string) string {
	switch strings.ToLower(raw) {
	case "gtc":
		return "good_till_cancel"
	case "fak":
		return "fill_and_kill"
	default:
		return strings.ToLower(raw)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
