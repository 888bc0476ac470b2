package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dishantydv7/OrderBook-implementation/models"
)

func startEngine(t *testing.T) *MatchingEngine {
	t.Helper()
	me := NewMatchingEngine()
	if err := me.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		if me.IsRunning() {
			_ = me.Stop()
		}
	})
	return me
}

func TestEngineLifecycle(t *testing.T) {
	me := NewMatchingEngine()

	if me.IsRunning() {
		t.Error("Engine must not run before Start")
	}
	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 10)); err == nil {
		t.Error("SubmitOrder must fail before Start")
	}

	if err := me.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := me.Start(context.Background()); err == nil {
		t.Error("Second Start must fail")
	}

	if err := me.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := me.Stop(); err == nil {
		t.Error("Second Stop must fail")
	}
}

func TestEngineSubmitAndCancel(t *testing.T) {
	me := startEngine(t)

	response, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 100))
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if len(response.Trades) != 0 {
		t.Errorf("Expected no trades, got %d", len(response.Trades))
	}

	size, err := me.Size()
	if err != nil {
		t.Fatalf("Size returned error: %v", err)
	}
	if size != 1 {
		t.Errorf("Expected size 1, got %d", size)
	}

	if _, err := me.CancelOrder(1); err != nil {
		t.Fatalf("CancelOrder returned error: %v", err)
	}
	size, _ = me.Size()
	if size != 0 {
		t.Errorf("Expected size 0 after cancel, got %d", size)
	}
}

func TestEngineMatchesThroughWorker(t *testing.T) {
	me := startEngine(t)

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	response, err := me.SubmitOrder(gtc(2, models.OrderSideSell, 10, 40))
	if err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	if len(response.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(response.Trades))
	}
	if response.Trades[0].Bid.Quantity != 40 {
		t.Errorf("Expected quantity 40, got %d", response.Trades[0].Bid.Quantity)
	}

	depth, err := me.Depth()
	if err != nil {
		t.Fatalf("Depth returned error: %v", err)
	}
	if len(depth.Bids) != 1 || depth.Bids[0].Quantity != 60 {
		t.Errorf("Expected bid level of 60, got %+v", depth.Bids)
	}
}

func TestEngineModify(t *testing.T) {
	me := startEngine(t)

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	response, err := me.ModifyOrder(models.OrderUpdate{
		ID: 1, Side: models.OrderSideBuy, Price: 12, Quantity: 50,
	})
	if err != nil {
		t.Fatalf("ModifyOrder returned error: %v", err)
	}
	if len(response.Trades) != 0 {
		t.Errorf("Expected no trades, got %d", len(response.Trades))
	}

	depth, _ := me.Depth()
	if len(depth.Bids) != 1 || depth.Bids[0].Price != 12 || depth.Bids[0].Quantity != 50 {
		t.Errorf("Expected single bid level 12x50, got %+v", depth.Bids)
	}
}

func TestEngineTradeHandler(t *testing.T) {
	me := startEngine(t)

	var mu sync.Mutex
	var handled []Trade
	me.SetTradeHandler(func(trade Trade) {
		mu.Lock()
		handled = append(handled, trade)
		mu.Unlock()
	})

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if _, err := me.SubmitOrder(gtc(2, models.OrderSideSell, 10, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 {
		t.Fatalf("Expected trade handler called once, got %d", len(handled))
	}
	if handled[0].Bid.OrderID != 1 || handled[0].Ask.OrderID != 2 {
		t.Errorf("Unexpected trade parties: %+v", handled[0])
	}
}

func TestEngineEventBus(t *testing.T) {
	me := startEngine(t)

	events := make(chan Event, 8)
	me.SubscribeToEvents(EventTypeTradeExecuted, func(event Event) {
		events <- event
	})

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 25)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if _, err := me.SubmitOrder(gtc(2, models.OrderSideSell, 10, 25)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	select {
	case event := <-events:
		data, ok := event.Data.(TradeExecutedEvent)
		if !ok {
			t.Fatalf("Expected TradeExecutedEvent, got %T", event.Data)
		}
		if data.BuyOrderID != 1 || data.SellOrderID != 2 || data.Quantity != 25 {
			t.Errorf("Unexpected event data: %+v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for trade event")
	}
}

func TestEngineConcurrentSubmitters(t *testing.T) {
	me := startEngine(t)

	const submitters = 8
	const perSubmitter = 20

	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for j := uint64(0); j < perSubmitter; j++ {
				id := base*1000 + j + 1
				side := models.OrderSideBuy
				price := int64(10)
				if base%2 == 0 {
					side = models.OrderSideSell
					price = 20 // never crosses the bids at 10
				}
				if _, err := me.SubmitOrder(gtc(id, side, price, 1)); err != nil {
					t.Errorf("SubmitOrder(%d) returned error: %v", id, err)
					return
				}
			}
		}(uint64(i))
	}
	wg.Wait()

	size, err := me.Size()
	if err != nil {
		t.Fatalf("Size returned error: %v", err)
	}
	if size != submitters*perSubmitter {
		t.Errorf("Expected %d resting orders, got %d", submitters*perSubmitter, size)
	}
}

func TestEngineStatsSnapshot(t *testing.T) {
	me := startEngine(t)

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if _, err := me.SubmitOrder(gtc(2, models.OrderSideSell, 20, 100)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}

	stats, err := me.GetStats()
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}
	if stats["total_orders"] != 2 {
		t.Errorf("Expected total_orders 2, got %v", stats["total_orders"])
	}
	if stats["bid_levels"] != 1 || stats["ask_levels"] != 1 {
		t.Errorf("Expected one level per side, got %v/%v", stats["bid_levels"], stats["ask_levels"])
	}
	if stats["is_running"] != true {
		t.Errorf("Expected is_running true, got %v", stats["is_running"])
	}

	if err := me.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if _, err := me.GetStats(); err == nil {
		t.Error("GetStats must fail after Stop")
	}
}

func TestEngineStatsWhileOrdersFlow(t *testing.T) {
	me := startEngine(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint64(1); i <= 200; i++ {
			side := models.OrderSideBuy
			if i%2 == 0 {
				side = models.OrderSideSell
			}
			_, _ = me.SubmitOrder(gtc(i, side, 10, 1))
		}
	}()

	for i := 0; i < 50; i++ {
		if _, err := me.GetStats(); err != nil {
			t.Fatalf("GetStats returned error: %v", err)
		}
	}
	<-done
}

func TestEngineSubmitDuringStopNeverBlocks(t *testing.T) {
	me := startEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base uint64) {
			defer wg.Done()
			for j := uint64(0); j < 50; j++ {
				// errors are expected once the engine stops; the
				// guarantee under test is that the call returns
				_, _ = me.SubmitOrder(gtc(base*1000+j+1, models.OrderSideBuy, 10, 1))
			}
		}(uint64(i))
	}

	time.Sleep(time.Millisecond)
	if err := me.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Submitters still blocked after Stop")
	}
}

func TestEngineStopDrainsQueuedCommands(t *testing.T) {
	me := startEngine(t)

	if _, err := me.SubmitOrder(gtc(1, models.OrderSideBuy, 10, 10)); err != nil {
		t.Fatalf("SubmitOrder returned error: %v", err)
	}
	if err := me.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if me.IsRunning() {
		t.Error("Engine must report stopped")
	}
}
