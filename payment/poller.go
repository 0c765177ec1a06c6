package payment

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Haoran-716/MallSphere/models"
	"github.com/Haoran-716/MallSphere/utils"
	"gorm.io/gorm"
)

// TradeQuerier is the slice of the gateway client the poller needs.
type TradeQuerier interface {
	QueryTrade(ctx context.Context, orderNo string) (*TradeQueryResult, error)
}

// Poller periodically re-queries recent Alipay orders as a backstop for
// webhooks that were missed, delayed or failed verification. It owns its
// timer: Start begins the schedule (with an immediate first run) and Stop
// halts it, letting an in-flight batch finish.
type Poller struct {
	db      *gorm.DB
	gateway TradeQuerier
	engine  *Engine

	interval time.Duration
	window   time.Duration
	batch    int

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewPoller(db *gorm.DB, gateway TradeQuerier, engine *Engine, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Poller{
		db:       db,
		gateway:  gateway,
		engine:   engine,
		interval: interval,
		window:   24 * time.Hour,
		batch:    100,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the schedule. Safe to call once; subsequent calls are
// no-ops.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.run()
	})
}

// Stop halts the schedule and waits for the current batch to complete.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	if p.started.Load() {
		<-p.done
	}
}

func (p *Poller) run() {
	defer close(p.done)

	utils.LogInfo("Order reconciliation poller started (interval %v)", p.interval)
	p.RunOnce(context.Background())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.RunOnce(context.Background())
		case <-p.stop:
			utils.LogInfo("Order reconciliation poller stopped")
			return
		}
	}
}

// RunOnce reconciles one batch: Alipay-channel orders created inside the
// trailing window, newest first, bounded so one tick cannot fan out an
// unbounded number of gateway calls. Per-order failures are logged and do
// not abort the rest of the batch. Returns the number of orders whose
// status changed.
func (p *Poller) RunOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-p.window)

	var orders []models.Order
	err := p.db.
		Where("created_at > ? AND pay_channel = ?", cutoff, models.PayChannelAlipay).
		Order("created_at DESC").
		Limit(p.batch).
		Find(&orders).Error
	if err != nil {
		utils.LogError("Poller: failed to select orders: %v", err)
		return 0
	}

	utils.LogInfo("Poller: checking %d orders", len(orders))

	updated := 0
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return updated
		default:
		}

		result, err := p.gateway.QueryTrade(ctx, order.OrderNo)
		if err != nil {
			// Timeout or transport failure: status unknown, leave the
			// order alone and move on.
			utils.LogError("Poller: trade query for %s failed: %v", order.OrderNo, err)
			continue
		}
		if !result.Definitive {
			utils.LogDebug("Poller: no definitive status for %s (code %s)", order.OrderNo, result.Code)
			continue
		}

		outcome, err := p.engine.Apply(order.OrderNo, result.TradeStatus, Notice{
			TradeNo: result.TradeNo,
			PaidAt:  result.PaidAt,
		})
		if err != nil {
			utils.LogError("Poller: reconciliation of %s failed: %v", order.OrderNo, err)
			continue
		}
		if outcome.Changed {
			updated++
			utils.LogInfo("Poller: order %s %s -> %s", order.OrderNo,
				models.OrderStatusText(outcome.PreviousStatus), models.OrderStatusText(outcome.Status))
		}
	}

	utils.LogInfo("Poller: batch complete, %d orders updated", updated)
	return updated
}
