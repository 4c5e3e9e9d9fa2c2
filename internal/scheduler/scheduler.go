package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/osint-cli/internal/model"
)

// Runner executes one briefing pass for a standing order.
type Runner interface {
	Run(ctx context.Context, conversation []model.Turn) (*model.State, error)
}

// Scheduler runs standing orders on a fixed cadence. First runs are
// staggered so orders do not hit the providers at the same instant.
type Scheduler struct {
	runner   Runner
	orders   []Order
	interval time.Duration
	baseWait time.Duration
	stride   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler. Zero durations get sensible defaults.
func New(runner Runner, orders []Order, interval, baseWait, stride time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Hour
	}
	if baseWait <= 0 {
		baseWait = 10 * time.Second
	}
	if stride <= 0 {
		stride = 45 * time.Second
	}
	return &Scheduler{
		runner:   runner,
		orders:   orders,
		interval: interval,
		baseWait: baseWait,
		stride:   stride,
	}
}

// Start launches one trigger loop per order. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for i, order := range s.orders {
		s.wg.Add(1)
		go func(delay time.Duration, order Order) {
			defer s.wg.Done()
			s.runOrder(ctx, delay, order)
		}(s.baseWait+time.Duration(i)*s.stride, order)
	}

	zap.L().Info("scheduler started",
		zap.Int("orders", len(s.orders)),
		zap.Duration("interval", s.interval))
}

// Stop cancels all pending and future triggers and waits for the trigger
// loops to exit. In-flight runs are not waited on; they observe the
// canceled context and wind down on their own.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	zap.L().Info("scheduler stopped")
}

func (s *Scheduler) runOrder(ctx context.Context, delay time.Duration, order Order) {
	log := zap.L().With(zap.String("component", "scheduler"), zap.String("order", order.Name))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	go s.execute(ctx, order, log)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.execute(ctx, order, log)
		}
	}
}

// execute runs a single briefing pass. Failures are logged and the loop
// keeps its cadence; one broken order never affects the others.
func (s *Scheduler) execute(ctx context.Context, order Order, log *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	log.Info("running standing order")

	conversation := []model.Turn{{Role: model.RoleUser, Content: order.Query}}
	state, err := s.runner.Run(ctx, conversation)
	if err != nil {
		log.Error("standing order failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}

	log.Info("standing order complete",
		zap.String("topic", state.FinalTopic),
		zap.String("briefing_id", state.BriefingID),
		zap.Duration("elapsed", time.Since(start)))
}
