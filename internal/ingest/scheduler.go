package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aihub/rag-go/internal/logger"
)

// Scheduler 周期驱动摄取流水线的定时器
//
// tick不重叠：上一个tick还在运行时，新的触发被跳过而不是排队。
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	metrics  *Metrics

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewScheduler 创建调度器
func NewScheduler(pipeline *Pipeline, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		pipeline: pipeline,
		interval: interval,
		metrics:  GetMetrics(),
	}
}

// Start 启动调度循环，立即执行首个tick
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.Trigger(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Trigger(ctx)
			}
		}
	}()

	logger.Info("Ingestion scheduler started", zap.Duration("interval", s.interval))
}

// Trigger 执行一次tick；上一个tick尚未结束时直接跳过
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("Previous ingestion tick still running, skipping trigger")
		s.metrics.TicksTotal.WithLabelValues("skipped").Inc()
		return false
	}
	defer s.running.Store(false)

	if _, err := s.pipeline.RunOnce(ctx); err != nil {
		logger.Error("Ingestion tick failed", zap.Error(err))
	}
	return true
}

// Stop 停止调度并等待进行中的tick结束
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.done != nil {
			<-s.done
		}
		logger.Info("Ingestion scheduler stopped")
	})
}
