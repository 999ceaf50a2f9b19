package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner 一次清理运行
type Runner interface {
	Run(ctx context.Context) int
}

// Scheduler 按固定间隔触发清理任务
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *zap.SugaredLogger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(runner Runner, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.Named("sweeper_scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start 启动后台调度，ctx 取消或调用 Stop 后退出
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Infof("启动过期清理调度，间隔 %s", s.interval)
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop 停止调度并等待正在进行的运行结束
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("正在停止过期清理调度...")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runner.Run(ctx)
		case <-ctx.Done():
			s.logger.Info("上下文已取消，调度退出。")
			return
		case <-s.stopChan:
			s.logger.Info("已停止过期清理调度。")
			return
		}
	}
}
