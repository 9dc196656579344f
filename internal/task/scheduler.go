package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNotRunning 调度器未运行
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrAlreadyRunning 调度器已在运行
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrInvalidTask 任务为空或缺少 ID
	ErrInvalidTask = errors.New("invalid task")

	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("task not found")
)

// Scheduler 延迟任务调度器
// 时钟协程推进时间轮，到期任务交给工作协程池执行
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger

	running   bool
	runningMu sync.RWMutex
}

// NewScheduler 创建调度器，tick 为时间轮精度
func NewScheduler(workerCount int, tick time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(DefaultSlotCount, tick),
		workerPool: NewWorkerPool(workerCount),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "Scheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("Scheduler started", "tick", s.wheel.Tick())
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.wheel.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			for _, t := range s.wheel.Advance() {
				s.workerPool.Submit(t)
			}
		}
	}
}

// Stop 停止调度器，未到期的任务被丢弃
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.workerPool.Stop()

	s.logger.Info("Scheduler stopped", "pending", s.wheel.Count())
}

// AddTask 添加任务
func (s *Scheduler) AddTask(t *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrNotRunning
	}
	if t == nil || t.ID == "" {
		return ErrInvalidTask
	}

	s.wheel.AddTask(t)
	s.logger.Debug("Task added", "taskId", t.ID, "target", t.Target, "delay", t.Delay)
	return nil
}

// RemoveTask 删除任务
func (s *Scheduler) RemoveTask(id string) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrNotRunning
	}
	if !s.wheel.RemoveTask(id) {
		return ErrTaskNotFound
	}
	return nil
}

// IsRunning 是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

// Stats 统计信息
func (s *Scheduler) Stats() map[string]any {
	return map[string]any{
		"running":     s.IsRunning(),
		"currentSlot": s.wheel.Current(),
		"pending":     s.wheel.Count(),
		"workerCount": s.workerPool.workerCount,
	}
}
