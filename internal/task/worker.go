package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool 工作协程池
type WorkerPool struct {
	workerCount int
	taskChan    chan *Task
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      *slog.Logger
}

// NewWorkerPool 创建工作协程池
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		taskChan:    make(chan *Task, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		logger:      slog.Default().With("component", "WorkerPool"),
	}
}

// Start 启动工作协程
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Info("Worker pool started", "workerCount", wp.workerCount)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case t := <-wp.taskChan:
			wp.execute(id, t)
		}
	}
}

func (wp *WorkerPool) execute(workerID int, t *Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Task panic",
				"workerId", workerID,
				"taskId", t.ID,
				"target", t.Target,
				"panic", r)
		}
	}()

	if err := t.Execute(wp.ctx); err != nil {
		wp.logger.Error("Task failed",
			"workerId", workerID,
			"taskId", t.ID,
			"target", t.Target,
			"error", err)
		return
	}

	wp.logger.Debug("Task done", "workerId", workerID, "taskId", t.ID)
}

// Submit 提交任务，通道满时阻塞直到有空位或协程池关闭
func (wp *WorkerPool) Submit(t *Task) {
	select {
	case wp.taskChan <- t:
	case <-wp.ctx.Done():
		wp.logger.Warn("Worker pool stopped, task dropped", "taskId", t.ID)
	}
}

// Stop 停止协程池，等待执行中的任务完成
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info("Worker pool stopped")
}
