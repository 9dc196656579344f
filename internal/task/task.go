package task

import (
	"context"
	"time"
)

// Func 任务执行函数，target 为任务作用对象（例如对局 ID）
type Func func(ctx context.Context, target string) error

// Task 延迟任务
type Task struct {
	ID        string        `json:"id"`        // 任务唯一 ID，同一 ID 重复添加会覆盖
	Target    string        `json:"target"`    // 操作对象标识
	Delay     time.Duration `json:"delay"`     // 延迟时长
	Fn        Func          `json:"-"`         // 执行函数
	CreatedAt time.Time     `json:"createdAt"` // 创建时间

	rounds int // 时间轮还需转过的圈数
}

// NewTask 创建任务
func NewTask(id, target string, delay time.Duration, fn Func) *Task {
	return &Task{
		ID:        id,
		Target:    target,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Target)
}
