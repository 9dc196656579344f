package console

import (
	"context"
	"errors"
	"time"
)

// Outcome 一次限时读取的结果标记
type Outcome int

const (
	// Answered 玩家在时限内给出了回应
	Answered Outcome = iota
	// TimedOut 内部计时器先到期，调用方应使用默认值
	TimedOut
	// Cancelled 外部取消信号触发，必须传递给调用方
	Cancelled
	// Failed 传输层出错，与两个取消源都无关
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Answered:
		return "answered"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Race 让外部取消信号与时长为 d 的内部计时器竞争，并在派生出的上下文中执行 fn
//
// 判定规则（只在这里实现一次）：
//   - fn 成功返回：Answered
//   - 外部 ctx 已结束：Cancelled，原样返回 fn 的错误；外部取消与计时器同时触发时外部优先
//   - 仅内部计时器到期：TimedOut，错误被吸收
//   - 其他错误：Failed
func Race[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, Outcome, error) {
	timerCtx, cancel := context.WithTimeoutCause(ctx, d, errResponseTimeout)
	defer cancel()

	value, err := fn(timerCtx)
	if err == nil {
		return value, Answered, nil
	}

	var zero T
	if ctx.Err() != nil {
		return zero, Cancelled, err
	}
	if errors.Is(context.Cause(timerCtx), errResponseTimeout) {
		return zero, TimedOut, nil
	}
	return zero, Failed, err
}
