package console

import (
	"context"
	"fmt"
	"time"
)

// Pair 带值的选项：Label 展示给玩家，Value 返回给调用方
type Pair[T any] struct {
	Label string
	Value T
}

// NewPair 创建选项
func NewPair[T any](label string, value T) Pair[T] {
	return Pair[T]{Label: label, Value: value}
}

// ChooseValue 让玩家在 pairs 中选择，返回所选标签对应的值
func ChooseValue[T any](ctx context.Context, c *Console, prompt string, pairs []Pair[T]) (T, error) {
	var zero T

	values := make(map[string]T, len(pairs))
	options := make([]Option, 0, len(pairs))
	for _, p := range pairs {
		if _, exists := values[p.Label]; exists {
			return zero, fmt.Errorf("%w: %q", ErrDuplicateLabel, p.Label)
		}
		values[p.Label] = p.Value
		options = append(options, Option{Label: p.Label})
	}

	selected, err := c.Choose(ctx, prompt, options)
	if err != nil {
		return zero, err
	}
	return values[selected.Label], nil
}

// ChooseValueDefault 在控制台默认时长内选择，超时返回 defaultValue
func ChooseValueDefault[T any](ctx context.Context, c *Console, prompt string, pairs []Pair[T], defaultValue T) (T, error) {
	return ChooseValueTimeout(ctx, c, prompt, pairs, defaultValue, c.Timeout())
}

// ChooseValueTimeout 在时长 d 内选择，超时返回 defaultValue，外部取消返回错误
func ChooseValueTimeout[T any](ctx context.Context, c *Console, prompt string, pairs []Pair[T], defaultValue T, d time.Duration) (T, error) {
	value, outcome, err := Race(ctx, d, func(ctx context.Context) (T, error) {
		return ChooseValue(ctx, c, prompt, pairs)
	})
	if outcome == TimedOut {
		return defaultValue, nil
	}
	return value, err
}
