package console

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout 未指定时长时等待玩家响应的默认时间
var DefaultTimeout = time.Minute

// Transport 具体传输层需要实现的控制台原语
//
// ReadLine 与 Choose 是仅有的两个挂起原语，其余带默认值、带超时的操作
// 都由 Console 在此基础上派生。实现必须可以被多个调用方并发调用。
type Transport interface {
	// WriteMessage 推送消息，不等待确认，也不向调用方报告失败
	WriteMessage(msg Message)

	// ReadLine 等待玩家输入一行文本，ctx 结束时返回错误
	ReadLine(ctx context.Context, prompt string) (string, error)

	// Choose 等待玩家从 options 中选择一项，ctx 结束时返回错误
	Choose(ctx context.Context, prompt string, options []Option) (Option, error)
}

// Console 玩家控制台
// 包装一个 Transport，提供带默认值与超时的派生操作
type Console struct {
	transport Transport
	timeout   time.Duration
}

// New 创建玩家控制台，timeout <= 0 时使用 DefaultTimeout
func New(transport Transport, timeout time.Duration) *Console {
	return &Console{
		transport: transport,
		timeout:   timeout,
	}
}

// Timeout 获取该控制台的默认响应时长
func (c *Console) Timeout() time.Duration {
	if c.timeout <= 0 {
		return DefaultTimeout
	}
	return c.timeout
}

// Transport 获取底层传输
func (c *Console) Transport() Transport {
	return c.transport
}

// WriteMessage 推送一条消息
func (c *Console) WriteMessage(msg Message) {
	c.transport.WriteMessage(msg)
}

// WriteInfo 推送普通信息
func (c *Console) WriteInfo(format string, args ...any) {
	c.write(KindInfo, format, args...)
}

// WriteSystemMessage 推送系统消息
func (c *Console) WriteSystemMessage(format string, args ...any) {
	c.write(KindSystem, format, args...)
}

// WriteWarningMessage 推送警告消息
func (c *Console) WriteWarningMessage(format string, args ...any) {
	c.write(KindWarning, format, args...)
}

// WriteAnnouncement 推送游戏公告
func (c *Console) WriteAnnouncement(format string, args ...any) {
	c.write(KindAnnouncement, format, args...)
}

func (c *Console) write(kind Kind, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	c.transport.WriteMessage(Message{Kind: kind, Text: text})
}

// ReadLine 读取一行输入，直到玩家响应或 ctx 结束
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	return c.transport.ReadLine(ctx, prompt)
}

// ReadLineDefault 在默认时长内读取一行输入，超时返回 defaultValue
func (c *Console) ReadLineDefault(ctx context.Context, prompt, defaultValue string) (string, error) {
	return c.ReadLineTimeout(ctx, prompt, defaultValue, c.Timeout())
}

// ReadLineTimeout 在时长 d 内读取一行输入，超时返回 defaultValue
// 外部 ctx 的取消总是以错误形式返回
func (c *Console) ReadLineTimeout(ctx context.Context, prompt, defaultValue string, d time.Duration) (string, error) {
	line, _, err := c.ReadLineOutcome(ctx, prompt, defaultValue, d)
	return line, err
}

// ReadLineOutcome 与 ReadLineTimeout 相同，额外返回结果标记，便于调用方区分是否超时
func (c *Console) ReadLineOutcome(ctx context.Context, prompt, defaultValue string, d time.Duration) (string, Outcome, error) {
	line, outcome, err := Race(ctx, d, func(ctx context.Context) (string, error) {
		return c.transport.ReadLine(ctx, prompt)
	})
	if outcome == TimedOut {
		return defaultValue, outcome, nil
	}
	return line, outcome, err
}

// Choose 让玩家在 options 中选择一项
func (c *Console) Choose(ctx context.Context, prompt string, options []Option) (Option, error) {
	if len(options) == 0 {
		return Option{}, ErrNoOptions
	}

	selected, err := c.transport.Choose(ctx, prompt, options)
	if err != nil {
		return Option{}, err
	}

	for _, o := range options {
		if o.Label == selected.Label {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("%w: %q", ErrUnknownOption, selected.Label)
}
