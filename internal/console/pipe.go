package console

import (
	"context"
	"sync"
)

// Pipe 内存中的传输实现
//
// 宿主一侧通过 Send 写入回答，通过 Messages / Prompted 观察输出。
// 用于本地对局、机器人以及测试。所有方法均可并发调用。
type Pipe struct {
	answers  chan string
	prompted chan string
	closed   chan struct{}
	once     sync.Once

	mu       sync.Mutex
	messages []Message
}

// NewPipe 创建内存传输，buffer 为可预先写入的回答数量
func NewPipe(buffer int) *Pipe {
	if buffer <= 0 {
		buffer = 16
	}
	return &Pipe{
		answers:  make(chan string, buffer),
		prompted: make(chan string, 256),
		closed:   make(chan struct{}),
	}
}

// Send 写入一条回答，管道已关闭时返回 ErrClosed
func (p *Pipe) Send(answer string) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.answers <- answer:
		return nil
	case <-p.closed:
		return ErrClosed
	}
}

// Prompted 每次开始等待输入时都会收到对应的提示文本
// 通道满时丢弃，不会阻塞读取方
func (p *Pipe) Prompted() <-chan string {
	return p.prompted
}

// Messages 返回已推送消息的副本
func (p *Pipe) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

// Close 关闭管道，等待中的读取返回 ErrClosed
func (p *Pipe) Close() {
	p.once.Do(func() {
		close(p.closed)
	})
}

// WriteMessage 实现 Transport
func (p *Pipe) WriteMessage(msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// ReadLine 实现 Transport
func (p *Pipe) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.WriteMessage(Message{Kind: KindPrompt, Text: prompt})
	return p.await(ctx, prompt)
}

// Choose 实现 Transport，回答按选项标签匹配
func (p *Pipe) Choose(ctx context.Context, prompt string, options []Option) (Option, error) {
	p.WriteMessage(Message{Kind: KindPrompt, Text: prompt})

	label, err := p.await(ctx, prompt)
	if err != nil {
		return Option{}, err
	}
	for _, o := range options {
		if o.Label == label {
			return o, nil
		}
	}
	return Option{Label: label}, nil
}

func (p *Pipe) await(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	select {
	case p.prompted <- prompt:
	default:
	}

	select {
	case answer := <-p.answers:
		return answer, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.closed:
		return "", ErrClosed
	}
}
