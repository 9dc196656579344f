package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sudooom.tablegame/internal/console"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxFrameSize = 4096
	sendBuffer   = 256
)

// NewUpgrader 创建 WebSocket 升级器
// 没有 Origin 头的请求（非浏览器客户端）总是放行，"*" 放行所有来源
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}

// Conn 一个 WebSocket 玩家连接
// 同时实现 console.Transport 与 game.PlayerHost
type Conn struct {
	id      string
	ws      *websocket.Conn
	console *console.Console
	logger  *slog.Logger

	send      chan []byte
	closeChan chan struct{}
	closeOnce sync.Once

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan string
}

// NewConn 包装已升级的连接并启动写循环，timeout 为玩家的默认响应时长
func NewConn(ws *websocket.Conn, timeout time.Duration) *Conn {
	c := &Conn{
		id:        uuid.NewString(),
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		closeChan: make(chan struct{}),
		pending:   make(map[uint64]chan string),
	}
	c.logger = slog.Default().With("component", "WSConn", "connId", c.id)
	c.console = console.New(c, timeout)
	go c.writeLoop()
	return c
}

// ID 连接 ID
func (c *Conn) ID() string {
	return c.id
}

// Console 玩家控制台
func (c *Conn) Console() *console.Console {
	return c.console
}

// Done 连接关闭后关闭
func (c *Conn) Done() <-chan struct{} {
	return c.closeChan
}

// Close 关闭连接，等待中的读取返回 console.ErrClosed
// 底层连接由写循环在发出关闭帧后释放
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
}

// Run 读循环，阻塞直到连接断开或 ctx 结束
func (c *Conn) Run(ctx context.Context) {
	defer c.Close()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.closeChan:
		}
	}()

	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Connection read failed", "error", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug("Dropped malformed frame", "error", err)
			continue
		}
		if f.T != FrameAnswer {
			c.logger.Debug("Dropped unexpected frame", "type", f.T)
			continue
		}
		c.deliver(f.ID, f.Text)
	}
}

// WriteMessage 实现 console.Transport，发送缓冲满时丢弃
func (c *Conn) WriteMessage(msg console.Message) {
	c.enqueue(Frame{T: FrameMessage, Kind: msg.Kind.String(), Text: msg.Text})
}

// ReadLine 实现 console.Transport
func (c *Conn) ReadLine(ctx context.Context, prompt string) (string, error) {
	return c.request(ctx, Frame{T: FramePrompt, Text: prompt})
}

// Choose 实现 console.Transport，答复按选项标签匹配
func (c *Conn) Choose(ctx context.Context, prompt string, options []console.Option) (console.Option, error) {
	label, err := c.request(ctx, Frame{T: FrameChoose, Text: prompt, Options: toOptions(options)})
	if err != nil {
		return console.Option{}, err
	}
	for _, o := range options {
		if o.Label == label {
			return o, nil
		}
	}
	return console.Option{Label: label}, nil
}

// request 发出带编号的请求并等待对应的答复
func (c *Conn) request(ctx context.Context, f Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.ID = c.nextID.Add(1)
	answer := make(chan string, 1)

	c.mu.Lock()
	c.pending[f.ID] = answer
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}()

	if !c.enqueue(f) {
		return "", console.ErrClosed
	}

	select {
	case text := <-answer:
		return text, nil
	case <-ctx.Done():
		c.enqueue(Frame{T: FrameCancel, ID: f.ID})
		return "", ctx.Err()
	case <-c.closeChan:
		return "", console.ErrClosed
	}
}

// deliver 把答复交给等待中的请求，过期或重复的答复被丢弃
func (c *Conn) deliver(id uint64, text string) {
	c.mu.Lock()
	answer, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("Dropped stale answer", "requestId", id)
		return
	}
	answer <- text
}

func (c *Conn) enqueue(f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("Failed to marshal frame", "error", err)
		return false
	}

	select {
	case <-c.closeChan:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.closeChan:
		return false
	default:
		c.logger.Warn("Send buffer full, frame dropped", "type", f.T)
		return false
	}
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("Failed to write frame", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.closeChan:
			c.flush()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
			if err := c.ws.WriteMessage(websocket.CloseMessage, msg); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("Failed to write close frame", "error", err)
			}
			return
		}
	}
}

// flush 关闭前尽量写出已排队的帧
func (c *Conn) flush() {
	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}
