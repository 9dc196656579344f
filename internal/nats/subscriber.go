package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// SessionCloser 按 ID 关闭对局
type SessionCloser interface {
	Remove(id string)
}

// CloseRequest 关闭对局的控制消息
type CloseRequest struct {
	SessionID string `json:"sessionId"`
}

// ControlSubscriber 订阅控制主题，处理运维侧发来的关闭对局请求
type ControlSubscriber struct {
	nc       *nats.Conn
	closer   SessionCloser
	subjects Subjects
	sub      *nats.Subscription
	logger   *slog.Logger
}

// NewControlSubscriber 创建控制消息订阅器
func NewControlSubscriber(nc *nats.Conn, closer SessionCloser, prefix string) *ControlSubscriber {
	return &ControlSubscriber{
		nc:       nc,
		closer:   closer,
		subjects: Subjects{Prefix: prefix},
		logger:   slog.Default().With("component", "ControlSubscriber"),
	}
}

// Start 开始订阅
func (s *ControlSubscriber) Start() error {
	subject := s.subjects.CloseSession()
	// 每个实例都订阅，只有持有该对局的实例会真正关闭它
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		s.handle(msg.Data)
	})
	if err != nil {
		return err
	}

	s.sub = sub
	s.logger.Info("NATS control subscriber started", "subject", subject)
	return nil
}

// Stop 取消订阅
func (s *ControlSubscriber) Stop() {
	if s.sub == nil {
		return
	}
	if err := s.sub.Unsubscribe(); err != nil {
		s.logger.Warn("Unsubscribe failed", "error", err)
	}
}

func (s *ControlSubscriber) handle(data []byte) {
	var req CloseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("Invalid close request", "error", err)
		return
	}
	if req.SessionID == "" {
		s.logger.Warn("Close request without session id")
		return
	}

	s.logger.Info("Closing session by control request", "sessionId", req.SessionID)
	s.closer.Remove(req.SessionID)
}
