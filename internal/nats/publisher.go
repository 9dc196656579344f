package nats

import (
	"encoding/json"
	"log/slog"

	"sudooom.tablegame/internal/game"
)

// Publisher 发布能力，*nats.Conn 实现该接口
type Publisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher 将对局事件发布到 NATS
// 作为 game.Observer 注册，发布失败只记录日志，不影响对局
type EventPublisher struct {
	pub      Publisher
	subjects Subjects
	logger   *slog.Logger
}

// NewEventPublisher 创建对局事件发布器
func NewEventPublisher(pub Publisher, prefix string) *EventPublisher {
	return &EventPublisher{
		pub:      pub,
		subjects: Subjects{Prefix: prefix},
		logger:   slog.Default().With("component", "EventPublisher"),
	}
}

// OnEvent 实现 game.Observer
func (p *EventPublisher) OnEvent(e game.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to marshal event", "sessionId", e.SessionID, "type", e.Type, "error", err)
		return
	}

	subject := p.subjects.SessionEvents(e.SessionID)
	if err := p.pub.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", "subject", subject, "type", e.Type, "error", err)
		return
	}

	p.logger.Debug("Published event", "subject", subject, "type", e.Type)
}
