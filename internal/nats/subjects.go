package nats

import "strings"

// Subjects 主题命名
type Subjects struct {
	Prefix string
}

func (s Subjects) prefix() string {
	if p := strings.TrimSuffix(s.Prefix, "."); p != "" {
		return p
	}
	return "tablegame"
}

// SessionEvents 对局事件主题：<prefix>.session.<id>.events
func (s Subjects) SessionEvents(sessionID string) string {
	return s.prefix() + ".session." + sessionID + ".events"
}

// AllSessionEvents 订阅所有对局事件的通配主题
func (s Subjects) AllSessionEvents() string {
	return s.prefix() + ".session.*.events"
}

// CloseSession 关闭对局的控制主题
func (s Subjects) CloseSession() string {
	return s.prefix() + ".control.close"
}
