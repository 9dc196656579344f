package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// Status 健康状态
type Status struct {
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Sessions int    `json:"sessions"`
}

// Healthy 已启用的依赖全部连通
func (s *Status) Healthy() bool {
	return s.NATS != StatusDisconnected && s.Redis != StatusDisconnected
}

// Connection NATS 连接状态
type Connection interface {
	IsConnected() bool
}

// Pinger Redis 连通性检查
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Counter 对局计数
type Counter interface {
	Count() int
}

// Checker 健康检查器，未启用的依赖传 nil
type Checker struct {
	nc       Connection
	redis    Pinger
	sessions Counter
}

// NewChecker 创建健康检查器
func NewChecker(nc Connection, redis Pinger, sessions Counter) *Checker {
	return &Checker{
		nc:       nc,
		redis:    redis,
		sessions: sessions,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{NATS: StatusDisabled, Redis: StatusDisabled}

	if h.nc != nil {
		status.NATS = StatusDisconnected
		if h.nc.IsConnected() {
			status.NATS = StatusConnected
		}
	}

	if h.redis != nil {
		redisCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		status.Redis = StatusDisconnected
		if err := h.redis.Ping(redisCtx).Err(); err == nil {
			status.Redis = StatusConnected
		}
	}

	if h.sessions != nil {
		status.Sessions = h.sessions.Count()
	}
	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
