package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.tablegame/internal/config"
	"sudooom.tablegame/internal/game"
)

const (
	// SessionKeyPrefix 对局快照 key 前缀
	SessionKeyPrefix = "tablegame:session:"
	// ActiveSessionsKey 进行中对局集合
	ActiveSessionsKey = "tablegame:sessions"

	writeTimeout = 2 * time.Second
)

// ErrSnapshotNotFound 快照不存在或已过期
var ErrSnapshotNotFound = errors.New("snapshot not found")

// BuildSessionKey 对局快照 key
func BuildSessionKey(sessionID string) string {
	return SessionKeyPrefix + sessionID
}

// Cmdable SnapshotStore 用到的命令，*redis.Client 实现该接口
type Cmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// NewClient 创建 Redis 客户端
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// SnapshotStore 对局快照存储
// 作为 game.Observer 注册，对局结束或从内存移除后仍可在 TTL 内查询
type SnapshotStore struct {
	rdb    Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(rdb Cmdable, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: slog.Default().With("component", "SnapshotStore"),
	}
}

// OnEvent 实现 game.Observer
func (s *SnapshotStore) OnEvent(e game.Event) {
	if e.Type == game.EventAnnouncement {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.Save(ctx, e.Snapshot); err != nil {
		s.logger.Warn("Failed to save snapshot", "sessionId", e.SessionID, "type", e.Type, "error", err)
	}
}

// Save 保存快照并维护进行中对局集合
func (s *SnapshotStore) Save(ctx context.Context, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.rdb.Set(ctx, BuildSessionKey(snap.SessionID), data, s.ttl).Err(); err != nil {
		return err
	}

	if snap.State == game.StateFinished.String() {
		return s.rdb.SRem(ctx, ActiveSessionsKey, snap.SessionID).Err()
	}
	return s.rdb.SAdd(ctx, ActiveSessionsKey, snap.SessionID).Err()
}

// Load 读取快照
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (game.Snapshot, error) {
	var snap game.Snapshot

	data, err := s.rdb.Get(ctx, BuildSessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, ErrSnapshotNotFound
	}
	if err != nil {
		return snap, err
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Active 进行中的对局 ID
func (s *SnapshotStore) Active(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, ActiveSessionsKey).Result()
}
