package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/task"
)

// Manager 对局管理器
// 新玩家总是进入当前开放的对局，满员后自动创建下一局
type Manager[P Player[C], C card.Card] struct {
	rules     Rules[P, C]
	sessions  sync.Map // sessionId -> *Session
	observers []Observer

	scheduler   *task.Scheduler
	finishedTTL time.Duration

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu     sync.Mutex
	open   *Session[P, C]
	closed bool
	wg     sync.WaitGroup

	logger *slog.Logger
}

// NewManager 创建对局管理器
// 已结束的对局保留 finishedTTL 后由 scheduler 移除；scheduler 为空时立即移除
func NewManager[P Player[C], C card.Card](rules Rules[P, C], scheduler *task.Scheduler, finishedTTL time.Duration, observers ...Observer) *Manager[P, C] {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Manager[P, C]{
		rules:       rules,
		observers:   observers,
		scheduler:   scheduler,
		finishedTTL: finishedTTL,
		ctx:         ctx,
		cancel:      cancel,
		logger:      slog.Default().With("component", "GameManager"),
	}
}

// Join 让宿主加入当前开放的对局
// m.mu 只保护开放对局的选取，加入本身在锁外进行
func (m *Manager[P, C]) Join(host PlayerHost) (*Session[P, C], P, error) {
	var zero P

	// 开放对局可能已满员或被关闭，换一局重试直到管理器关闭
	for {
		session, err := m.openSession()
		if err != nil {
			return nil, zero, err
		}

		p, err := session.Join(host)
		if err == nil {
			return session, p, nil
		}
		if !errors.Is(err, ErrSessionStarted) && !errors.Is(err, ErrSessionClosed) && !errors.Is(err, ErrSessionFull) {
			return nil, zero, err
		}

		m.mu.Lock()
		if m.open == session {
			m.open = nil
		}
		m.mu.Unlock()
	}
}

// openSession 返回当前开放的对局，没有则新建
func (m *Manager[P, C]) openSession() (*Session[P, C], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrNotRunning
	}
	if m.open == nil || m.open.State() != StateOpen {
		m.open = m.create()
	}
	return m.open, nil
}

// Enter 加入对局并返回对局 ID 与玩家代号，供接入层使用
func (m *Manager[P, C]) Enter(host PlayerHost) (string, string, error) {
	s, p, err := m.Join(host)
	if err != nil {
		return "", "", err
	}
	return s.ID(), p.CodeName(), nil
}

// Get 获取对局
func (m *Manager[P, C]) Get(id string) (*Session[P, C], bool) {
	val, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*Session[P, C]), true
}

// Snapshot 获取对局快照
func (m *Manager[P, C]) Snapshot(id string) (Snapshot, error) {
	s, ok := m.Get(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Information 获取对局信息
func (m *Manager[P, C]) Information(id, viewer string) (Information, error) {
	s, ok := m.Get(id)
	if !ok {
		return Information{}, ErrSessionNotFound
	}
	return s.Information(viewer), nil
}

// Remove 移除对局，未结束的对局会被关闭
func (m *Manager[P, C]) Remove(id string) {
	val, ok := m.sessions.LoadAndDelete(id)
	if !ok {
		return
	}
	val.(*Session[P, C]).Close()
	m.logger.Info("Removed session", "sessionId", id)
}

// Count 当前对局数
func (m *Manager[P, C]) Count() int {
	count := 0
	m.sessions.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

func (m *Manager[P, C]) create() *Session[P, C] {
	id := uuid.NewString()
	s := NewSession(m.ctx, id, m.rules, m.observers...)
	m.sessions.Store(id, s)

	m.wg.Add(1)
	go m.watch(s)

	m.logger.Info("Created session", "sessionId", id, "game", m.rules.Name())
	return s
}

// watch 对局结束后安排移除
func (m *Manager[P, C]) watch(s *Session[P, C]) {
	defer m.wg.Done()

	<-s.Done()
	if m.ctx.Err() != nil {
		return
	}

	if m.scheduler == nil || !m.scheduler.IsRunning() || m.finishedTTL <= 0 {
		m.Remove(s.ID())
		return
	}

	t := task.NewTask("session-expire:"+s.ID(), s.ID(), m.finishedTTL, func(ctx context.Context, target string) error {
		m.Remove(target)
		return nil
	})
	if err := m.scheduler.AddTask(t); err != nil {
		m.logger.Warn("Schedule session removal failed", "sessionId", s.ID(), "error", err)
		m.Remove(s.ID())
	}
}

// Shutdown 关闭管理器，取消所有对局并等待其结束
func (m *Manager[P, C]) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.mu.Lock()
	m.closed = true
	m.open = nil
	m.mu.Unlock()

	m.cancel(ErrShutdown)

	// 未开局的对局没有回合协程，需要显式关闭
	m.sessions.Range(func(key, value any) bool {
		s := value.(*Session[P, C])
		if s.State() == StateOpen {
			s.Close()
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("GameManager shutdown complete", "sessions", m.Count())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
