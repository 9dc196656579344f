package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/console"
)

// State 对局状态
type State int32

const (
	StateOpen     State = iota // 等待玩家加入
	StateRunning               // 回合进行中
	StateFinished              // 已结束
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Rules 具体游戏的规则集
type Rules[P Player[C], C card.Card] interface {
	// Name 游戏名称
	Name() string
	// Capacity 开局所需人数
	Capacity() int
	// HandSize 每回合补齐到的手牌数
	HandSize() int
	// Dealer 发牌器
	Dealer() card.Dealer[C]
	// NewPlayer 为第 index 个加入的宿主创建玩家
	NewPlayer(s *Session[P, C], index int, host PlayerHost) P
	// Settle 每回合结束后调用，返回 true 表示对局结束
	Settle(s *Session[P, C]) bool
}

// Session 一局游戏
//
// 加入阶段由 mu 串行化；满员后回合循环在独立协程中顺序执行，
// 玩家状态只在回合协程内修改。
type Session[P Player[C], C card.Card] struct {
	id     string
	rules  Rules[P, C]
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu      sync.Mutex
	players []P

	state   atomic.Int32
	turn    atomic.Int64
	started atomic.Bool

	// aborted 连续中止的回合数，只由 run 协程访问
	aborted int

	done       chan struct{}
	finishOnce sync.Once
	err        error

	snapshot  atomic.Pointer[Snapshot]
	observers []Observer
	createdAt time.Time

	logger *slog.Logger
}

// NewSession 创建对局，parent 被取消时对局以外部取消结束
func NewSession[P Player[C], C card.Card](parent context.Context, id string, rules Rules[P, C], observers ...Observer) *Session[P, C] {
	ctx, cancel := context.WithCancelCause(parent)
	s := &Session[P, C]{
		id:        id,
		rules:     rules,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		observers: observers,
		createdAt: time.Now(),
		logger:    slog.Default().With("component", "Session", "sessionId", id),
	}
	s.refresh()
	return s
}

// ID 对局 ID
func (s *Session[P, C]) ID() string {
	return s.id
}

// Rules 规则集
func (s *Session[P, C]) Rules() Rules[P, C] {
	return s.rules
}

// State 当前状态
func (s *Session[P, C]) State() State {
	return State(s.state.Load())
}

// Join 加入对局
// 恰好使人数达到上限的那次加入会启动回合循环，之后的加入一律拒绝
// 广播与事件通知在释放 mu 之后进行，观察者阻塞不会卡住其他加入
func (s *Session[P, C]) Join(host PlayerHost) (P, error) {
	var zero P

	s.mu.Lock()
	switch s.State() {
	case StateRunning:
		s.mu.Unlock()
		return zero, ErrSessionStarted
	case StateFinished:
		s.mu.Unlock()
		return zero, ErrSessionClosed
	}
	if len(s.players) >= s.rules.Capacity() {
		s.mu.Unlock()
		return zero, ErrSessionFull
	}

	p := s.rules.NewPlayer(s, len(s.players), host)
	s.players = append(s.players, p)
	players := append([]P(nil), s.players...)

	start := len(s.players) == s.rules.Capacity()
	if start {
		s.started.Store(true)
		s.state.Store(int32(StateRunning))
	}
	s.refresh()
	e := s.event(EventJoined, p.CodeName())
	s.mu.Unlock()

	s.logger.Info("Player joined",
		"player", p.CodeName(),
		"host", host.ID(),
		"count", len(players))

	s.broadcast(players, console.KindSystem, fmt.Sprintf("%s 加入了游戏", p.CodeName()))
	s.emit(e)

	if start {
		go s.run()
	}
	return p, nil
}

// Players 玩家列表副本，按加入顺序
func (s *Session[P, C]) Players() []P {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]P(nil), s.players...)
}

// Turn 已完成的回合数
func (s *Session[P, C]) Turn() int {
	return int(s.turn.Load())
}

// CurrentPlayer 当前出牌的玩家，对局从未开局时返回 false
func (s *Session[P, C]) CurrentPlayer() (P, bool) {
	var zero P
	if !s.started.Load() {
		return zero, false
	}
	players := s.Players()
	if len(players) == 0 {
		return zero, false
	}
	return players[s.Turn()%len(players)], true
}

// Done 对局结束时关闭
func (s *Session[P, C]) Done() <-chan struct{} {
	return s.done
}

// Err 对局结束原因，正常结束或尚未结束时为 nil
func (s *Session[P, C]) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close 关闭对局
// 回合循环中的等待会以外部取消的方式中止
func (s *Session[P, C]) Close() {
	s.cancel(ErrSessionClosed)

	s.mu.Lock()
	open := s.State() == StateOpen
	if open {
		s.state.Store(int32(StateFinished))
	}
	s.mu.Unlock()

	if open {
		s.finish(ErrSessionClosed)
	}
}

// AnnounceMessage 向所有玩家广播公告
func (s *Session[P, C]) AnnounceMessage(format string, args ...any) {
	text := sprintf(format, args...)
	s.broadcast(s.Players(), console.KindAnnouncement, text)
	s.notify(EventAnnouncement, text)
}

// AnnounceSystemMessage 向所有玩家广播系统消息
func (s *Session[P, C]) AnnounceSystemMessage(format string, args ...any) {
	text := sprintf(format, args...)
	s.broadcast(s.Players(), console.KindSystem, text)
	s.notify(EventAnnouncement, text)
}

// Replenish 从发牌器补齐玩家手牌
func (s *Session[P, C]) Replenish(p P) error {
	shortfall := s.rules.HandSize() - p.Cards().Count()
	if shortfall <= 0 {
		return nil
	}

	cards, err := s.rules.Dealer().DealCards(shortfall)
	if err != nil {
		return fmt.Errorf("deal %d cards to %s: %w", shortfall, p.CodeName(), err)
	}
	p.Cards().AddCards(cards...)
	return nil
}

func (s *Session[P, C]) broadcast(players []P, kind console.Kind, text string) {
	for _, p := range players {
		p.Host().Console().WriteMessage(console.Message{Kind: kind, Text: text})
	}
}

// run 回合循环
func (s *Session[P, C]) run() {
	s.logger.Info("Session running", "game", s.rules.Name(), "players", len(s.players))
	s.notify(EventRunning, "")
	s.AnnounceSystemMessage("人数已满，游戏开始")

	for _, p := range s.players {
		if err := s.Replenish(p); err != nil {
			s.logger.Error("Initial deal failed", "player", p.CodeName(), "error", err)
			s.finish(err)
			return
		}
	}
	s.refresh()

	for {
		if s.ctx.Err() != nil {
			s.finish(context.Cause(s.ctx))
			return
		}

		p := s.players[s.Turn()%len(s.players)]

		if !s.playTurn(p) {
			return
		}
		if s.aborted >= len(s.players) {
			s.logger.Warn("Session abandoned", "turn", s.Turn())
			s.finish(ErrSessionAbandoned)
			return
		}

		s.turn.Add(1)
		s.refresh()
		s.notify(EventTurn, p.CodeName())

		if s.rules.Settle(s) {
			s.finish(nil)
			return
		}
	}
}

// playTurn 执行一个回合，返回 false 表示对局已因外部取消结束
func (s *Session[P, C]) playTurn(p P) bool {
	if !p.Active() {
		s.AnnounceSystemMessage("%s 已出局，跳过回合", p.CodeName())
		return true
	}

	s.logger.Debug("Turn started", "player", p.CodeName(), "turn", s.Turn())

	if err := s.Replenish(p); err != nil {
		// 发牌失败只影响本次补牌，玩家用现有手牌继续
		s.logger.Warn("Replenish failed", "player", p.CodeName(), "error", err)
		p.Host().Console().WriteWarningMessage("补牌失败，本回合使用现有手牌")
	}

	err := p.PlayTurn(s.ctx)
	if err == nil {
		s.aborted = 0
		return true
	}

	if s.ctx.Err() != nil {
		s.logger.Info("Turn cancelled", "player", p.CodeName(), "cause", context.Cause(s.ctx))
		s.finish(context.Cause(s.ctx))
		return false
	}

	s.logger.Warn("Turn aborted", "player", p.CodeName(), "turn", s.Turn(), "error", err)
	s.AnnounceSystemMessage("%s 的回合异常中止，跳过", p.CodeName())
	s.aborted++
	return true
}

// finish 进入结束状态，只生效一次
func (s *Session[P, C]) finish(err error) {
	s.finishOnce.Do(func() {
		if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
			err = context.Cause(s.ctx)
		}
		s.err = err
		s.state.Store(int32(StateFinished))
		s.refresh()
		s.notify(EventFinished, "")
		s.cancel(ErrSessionClosed)
		close(s.done)

		s.logger.Info("Session finished", "turns", s.Turn(), "error", err)
	})
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
