package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/console"
)

// ---- 测试用规则 ----

type testCard struct {
	card.Standard
	damage int
}

func (c *testCard) Name() string        { return "攻击" + strconv.Itoa(c.damage) }
func (c *testCard) Description() string { return "造成伤害" }

func (c *testCard) Play(ctx context.Context, actor, target *testPlayer) error {
	if target != nil {
		target.hp -= c.damage
	}
	return nil
}

type testPlayer struct {
	BasePlayer
	session  *Session[*testPlayer, *testCard]
	index    int
	hand     *card.Collection[*testCard]
	hp       int
	rejected int
}

func (p *testPlayer) Cards() *card.Collection[*testCard] { return p.hand }
func (p *testPlayer) Active() bool                       { return p.hp > 0 }
func (p *testPlayer) Status() int                        { return p.hp }

func (p *testPlayer) PlayTurn(ctx context.Context) error {
	for {
		line, err := p.Console().ReadLine(ctx, "请出牌：")
		if err != nil {
			return err
		}

		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > p.hand.Count() {
			p.rejected++
			p.Console().WriteWarningMessage("输入的命令格式错误")
			continue
		}

		c, _ := p.hand.At(idx - 1)
		players := p.session.Players()
		target := players[(p.index+1)%len(players)]
		return NewPlayCommand(p, c, target, p.hand).Execute(ctx)
	}
}

type testRules struct {
	dealer   *card.UnlimitedDealer[*testCard]
	maxTurns int
}

func newTestRules(t *testing.T, maxTurns int) *testRules {
	d := card.NewUnlimitedDealer[*testCard](rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, d.RegisterCard(func() *testCard { return &testCard{damage: 1} }, 1))
	return &testRules{dealer: d, maxTurns: maxTurns}
}

func (r *testRules) Name() string                       { return "test" }
func (r *testRules) Capacity() int                      { return 3 }
func (r *testRules) HandSize() int                      { return 5 }
func (r *testRules) Dealer() card.Dealer[*testCard]     { return r.dealer }
func (r *testRules) Settle(s *Session[*testPlayer, *testCard]) bool {
	return r.maxTurns > 0 && s.Turn() >= r.maxTurns
}

func (r *testRules) NewPlayer(s *Session[*testPlayer, *testCard], index int, host PlayerHost) *testPlayer {
	return &testPlayer{
		BasePlayer: NewBasePlayer(fmt.Sprintf("P%d", index+1), host, s),
		session:    s,
		index:      index,
		hand:       card.NewCollection[*testCard](0),
		hp:         10,
	}
}

type testHost struct {
	id      string
	pipe    *console.Pipe
	console *console.Console
}

func newTestHost(id string) *testHost {
	pipe := console.NewPipe(4)
	return &testHost{id: id, pipe: pipe, console: console.New(pipe, time.Minute)}
}

func (h *testHost) ID() string                 { return h.id }
func (h *testHost) Console() *console.Console { return h.console }

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		if e.Type != EventAnnouncement {
			out = append(out, e.Type)
		}
	}
	return out
}

func waitPrompt(t *testing.T, h *testHost) {
	t.Helper()
	select {
	case <-h.pipe.Prompted():
	case <-time.After(5 * time.Second):
		t.Fatalf("%s 未收到出牌提示", h.id)
	}
}

func waitDone(t *testing.T, s *Session[*testPlayer, *testCard]) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("对局未结束")
	}
}

func fill(t *testing.T, s *Session[*testPlayer, *testCard]) ([]*testHost, []*testPlayer) {
	t.Helper()
	var hosts []*testHost
	var players []*testPlayer
	for i := 0; i < 3; i++ {
		h := newTestHost(fmt.Sprintf("host-%d", i))
		p, err := s.Join(h)
		require.NoError(t, err)
		hosts = append(hosts, h)
		players = append(players, p)
	}
	return hosts, players
}

// ---- 测试 ----

// TestJoinSaturatesAtCapacity 并发加入时恰好 3 人成功，之后全部被拒绝
func TestJoinSaturatesAtCapacity(t *testing.T) {
	s := NewSession(context.Background(), "s-1", newTestRules(t, 0))
	assert.Equal(t, StateOpen, s.State())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		joined   int
		rejected int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Join(newTestHost(fmt.Sprintf("host-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				joined++
				return
			}
			assert.ErrorIs(t, err, ErrSessionStarted)
			rejected++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, joined)
	assert.Equal(t, 9, rejected)
	assert.Equal(t, StateRunning, s.State())
	assert.Len(t, s.Players(), 3)

	_, err := s.Join(newTestHost("late"))
	assert.ErrorIs(t, err, ErrSessionStarted)

	s.Close()
	waitDone(t, s)
	assert.ErrorIs(t, s.Err(), ErrSessionClosed)
}

// TestSessionEndToEnd 三人开局，初始手牌 5 张，出牌后移出手牌并轮到下一位
func TestSessionEndToEnd(t *testing.T) {
	rec := &recorder{}
	s := NewSession(context.Background(), "s-2", newTestRules(t, 0), rec)
	hosts, players := fill(t, s)
	defer s.Close()

	waitPrompt(t, hosts[0])
	for _, p := range players {
		assert.Equal(t, 5, p.Cards().Count())
	}
	cur, ok := s.CurrentPlayer()
	require.True(t, ok)
	assert.Same(t, players[0], cur)

	played, _ := players[0].Cards().At(0)
	require.NoError(t, hosts[0].pipe.Send("1"))

	waitPrompt(t, hosts[1])
	assert.Equal(t, 4, players[0].Cards().Count())
	assert.False(t, players[0].Cards().Contains(played))
	assert.Equal(t, 9, players[1].hp)
	assert.Equal(t, 1, s.Turn())

	cur, _ = s.CurrentPlayer()
	assert.Same(t, players[1], cur)

	info := s.Information("")
	assert.Equal(t, map[string]int{"P1": 10, "P2": 9, "P3": 10}, info.Players)
	assert.Len(t, info.Hand, 5)
	assert.Len(t, s.Information("P1").Hand, 4)

	assert.Equal(t, []EventType{EventJoined, EventJoined, EventJoined, EventRunning, EventTurn}, rec.types())
}

// TestMalformedCommandKeepsTurn 格式错误的命令重新提示，不推进回合
func TestMalformedCommandKeepsTurn(t *testing.T) {
	s := NewSession(context.Background(), "s-3", newTestRules(t, 0))
	hosts, players := fill(t, s)
	defer s.Close()

	waitPrompt(t, hosts[0])
	require.NoError(t, hosts[0].pipe.Send("abc"))
	waitPrompt(t, hosts[0])
	require.NoError(t, hosts[0].pipe.Send("9"))
	waitPrompt(t, hosts[0])

	assert.Equal(t, 0, s.Turn())
	assert.Equal(t, 2, players[0].rejected)
	cur, _ := s.CurrentPlayer()
	assert.Same(t, players[0], cur)

	require.NoError(t, hosts[0].pipe.Send("2"))
	waitPrompt(t, hosts[1])
	assert.Equal(t, 1, s.Turn())
}

// TestExternalCancelFinishesSession 外部取消中止等待中的读取并结束对局
func TestExternalCancelFinishesSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(ctx, "s-4", newTestRules(t, 0))
	hosts, _ := fill(t, s)

	waitPrompt(t, hosts[0])
	cancel()
	waitDone(t, s)

	assert.Equal(t, StateFinished, s.State())
	assert.ErrorIs(t, s.Err(), context.Canceled)
	assert.Equal(t, "finished", s.Snapshot().State)
}

// TestTurnFailureSkipsPlayer 传输故障中止当前玩家回合并跳过
func TestTurnFailureSkipsPlayer(t *testing.T) {
	s := NewSession(context.Background(), "s-5", newTestRules(t, 0))
	hosts, _ := fill(t, s)
	defer s.Close()

	waitPrompt(t, hosts[0])
	hosts[0].pipe.Close()

	waitPrompt(t, hosts[1])
	assert.Equal(t, 1, s.Turn())
	assert.Equal(t, StateRunning, s.State())

	var skipped bool
	for _, m := range hosts[1].pipe.Messages() {
		if m.Kind == console.KindSystem && m.Text == "P1 的回合异常中止，跳过" {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

// TestAbandonedSession 所有玩家断线后对局结束而不是空转
func TestAbandonedSession(t *testing.T) {
	s := NewSession(context.Background(), "s-5b", newTestRules(t, 0))
	hosts, _ := fill(t, s)

	waitPrompt(t, hosts[0])
	for _, h := range hosts {
		h.pipe.Close()
	}
	waitDone(t, s)

	assert.ErrorIs(t, s.Err(), ErrSessionAbandoned)
	assert.Equal(t, StateFinished, s.State())
}

// TestSettleFinishesSession 规则判定结束后对局正常结束
func TestSettleFinishesSession(t *testing.T) {
	rec := &recorder{}
	s := NewSession(context.Background(), "s-6", newTestRules(t, 2), rec)
	hosts, _ := fill(t, s)

	waitPrompt(t, hosts[0])
	require.NoError(t, hosts[0].pipe.Send("1"))
	waitPrompt(t, hosts[1])
	require.NoError(t, hosts[1].pipe.Send("1"))
	waitDone(t, s)

	assert.NoError(t, s.Err())
	assert.Equal(t, 2, s.Turn())
	types := rec.types()
	assert.Equal(t, EventFinished, types[len(types)-1])

	_, err := s.Join(newTestHost("late"))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

// TestCloseOpenSession 未开局的对局可以直接关闭
func TestCloseOpenSession(t *testing.T) {
	s := NewSession(context.Background(), "s-7", newTestRules(t, 0))
	_, err := s.Join(newTestHost("a"))
	require.NoError(t, err)

	s.Close()
	waitDone(t, s)
	assert.ErrorIs(t, s.Err(), ErrSessionClosed)

	_, ok := s.CurrentPlayer()
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot().Current)
}

// TestCurrentPlayerEmptyRoster 没有玩家的对局不存在当前玩家
func TestCurrentPlayerEmptyRoster(t *testing.T) {
	s := NewSession(context.Background(), "s-10", newTestRules(t, 0))

	_, ok := s.CurrentPlayer()
	assert.False(t, ok)

	s.Close()
	waitDone(t, s)

	assert.NotPanics(t, func() {
		_, ok = s.CurrentPlayer()
	})
	assert.False(t, ok)
}

// blockingObserver 第一个加入事件阻塞，直到 release 被关闭
type blockingObserver struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingObserver() *blockingObserver {
	return &blockingObserver{entered: make(chan struct{}), release: make(chan struct{})}
}

func (o *blockingObserver) OnEvent(e Event) {
	if e.Type != EventJoined {
		return
	}
	first := false
	o.once.Do(func() { first = true })
	if first {
		close(o.entered)
		<-o.release
	}
}

// TestSlowObserverDoesNotBlockJoin 观察者阻塞时其他加入与读取照常进行
func TestSlowObserverDoesNotBlockJoin(t *testing.T) {
	o := newBlockingObserver()
	s := NewSession(context.Background(), "s-11", newTestRules(t, 0), o)
	defer s.Close()

	joined := make(chan error, 1)
	go func() {
		_, err := s.Join(newTestHost("a"))
		joined <- err
	}()

	select {
	case <-o.entered:
	case <-time.After(time.Second):
		t.Fatal("observer not called")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.Join(newTestHost("b"))
		assert.NoError(t, err)
		assert.Len(t, s.Players(), 2)
		assert.Len(t, s.Snapshot().Players, 2)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("join blocked by observer")
	}

	close(o.release)
	require.NoError(t, <-joined)
}

// TestAnnounce 广播消息送达所有玩家
func TestAnnounce(t *testing.T) {
	s := NewSession(context.Background(), "s-8", newTestRules(t, 0))
	a, b := newTestHost("a"), newTestHost("b")
	_, err := s.Join(a)
	require.NoError(t, err)
	_, err = s.Join(b)
	require.NoError(t, err)
	defer s.Close()

	s.AnnounceMessage("轮到 %s 出牌", "P1")

	for _, h := range []*testHost{a, b} {
		msgs := h.pipe.Messages()
		last := msgs[len(msgs)-1]
		assert.Equal(t, console.Message{Kind: console.KindAnnouncement, Text: "轮到 P1 出牌"}, last)
	}
}

// TestEffectSlot 效果槽只保留一个效果
func TestEffectSlot(t *testing.T) {
	slot := NewEffectSlot[namedEffect]("  ")
	assert.True(t, slot.Empty())
	assert.Equal(t, "  ", slot.String())

	slot.Set("护盾")
	slot.Set("天使")
	e, ok := slot.Effect()
	require.True(t, ok)
	assert.Equal(t, namedEffect("天使"), e)
	assert.Equal(t, "天使", slot.String())

	e, ok = slot.Take()
	assert.True(t, ok)
	assert.Equal(t, namedEffect("天使"), e)
	assert.True(t, slot.Empty())

	_, ok = slot.Take()
	assert.False(t, ok)

	slot.Set("恶魔")
	slot.Clear()
	assert.True(t, slot.Empty())
}

type namedEffect string

func (e namedEffect) Name() string { return string(e) }

// TestPlayCommandOnce 出牌指令只执行一次
func TestPlayCommandOnce(t *testing.T) {
	hand := card.NewCollection[*testCard](0)
	c := &testCard{damage: 3}
	hand.AddCard(c)
	target := &testPlayer{hp: 10}

	cmd := NewPlayCommand(&testPlayer{}, c, target, hand)
	require.NoError(t, cmd.Execute(context.Background()))
	assert.True(t, cmd.Executed())
	assert.Equal(t, 0, hand.Count())
	assert.Equal(t, 7, target.hp)

	assert.ErrorIs(t, cmd.Execute(context.Background()), ErrCommandExecuted)
	assert.Equal(t, 7, target.hp)

	missing := NewPlayCommand(&testPlayer{}, &testCard{damage: 1}, target, hand)
	assert.ErrorIs(t, missing.Execute(context.Background()), ErrCardNotInHand)
}

// TestGameError 错误代码匹配
func TestGameError(t *testing.T) {
	base := NewGameError("INVALID_COMMAND", "输入的命令格式错误")
	cause := errors.New("bad index")

	err := base.WithCause(cause).WithContext("input", "x")
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, base.Cause)
	assert.Equal(t, "[INVALID_COMMAND] 输入的命令格式错误: bad index", err.Error())
	assert.False(t, errors.Is(err, NewGameError("OTHER", "")))
}
