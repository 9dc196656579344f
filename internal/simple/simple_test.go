package simple

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/console"
	"sudooom.tablegame/internal/game"
)

const attackOnly = `
cards:
  - kind: attack
    power: 5
    weight: 1
`

type seat struct {
	pipe *console.Pipe
	host *game.LocalHost
}

func newSeat(id string, timeout time.Duration) *seat {
	pipe := console.NewPipe(8)
	return &seat{pipe: pipe, host: game.NewLocalHost(id, console.New(pipe, timeout))}
}

func (s *seat) waitPrompt(t *testing.T) {
	t.Helper()
	select {
	case <-s.pipe.Prompted():
	case <-time.After(5 * time.Second):
		t.Fatalf("%s 未收到出牌提示", s.host.ID())
	}
}

func (s *seat) hasMessage(kind console.Kind, text string) bool {
	for _, m := range s.pipe.Messages() {
		if m.Kind == kind && strings.Contains(m.Text, text) {
			return true
		}
	}
	return false
}

func newTestRules(t *testing.T, settings Settings, table string) *Rules {
	t.Helper()
	var (
		tb  *Table
		err error
	)
	if table == "" {
		tb, err = LoadTable("")
	} else {
		tb, err = ParseTable([]byte(table))
	}
	require.NoError(t, err)

	rules, err := NewRules(settings, tb, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	return rules
}

// openSession 创建两人加入但未开局的对局，便于直接测试卡牌效果
func openSession(t *testing.T) (*Session, *Player, *Player, *seat) {
	t.Helper()
	rules := newTestRules(t, DefaultSettings(), attackOnly)
	s := game.NewSession(context.Background(), "cards", game.Rules[*Player, Card](rules))
	t.Cleanup(s.Close)

	actorSeat := newSeat("a", time.Minute)
	actor, err := s.Join(actorSeat.host)
	require.NoError(t, err)
	target, err := s.Join(newSeat("b", time.Minute).host)
	require.NoError(t, err)
	return s, actor, target, actorSeat
}

func startGame(t *testing.T, settings Settings, table string, timeout time.Duration) (*Session, []*seat) {
	t.Helper()
	rules := newTestRules(t, settings, table)
	s := game.NewSession(context.Background(), "game", game.Rules[*Player, Card](rules))
	t.Cleanup(s.Close)

	var seats []*seat
	for i := 0; i < 3; i++ {
		st := newSeat(fmt.Sprintf("host-%d", i), timeout)
		_, err := s.Join(st.host)
		require.NoError(t, err)
		seats = append(seats, st)
	}
	return s, seats
}

// TestDefaultTable 内置权重表
func TestDefaultTable(t *testing.T) {
	tb, err := LoadTable("")
	require.NoError(t, err)
	require.Len(t, tb.Cards, 16)

	d := card.NewUnlimitedDealer[Card](rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, tb.Register(d))
	assert.Equal(t, 331, d.TotalWeight())

	cards, err := d.DealCards(50)
	require.NoError(t, err)
	for _, c := range cards {
		assert.Equal(t, 1, c.ActionPoint())
		assert.NotEmpty(t, c.Description())
	}
}

// TestParseTableErrors 权重表校验
func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "empty", data: "cards: []", want: card.ErrNoCards},
		{name: "unknown kind", data: "cards:\n  - kind: dragon\n    weight: 1", want: ErrInvalidTable},
		{name: "attack without power", data: "cards:\n  - kind: attack\n    weight: 1", want: ErrInvalidTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseTable([]byte("cards: ["))
	assert.Error(t, err)

	tb, err := ParseTable([]byte("cards:\n  - kind: shield\n    weight: 0"))
	require.NoError(t, err)
	assert.ErrorIs(t, tb.Register(card.NewUnlimitedDealer[Card](rand.New(rand.NewPCG(1, 1)))), card.ErrInvalidWeight)

	_, err = LoadTable("/nonexistent/cards.yaml")
	assert.Error(t, err)
}

// TestAttackAndDefence 攻击、盾牌与天使
func TestAttackAndDefence(t *testing.T) {
	ctx := context.Background()
	_, actor, target, _ := openSession(t)

	require.NoError(t, NewAttack(7).Play(ctx, actor, target))
	assert.Equal(t, 93, target.Health())

	require.NoError(t, (&Shield{}).Play(ctx, target, nil))
	assert.Equal(t, "[盾]", target.DefenceEffect().String())
	require.NoError(t, NewAttack(7).Play(ctx, actor, target))
	assert.Equal(t, 93, target.Health())
	assert.True(t, target.DefenceEffect().Empty())

	require.NoError(t, (&Angel{}).Play(ctx, target, nil))
	require.NoError(t, NewAttack(4).Play(ctx, actor, target))
	assert.Equal(t, 97, target.Health())

	require.NoError(t, NewAttack(3).Play(ctx, actor, nil))
	assert.Equal(t, 97, target.Health())
}

// TestDevilAndClean 恶魔契约在下回合开始时结算，净化可以清除
func TestDevilAndClean(t *testing.T) {
	ctx := context.Background()
	_, actor, target, actorSeat := openSession(t)

	require.NoError(t, (&Devil{}).Play(ctx, actor, nil))
	assert.Equal(t, "[恶魔]", actor.SpecialEffect().String())

	e, ok := actor.SpecialEffect().Take()
	require.True(t, ok)
	e.OnTurnStart(actor)
	assert.Equal(t, 110, actor.Health())
	assert.True(t, actorSeat.hasMessage(console.KindInfo, "您赢得了恶魔的契约，增加 HP 10 点"))

	require.NoError(t, (&Devil{}).Play(ctx, target, nil))
	require.NoError(t, (&Shield{}).Play(ctx, target, nil))
	require.NoError(t, (&Clean{}).Play(ctx, actor, target))
	assert.True(t, target.SpecialEffect().Empty())
	assert.True(t, target.DefenceEffect().Empty())
}

// TestPeepAndClear 窥视与清空
func TestPeepAndClear(t *testing.T) {
	ctx := context.Background()
	s, actor, target, actorSeat := openSession(t)

	require.NoError(t, s.Replenish(target))
	require.NoError(t, (&Peep{}).Play(ctx, actor, target))
	assert.True(t, actorSeat.hasMessage(console.KindInfo, "李四 的卡牌：攻击5, 攻击5"))

	actor.Cards().AddCard(&Clear{})
	require.NoError(t, (&Clear{}).Play(ctx, actor, nil))
	assert.Equal(t, 5, actor.Cards().Count())
	assert.Equal(t, []string{"攻击5", "攻击5", "攻击5", "攻击5", "攻击5"}, actor.Cards().Names())
}

// TestStatusLine 状态行格式
func TestStatusLine(t *testing.T) {
	s, actor, _, _ := openSession(t)
	require.NoError(t, s.Replenish(actor))
	require.NoError(t, (&Shield{}).Play(context.Background(), actor, nil))

	assert.Equal(t, "HP:100[盾] 卡牌:攻击5, 攻击5, 攻击5, 攻击5, 攻击5", actor.StatusLine())
	assert.Equal(t, "张三", actor.CodeName())
}

// TestTimeoutPlaysRandomCard 超时后随机出牌，回合继续推进
func TestTimeoutPlaysRandomCard(t *testing.T) {
	s, seats := startGame(t, DefaultSettings(), "", 10*time.Millisecond)

	assert.Eventually(t, func() bool { return s.Turn() >= 3 }, 5*time.Second, 5*time.Millisecond)
	assert.True(t, seats[1].hasMessage(console.KindSystem, "张三 操作超时"))
	assert.True(t, seats[0].hasMessage(console.KindWarning, "操作已超时，随机打出第"))
}

// TestMalformedAndTargetedCommands 错误命令重新提示，指定目标生效
func TestMalformedAndTargetedCommands(t *testing.T) {
	s, seats := startGame(t, DefaultSettings(), attackOnly, time.Minute)
	players := s.Players()

	seats[0].waitPrompt(t)
	require.NoError(t, seats[0].pipe.Send("出牌"))
	seats[0].waitPrompt(t)
	require.NoError(t, seats[0].pipe.Send("1 张三"))
	seats[0].waitPrompt(t)
	require.NoError(t, seats[0].pipe.Send("1 赵六"))
	seats[0].waitPrompt(t)

	assert.Equal(t, 0, s.Turn())
	assert.True(t, seats[0].hasMessage(console.KindInfo, "HP:100 卡牌:攻击5"))
	assert.True(t, seats[0].hasMessage(console.KindWarning, "输入的命令格式错误"))
	assert.True(t, seats[0].hasMessage(console.KindWarning, "不能以自己为目标"))
	assert.True(t, seats[0].hasMessage(console.KindWarning, "目标玩家不存在或已出局"))

	require.NoError(t, seats[0].pipe.Send("2 王五"))
	seats[1].waitPrompt(t)

	assert.Equal(t, 1, s.Turn())
	assert.Equal(t, 95, players[2].Health())
	assert.Equal(t, 100, players[1].Health())
	assert.Equal(t, 4, players[0].Cards().Count())
	assert.True(t, seats[2].hasMessage(console.KindAnnouncement, "轮到 李四 出牌"))
}

// TestLastSurvivorWins 只剩一名玩家时对局结束
func TestLastSurvivorWins(t *testing.T) {
	settings := DefaultSettings()
	settings.InitialHealth = 5
	s, seats := startGame(t, settings, attackOnly, time.Minute)

	seats[0].waitPrompt(t)
	require.NoError(t, seats[0].pipe.Send("1 李四"))
	seats[2].waitPrompt(t)
	assert.True(t, seats[2].hasMessage(console.KindSystem, "李四 已出局，跳过回合"))

	require.NoError(t, seats[2].pipe.Send("1 张三"))
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("对局未结束")
	}

	assert.NoError(t, s.Err())
	assert.True(t, seats[1].hasMessage(console.KindSystem, "游戏结束，王五 获得了胜利"))
	assert.Equal(t, map[string]int{"张三": 0, "李四": 0, "王五": 5}, s.Information("").Players)
}
