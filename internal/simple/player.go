package simple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/console"
	"sudooom.tablegame/internal/game"
)

// Session 简单卡牌游戏对局
type Session = game.Session[*Player, Card]

// Player 简单卡牌游戏玩家
type Player struct {
	game.BasePlayer

	session *Session
	hand    *card.Collection[Card]
	health  int

	defence *game.EffectSlot[DefenceEffect]
	special *game.EffectSlot[SpecialEffect]

	devilReward int
	rng         *rand.Rand
	logger      *slog.Logger
}

// Cards 手牌
func (p *Player) Cards() *card.Collection[Card] {
	return p.hand
}

// Health 生命值
func (p *Player) Health() int {
	return p.health
}

// Status 对外展示的状态值为生命值
func (p *Player) Status() int {
	return p.health
}

// Active 生命值大于 0 时仍在对局中
func (p *Player) Active() bool {
	return p.health > 0
}

// DefenceEffect 防御效果槽
func (p *Player) DefenceEffect() *game.EffectSlot[DefenceEffect] {
	return p.defence
}

// SpecialEffect 特殊效果槽
func (p *Player) SpecialEffect() *game.EffectSlot[SpecialEffect] {
	return p.special
}

// Damage 承受伤害，防御效果会被消耗
func (p *Player) Damage(n int) {
	if e, ok := p.defence.Take(); ok {
		n = e.Absorb(p, n)
	}
	if n <= 0 {
		return
	}

	p.health -= n
	p.Game().AnnounceMessage("%s 受到 %d 点伤害，剩余 HP %d", p.CodeName(), n, p.health)
	if p.health <= 0 {
		p.Game().AnnounceSystemMessage("%s 出局", p.CodeName())
	}
}

// StatusLine 私密状态行：生命、效果与手牌
func (p *Player) StatusLine() string {
	return fmt.Sprintf("HP:%-3d%s%s 卡牌:%s", p.health, p.defence, p.special, strings.Join(p.hand.Names(), ", "))
}

// PlayTurn 实现 game.Player
func (p *Player) PlayTurn(ctx context.Context) error {
	c := p.Console()

	p.Game().AnnounceMessage("轮到 %s 出牌", p.CodeName())

	if e, ok := p.special.Take(); ok {
		e.OnTurnStart(p)
	}

	c.WriteInfo("%s", p.StatusLine())

	if p.hand.Count() == 0 {
		p.Game().AnnounceSystemMessage("%s 没有可出的牌", p.CodeName())
		return nil
	}

	for {
		fallback := strconv.Itoa(p.rng.IntN(p.hand.Count()) + 1)

		text, outcome, err := c.ReadLineOutcome(ctx, "请出牌： ", fallback, c.Timeout())
		if err != nil {
			return err
		}
		if outcome == console.TimedOut {
			p.logger.Info("Response timed out", "player", p.CodeName(), "default", text)
			p.Game().AnnounceSystemMessage("%s 操作超时", p.CodeName())
			c.WriteWarningMessage("操作已超时，随机打出第 %s 张牌", text)
		}

		cmd, err := p.parse(text)
		if err != nil {
			var ge *game.GameError
			if errors.As(err, &ge) {
				c.WriteWarningMessage("%s", ge.Message)
			}
			p.logger.Debug("Malformed command", "player", p.CodeName(), "input", text, "error", err)
			continue
		}

		return cmd.Execute(ctx)
	}
}

// parse 解析出牌指令："<序号> [目标代号]"，序号从 1 开始
func (p *Player) parse(text string) (*game.PlayCommand[*Player, Card], error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, ErrInvalidCommand.WithContext("input", text)
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, ErrInvalidCommand.WithCause(err)
	}
	selected, ok := p.hand.At(idx - 1)
	if !ok {
		return nil, ErrInvalidCommand.WithContext("index", idx)
	}

	var target *Player
	if len(fields) == 2 {
		if target, err = p.lookup(fields[1]); err != nil {
			return nil, err
		}
	} else {
		target = p.randomOpponent()
	}

	return game.NewPlayCommand(p, selected, target, p.hand), nil
}

func (p *Player) lookup(codeName string) (*Player, error) {
	if codeName == p.CodeName() {
		return nil, ErrSelfTarget
	}
	for _, other := range p.session.Players() {
		if other.CodeName() == codeName && other.Active() {
			return other, nil
		}
	}
	return nil, ErrUnknownTarget.WithContext("target", codeName)
}

// randomOpponent 随机选择一名仍在对局中的其他玩家，没有时返回 nil
func (p *Player) randomOpponent() *Player {
	var candidates []*Player
	for _, other := range p.session.Players() {
		if other != p && other.Active() {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[p.rng.IntN(len(candidates))]
}
