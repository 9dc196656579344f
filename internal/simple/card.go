package simple

import (
	"context"
	"strconv"
	"strings"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/game"
)

// Card 简单卡牌游戏中的卡牌
type Card interface {
	game.Playable[*Player]
}

// Attack 攻击卡，对目标造成固定伤害
type Attack struct {
	card.Standard
	power int
}

// NewAttack 创建伤害为 power 的攻击卡
func NewAttack(power int) *Attack {
	return &Attack{power: power}
}

func (c *Attack) Name() string        { return "攻击" + strconv.Itoa(c.power) }
func (c *Attack) Description() string { return "对目标造成 " + strconv.Itoa(c.power) + " 点伤害" }

// Power 伤害值
func (c *Attack) Power() int { return c.power }

func (c *Attack) Play(ctx context.Context, actor, target *Player) error {
	if target == nil {
		actor.Game().AnnounceMessage("%s 的攻击没有目标", actor.CodeName())
		return nil
	}
	actor.Game().AnnounceMessage("%s 攻击了 %s", actor.CodeName(), target.CodeName())
	target.Damage(c.power)
	return nil
}

// Shield 盾牌，抵挡下一次攻击
type Shield struct {
	card.Standard
}

func (c *Shield) Name() string        { return "盾牌" }
func (c *Shield) Description() string { return "抵挡下一次受到的攻击" }

func (c *Shield) Play(ctx context.Context, actor, target *Player) error {
	actor.defence.Set(shieldEffect{})
	actor.Game().AnnounceMessage("%s 举起了盾牌", actor.CodeName())
	return nil
}

// Angel 天使，抵挡下一次攻击并把伤害转化为生命
type Angel struct {
	card.Standard
}

func (c *Angel) Name() string        { return "天使" }
func (c *Angel) Description() string { return "抵挡下一次攻击，并增加等量的生命值" }

func (c *Angel) Play(ctx context.Context, actor, target *Player) error {
	actor.defence.Set(angelEffect{})
	actor.Game().AnnounceMessage("%s 得到了天使的守护", actor.CodeName())
	return nil
}

// Devil 恶魔契约，下回合开始时若契约仍在则获得生命
type Devil struct {
	card.Standard
}

func (c *Devil) Name() string        { return "恶魔" }
func (c *Devil) Description() string { return "与恶魔签订契约，下回合开始时增加生命值" }

func (c *Devil) Play(ctx context.Context, actor, target *Player) error {
	actor.special.Set(devilContract{reward: actor.devilReward})
	actor.Game().AnnounceMessage("%s 与恶魔签订了契约", actor.CodeName())
	return nil
}

// Clean 净化，清除目标身上的所有效果
type Clean struct {
	card.Standard
}

func (c *Clean) Name() string        { return "净化" }
func (c *Clean) Description() string { return "清除目标身上的所有效果" }

func (c *Clean) Play(ctx context.Context, actor, target *Player) error {
	if target == nil {
		return nil
	}
	target.defence.Clear()
	target.special.Clear()
	actor.Game().AnnounceMessage("%s 清除了 %s 身上的所有效果", actor.CodeName(), target.CodeName())
	return nil
}

// Peep 窥视，查看目标的手牌
type Peep struct {
	card.Standard
}

func (c *Peep) Name() string        { return "窥视" }
func (c *Peep) Description() string { return "查看目标玩家的手牌" }

func (c *Peep) Play(ctx context.Context, actor, target *Player) error {
	if target == nil {
		return nil
	}
	actor.Game().AnnounceMessage("%s 偷看了 %s 的卡牌", actor.CodeName(), target.CodeName())
	actor.Console().WriteInfo("%s 的卡牌：%s", target.CodeName(), strings.Join(target.hand.Names(), ", "))
	return nil
}

// Clear 清空，丢弃所有手牌并重新发牌
type Clear struct {
	card.Standard
}

func (c *Clear) Name() string        { return "清空" }
func (c *Clear) Description() string { return "清空目前手上所有的卡牌，重新发牌" }

func (c *Clear) Play(ctx context.Context, actor, target *Player) error {
	actor.Game().AnnounceMessage("%s 使用了一张特殊卡牌", actor.CodeName())
	actor.hand.Clear()
	return actor.session.Replenish(actor)
}
