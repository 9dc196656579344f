package simple

import "sudooom.tablegame/internal/game"

// DefenceEffect 防御效果，受到攻击时被消耗
type DefenceEffect interface {
	game.Effect
	// Absorb 处理 damage 点伤害，返回实际承受的伤害
	Absorb(owner *Player, damage int) int
}

// SpecialEffect 特殊效果，在持有者下一回合开始时结算
type SpecialEffect interface {
	game.Effect
	OnTurnStart(owner *Player)
}

type shieldEffect struct{}

func (shieldEffect) Name() string { return "[盾]" }

func (shieldEffect) Absorb(owner *Player, damage int) int {
	owner.Game().AnnounceMessage("%s 的盾牌抵挡了 %d 点伤害", owner.CodeName(), damage)
	return 0
}

type angelEffect struct{}

func (angelEffect) Name() string { return "[天使]" }

// Absorb 天使抵挡伤害并将其转化为生命值
func (angelEffect) Absorb(owner *Player, damage int) int {
	owner.health += damage
	owner.Game().AnnounceMessage("天使守护了 %s，伤害转化为 %d 点生命", owner.CodeName(), damage)
	return 0
}

type devilContract struct {
	reward int
}

func (devilContract) Name() string { return "[恶魔]" }

func (c devilContract) OnTurnStart(owner *Player) {
	owner.health += c.reward
	owner.Console().WriteInfo("您赢得了恶魔的契约，增加 HP %d 点", c.reward)
}
