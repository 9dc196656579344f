package simple

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/game"
)

// GameName 游戏名称
const GameName = "simple"

var defaultNames = []string{"张三", "李四", "王五"}

// Settings 规则参数
type Settings struct {
	Capacity      int
	HandSize      int
	InitialHealth int
	DevilReward   int
}

// DefaultSettings 默认规则参数
func DefaultSettings() Settings {
	return Settings{
		Capacity:      3,
		HandSize:      5,
		InitialHealth: 100,
		DevilReward:   10,
	}
}

// Rules 简单卡牌游戏规则，实现 game.Rules
type Rules struct {
	settings Settings
	dealer   *card.UnlimitedDealer[Card]

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRules 创建规则；rng 同时用于发牌与玩家的随机选择
func NewRules(settings Settings, table *Table, rng *rand.Rand) (*Rules, error) {
	def := DefaultSettings()
	if settings.Capacity < 2 {
		settings.Capacity = def.Capacity
	}
	if settings.HandSize <= 0 {
		settings.HandSize = def.HandSize
	}
	if settings.InitialHealth <= 0 {
		settings.InitialHealth = def.InitialHealth
	}

	dealer := card.NewUnlimitedDealer[Card](rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))
	if err := table.Register(dealer); err != nil {
		return nil, err
	}

	return &Rules{
		settings: settings,
		dealer:   dealer,
		rng:      rng,
	}, nil
}

func (r *Rules) Name() string              { return GameName }
func (r *Rules) Capacity() int             { return r.settings.Capacity }
func (r *Rules) HandSize() int             { return r.settings.HandSize }
func (r *Rules) Dealer() card.Dealer[Card] { return r.dealer }
func (r *Rules) Settings() Settings        { return r.settings }

// NewPlayer 实现 game.Rules
func (r *Rules) NewPlayer(s *Session, index int, host game.PlayerHost) *Player {
	name := fmt.Sprintf("玩家%d", index+1)
	if index < len(defaultNames) {
		name = defaultNames[index]
	}

	r.mu.Lock()
	seed1, seed2 := r.rng.Uint64(), r.rng.Uint64()
	r.mu.Unlock()

	return &Player{
		BasePlayer:  game.NewBasePlayer(name, host, s),
		session:     s,
		hand:        card.NewCollection[Card](0),
		health:      r.settings.InitialHealth,
		defence:     game.NewEffectSlot[DefenceEffect](""),
		special:     game.NewEffectSlot[SpecialEffect](""),
		devilReward: r.settings.DevilReward,
		rng:         rand.New(rand.NewPCG(seed1, seed2)),
		logger:      slog.Default().With("component", "SimplePlayer", "sessionId", s.ID(), "player", name),
	}
}

// Settle 存活玩家不超过一人时结束对局
func (r *Rules) Settle(s *Session) bool {
	var alive []*Player
	for _, p := range s.Players() {
		if p.Active() {
			alive = append(alive, p)
		}
	}

	switch len(alive) {
	case 0:
		s.AnnounceSystemMessage("游戏结束，无人幸存")
		return true
	case 1:
		s.AnnounceSystemMessage("游戏结束，%s 获得了胜利", alive[0].CodeName())
		return true
	default:
		return false
	}
}

// Manager 简单卡牌游戏的对局管理器
type Manager = game.Manager[*Player, Card]
