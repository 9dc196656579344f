package game

import (
	"context"

	"sudooom.tablegame/internal/card"
	"sudooom.tablegame/internal/console"
)

// PlayerHost 玩家宿主，代表一个已连接的玩家终端
type PlayerHost interface {
	// ID 宿主标识，例如连接 ID
	ID() string
	// Console 玩家控制台
	Console() *console.Console
}

// Announcer 对局广播能力，玩家通过它向所有人发送消息
type Announcer interface {
	AnnounceMessage(format string, args ...any)
	AnnounceSystemMessage(format string, args ...any)
}

// Player 对局中的玩家
type Player[C card.Card] interface {
	CodeName() string
	Host() PlayerHost
	Cards() *card.Collection[C]

	// Active 是否仍在对局中，出局玩家的回合会被跳过
	Active() bool

	// Status 展示给所有人的状态值（例如生命值）
	Status() int

	// PlayTurn 完成一个回合；ctx 被取消时必须尽快返回
	PlayTurn(ctx context.Context) error
}

// BasePlayer 玩家公共部分，可嵌入具体玩家类型
type BasePlayer struct {
	codeName string
	host     PlayerHost
	game     Announcer
}

// NewBasePlayer 创建玩家公共部分
func NewBasePlayer(codeName string, host PlayerHost, game Announcer) BasePlayer {
	return BasePlayer{
		codeName: codeName,
		host:     host,
		game:     game,
	}
}

// CodeName 对局内代号
func (p *BasePlayer) CodeName() string {
	return p.codeName
}

// Host 玩家宿主
func (p *BasePlayer) Host() PlayerHost {
	return p.host
}

// Console 玩家控制台
func (p *BasePlayer) Console() *console.Console {
	return p.host.Console()
}

// Game 所在对局
func (p *BasePlayer) Game() Announcer {
	return p.game
}

// LocalHost 进程内的玩家宿主
type LocalHost struct {
	id      string
	console *console.Console
}

// NewLocalHost 创建进程内宿主
func NewLocalHost(id string, c *console.Console) *LocalHost {
	return &LocalHost{id: id, console: c}
}

// ID 实现 PlayerHost
func (h *LocalHost) ID() string {
	return h.id
}

// Console 实现 PlayerHost
func (h *LocalHost) Console() *console.Console {
	return h.console
}
