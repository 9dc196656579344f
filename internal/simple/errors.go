package simple

import (
	"errors"

	"sudooom.tablegame/internal/game"
)

// ErrInvalidTable 权重表内容无效
var ErrInvalidTable = errors.New("invalid card table")

// 出牌指令相关错误，Message 直接展示给玩家
var (
	ErrInvalidCommand = game.NewGameError("INVALID_COMMAND", "输入的命令格式错误")
	ErrUnknownTarget  = game.NewGameError("UNKNOWN_TARGET", "目标玩家不存在或已出局")
	ErrSelfTarget     = game.NewGameError("SELF_TARGET", "不能以自己为目标")
)
