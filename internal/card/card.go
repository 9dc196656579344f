package card

import "errors"

var (
	// ErrInvalidWeight 权重或库存必须为正整数
	ErrInvalidWeight = errors.New("card weight must be positive")

	// ErrNoCards 发牌器中没有注册任何卡牌
	ErrNoCards = errors.New("no cards registered")

	// ErrDealerExhausted 有限发牌器剩余库存不足
	ErrDealerExhausted = errors.New("dealer exhausted")

	// ErrInvalidCount 发牌数量不能为负
	ErrInvalidCount = errors.New("invalid card count")
)

// Card 卡牌
//
// 卡牌创建后不可变；集合中按实例（指针）判断是否相等，
// 因此实现应使用指针类型。具体的出牌动作由各游戏规则定义。
type Card interface {
	// Name 显示名称
	Name() string
	// Description 卡牌说明
	Description() string
	// ActionPoint 使用卡牌所需的行动点数
	ActionPoint() int
}

// Standard 标准卡牌，可嵌入具体卡牌类型以获得默认行动点数 1
type Standard struct{}

// ActionPoint 使用标准卡牌需要 1 个行动点
func (Standard) ActionPoint() int { return 1 }
