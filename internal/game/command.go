package game

import (
	"context"
	"fmt"
	"sync/atomic"

	"sudooom.tablegame/internal/card"
)

// Playable 可以被打出的卡牌
type Playable[P any] interface {
	card.Card

	// Play 以 actor 身份对 target 使用卡牌
	// 卡牌从手牌中移除由调用方负责，而不是卡牌本身
	Play(ctx context.Context, actor, target P) error
}

// PlayCommand 一次出牌指令
// 绑定出牌者、卡牌与目标，最多执行一次
type PlayCommand[P any, C Playable[P]] struct {
	Actor  P
	Card   C
	Target P

	hand     *card.Collection[C]
	executed atomic.Bool
}

// NewPlayCommand 创建出牌指令，hand 为出牌者的手牌
func NewPlayCommand[P any, C Playable[P]](actor P, c C, target P, hand *card.Collection[C]) *PlayCommand[P, C] {
	return &PlayCommand[P, C]{
		Actor:  actor,
		Card:   c,
		Target: target,
		hand:   hand,
	}
}

// Execute 从手牌中移除卡牌并结算效果
func (c *PlayCommand[P, C]) Execute(ctx context.Context) error {
	if !c.executed.CompareAndSwap(false, true) {
		return ErrCommandExecuted
	}
	if !c.hand.RemoveCard(c.Card) {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, c.Card.Name())
	}
	return c.Card.Play(ctx, c.Actor, c.Target)
}

// Executed 是否已执行
func (c *PlayCommand[P, C]) Executed() bool {
	return c.executed.Load()
}
