package card

import "iter"

// Collection 玩家持有的卡牌容器
//
// 有序、允许重复；只由所属玩家的回合逻辑或发牌操作修改，本身不加锁。
type Collection[C Card] struct {
	cards []C
	limit int // 0 表示不限
}

// NewCollection 创建卡牌容器，limit 为容量上限，0 表示不限
func NewCollection[C Card](limit int) *Collection[C] {
	return &Collection[C]{limit: limit}
}

// AddCard 添加一张卡牌，超出容量时返回 false
func (c *Collection[C]) AddCard(card C) bool {
	if c.limit > 0 && len(c.cards) >= c.limit {
		return false
	}
	c.cards = append(c.cards, card)
	return true
}

// AddCards 依次添加卡牌，返回成功添加的数量
func (c *Collection[C]) AddCards(cards ...C) int {
	added := 0
	for _, card := range cards {
		if !c.AddCard(card) {
			break
		}
		added++
	}
	return added
}

// RemoveCard 移除第一张与 card 相同的卡牌
func (c *Collection[C]) RemoveCard(card C) bool {
	for i, x := range c.cards {
		if same(x, card) {
			c.cards = append(c.cards[:i], c.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Contains 是否持有 card
func (c *Collection[C]) Contains(card C) bool {
	for _, x := range c.cards {
		if same(x, card) {
			return true
		}
	}
	return false
}

// Count 卡牌数量
func (c *Collection[C]) Count() int {
	return len(c.cards)
}

// Limit 容量上限，0 表示不限
func (c *Collection[C]) Limit() int {
	return c.limit
}

// Clear 清除所有卡牌
func (c *Collection[C]) Clear() {
	c.cards = nil
}

// At 获取第 i 张卡牌（从 0 开始）
func (c *Collection[C]) At(i int) (C, bool) {
	if i < 0 || i >= len(c.cards) {
		var zero C
		return zero, false
	}
	return c.cards[i], true
}

// Cards 返回卡牌副本
func (c *Collection[C]) Cards() []C {
	return append([]C(nil), c.cards...)
}

// All 按顺序遍历卡牌
func (c *Collection[C]) All() iter.Seq2[int, C] {
	return func(yield func(int, C) bool) {
		for i, card := range c.cards {
			if !yield(i, card) {
				return
			}
		}
	}
}

// Names 卡牌名称列表
func (c *Collection[C]) Names() []string {
	names := make([]string, 0, len(c.cards))
	for _, card := range c.cards {
		names = append(names, card.Name())
	}
	return names
}

// same 按实例比较；动态类型不可比较时会 panic，卡牌应使用指针类型
func same[C Card](a, b C) bool {
	return any(a) == any(b)
}
