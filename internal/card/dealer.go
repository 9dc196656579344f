package card

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Factory 卡牌工厂，每次调用产生一张新卡牌
type Factory[C Card] func() C

// Dealer 发牌器
type Dealer[C Card] interface {
	// DealCards 发出 count 张卡牌；失败时不发出任何卡牌
	DealCards(count int) ([]C, error)
}

type entry[C Card] struct {
	factory Factory[C]
	weight  int
}

// UnlimitedDealer 无限发牌器
// 每次抽取相互独立，概率为 权重/总权重，抽取不改变后续概率
type UnlimitedDealer[C Card] struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entries []entry[C]
	total   int
}

// NewUnlimitedDealer 创建无限发牌器，rng 由调用方提供以便复现
func NewUnlimitedDealer[C Card](rng *rand.Rand) *UnlimitedDealer[C] {
	return &UnlimitedDealer[C]{rng: rng}
}

// RegisterCard 注册卡牌工厂及其权重
// 同一工厂可以重复注册，效果是累加抽中概率
func (d *UnlimitedDealer[C]) RegisterCard(factory Factory[C], weight int) error {
	if weight <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, weight)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = append(d.entries, entry[C]{factory: factory, weight: weight})
	d.total += weight
	return nil
}

// TotalWeight 总权重
func (d *UnlimitedDealer[C]) TotalWeight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// DealCards 实现 Dealer
func (d *UnlimitedDealer[C]) DealCards(count int) ([]C, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if count == 0 {
		return nil, nil
	}
	if d.total == 0 {
		return nil, ErrNoCards
	}

	cards := make([]C, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, d.entries[pick(d.rng, d.entries, d.total)].factory())
	}
	return cards, nil
}

// BoundedDealer 有限发牌器
// 每种卡牌有库存，抽中概率与剩余库存成正比，库存耗尽的条目不再参与抽取
type BoundedDealer[C Card] struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entries []entry[C] // weight 即剩余库存
	total   int
}

// NewBoundedDealer 创建有限发牌器
func NewBoundedDealer[C Card](rng *rand.Rand) *BoundedDealer[C] {
	return &BoundedDealer[C]{rng: rng}
}

// RegisterCard 注册卡牌工厂及其库存
func (d *BoundedDealer[C]) RegisterCard(factory Factory[C], stock int) error {
	if stock <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, stock)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries = append(d.entries, entry[C]{factory: factory, weight: stock})
	d.total += stock
	return nil
}

// Remaining 剩余库存总数
func (d *BoundedDealer[C]) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// DealCards 实现 Dealer；库存不足时整体失败，不做部分发牌
func (d *BoundedDealer[C]) DealCards(count int) ([]C, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if count == 0 {
		return nil, nil
	}
	if count > d.total {
		return nil, fmt.Errorf("%w: want %d, remaining %d", ErrDealerExhausted, count, d.total)
	}

	cards := make([]C, 0, count)
	for i := 0; i < count; i++ {
		idx := pick(d.rng, d.entries, d.total)
		cards = append(cards, d.entries[idx].factory())
		d.entries[idx].weight--
		d.total--
	}
	return cards, nil
}

// pick 按权重选择条目下标，total 必须等于所有权重之和且大于 0
func pick[C Card](rng *rand.Rand, entries []entry[C], total int) int {
	r := rng.IntN(total)
	for i, e := range entries {
		if r < e.weight {
			return i
		}
		r -= e.weight
	}
	return len(entries) - 1
}
