package card

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCard struct {
	Standard
	name string
}

func (c *testCard) Name() string        { return c.name }
func (c *testCard) Description() string { return "测试卡牌 " + c.name }

func named(name string) Factory[*testCard] {
	return func() *testCard { return &testCard{name: name} }
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// TestStandardActionPoint 标准卡牌默认行动点为 1
func TestStandardActionPoint(t *testing.T) {
	assert.Equal(t, 1, (&testCard{}).ActionPoint())
}

// TestCollectionCount 任意增删序列后数量与内容一致
func TestCollectionCount(t *testing.T) {
	c := NewCollection[*testCard](0)
	a, b := &testCard{name: "A"}, &testCard{name: "A"}

	assert.True(t, c.AddCard(a))
	assert.True(t, c.AddCard(b))
	assert.True(t, c.AddCard(a))
	assert.Equal(t, 3, c.Count())

	// 相同名称的不同实例不相等
	assert.True(t, c.RemoveCard(b))
	assert.False(t, c.RemoveCard(b))
	assert.False(t, c.Contains(b))
	assert.True(t, c.Contains(a))
	assert.Equal(t, 2, c.Count())

	// 只移除第一个
	assert.True(t, c.RemoveCard(a))
	assert.Equal(t, 1, c.Count())
	assert.True(t, c.Contains(a))

	c.Clear()
	assert.Equal(t, 0, c.Count())
	assert.False(t, c.Contains(a))
}

// TestCollectionLimit 超出容量时拒绝添加
func TestCollectionLimit(t *testing.T) {
	c := NewCollection[*testCard](2)

	added := c.AddCards(&testCard{name: "1"}, &testCard{name: "2"}, &testCard{name: "3"})
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, c.Count())
	assert.False(t, c.AddCard(&testCard{name: "4"}))
	assert.Equal(t, []string{"1", "2"}, c.Names())
}

// TestCollectionAccess 按下标访问与遍历
func TestCollectionAccess(t *testing.T) {
	c := NewCollection[*testCard](0)
	c.AddCards(&testCard{name: "x"}, &testCard{name: "y"})

	got, ok := c.At(1)
	require.True(t, ok)
	assert.Equal(t, "y", got.Name())

	_, ok = c.At(2)
	assert.False(t, ok)
	_, ok = c.At(-1)
	assert.False(t, ok)

	var names []string
	for i, card := range c.All() {
		names = append(names, card.Name())
		if i == 0 {
			break
		}
	}
	assert.Equal(t, []string{"x"}, names)

	// 副本修改不影响集合
	cards := c.Cards()
	cards[0] = nil
	first, _ := c.At(0)
	assert.NotNil(t, first)
}

// TestUnlimitedDealerFrequency 权重 {A:3, B:25} 时 A 的频率收敛到 3/28
func TestUnlimitedDealerFrequency(t *testing.T) {
	d := NewUnlimitedDealer[*testCard](seeded())
	require.NoError(t, d.RegisterCard(named("A"), 3))
	require.NoError(t, d.RegisterCard(named("B"), 25))
	assert.Equal(t, 28, d.TotalWeight())

	const draws = 200000
	cards, err := d.DealCards(draws)
	require.NoError(t, err)
	require.Len(t, cards, draws)

	hits := 0
	for _, c := range cards {
		if c.Name() == "A" {
			hits++
		}
	}

	p := 3.0 / 28.0
	sigma := math.Sqrt(p * (1 - p) / draws)
	assert.InDelta(t, p, float64(hits)/draws, 5*sigma)

	// 抽取不改变总权重
	assert.Equal(t, 28, d.TotalWeight())
}

// TestUnlimitedDealerAccumulatesWeight 重复注册累加概率
func TestUnlimitedDealerAccumulatesWeight(t *testing.T) {
	d := NewUnlimitedDealer[*testCard](seeded())
	a := named("A")
	require.NoError(t, d.RegisterCard(a, 1))
	require.NoError(t, d.RegisterCard(a, 1))
	require.NoError(t, d.RegisterCard(named("B"), 2))
	assert.Equal(t, 4, d.TotalWeight())

	const draws = 100000
	cards, err := d.DealCards(draws)
	require.NoError(t, err)

	hits := 0
	for _, c := range cards {
		if c.Name() == "A" {
			hits++
		}
	}
	assert.InDelta(t, 0.5, float64(hits)/draws, 0.01)
}

// TestUnlimitedDealerErrors 非法权重与空发牌器
func TestUnlimitedDealerErrors(t *testing.T) {
	d := NewUnlimitedDealer[*testCard](seeded())

	assert.ErrorIs(t, d.RegisterCard(named("A"), 0), ErrInvalidWeight)
	assert.ErrorIs(t, d.RegisterCard(named("A"), -3), ErrInvalidWeight)

	_, err := d.DealCards(1)
	assert.ErrorIs(t, err, ErrNoCards)

	_, err = d.DealCards(-1)
	assert.ErrorIs(t, err, ErrInvalidCount)

	cards, err := d.DealCards(0)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

// TestUnlimitedDealerReproducible 相同种子产生相同序列
func TestUnlimitedDealerReproducible(t *testing.T) {
	deal := func() []string {
		d := NewUnlimitedDealer[*testCard](seeded())
		require.NoError(t, d.RegisterCard(named("A"), 1))
		require.NoError(t, d.RegisterCard(named("B"), 1))
		require.NoError(t, d.RegisterCard(named("C"), 1))
		cards, err := d.DealCards(20)
		require.NoError(t, err)

		names := make([]string, 0, len(cards))
		for _, c := range cards {
			names = append(names, c.Name())
		}
		return names
	}
	assert.Equal(t, deal(), deal())
}

// TestBoundedDealer 有限发牌器按库存发牌，不足时整体失败
func TestBoundedDealer(t *testing.T) {
	d := NewBoundedDealer[*testCard](seeded())
	require.NoError(t, d.RegisterCard(named("A"), 2))
	require.NoError(t, d.RegisterCard(named("B"), 3))
	assert.Equal(t, 5, d.Remaining())

	cards, err := d.DealCards(4)
	require.NoError(t, err)
	require.Len(t, cards, 4)
	assert.Equal(t, 1, d.Remaining())

	// 库存不足时不做部分发牌
	_, err = d.DealCards(2)
	assert.ErrorIs(t, err, ErrDealerExhausted)
	assert.Equal(t, 1, d.Remaining())

	last, err := d.DealCards(1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, 0, d.Remaining())

	counts := map[string]int{}
	for _, c := range append(cards, last...) {
		counts[c.Name()]++
	}
	assert.Equal(t, map[string]int{"A": 2, "B": 3}, counts)

	_, err = d.DealCards(1)
	assert.ErrorIs(t, err, ErrDealerExhausted)
}

// TestBoundedDealerInvalidStock 库存必须为正
func TestBoundedDealerInvalidStock(t *testing.T) {
	d := NewBoundedDealer[*testCard](seeded())
	assert.ErrorIs(t, d.RegisterCard(named("A"), 0), ErrInvalidWeight)
	_, err := d.DealCards(-1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}
