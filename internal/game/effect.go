package game

// Effect 附着在玩家身上的效果
type Effect interface {
	Name() string
}

// EffectSlot 单一占用的效果槽
// 新效果直接替换旧效果，不排队。仅由当前回合逻辑读写，本身不加锁。
type EffectSlot[E Effect] struct {
	effect   E
	occupied bool
	empty    string
}

// NewEffectSlot 创建效果槽，empty 为空槽的显示文本
func NewEffectSlot[E Effect](empty string) *EffectSlot[E] {
	return &EffectSlot[E]{empty: empty}
}

// Effect 获取当前效果
func (s *EffectSlot[E]) Effect() (E, bool) {
	return s.effect, s.occupied
}

// Set 放入效果，已有效果会被替换
func (s *EffectSlot[E]) Set(e E) {
	s.effect = e
	s.occupied = true
}

// Clear 清除效果
func (s *EffectSlot[E]) Clear() {
	var zero E
	s.effect = zero
	s.occupied = false
}

// Take 取出并清除效果
func (s *EffectSlot[E]) Take() (E, bool) {
	e, ok := s.effect, s.occupied
	s.Clear()
	return e, ok
}

// Empty 是否为空
func (s *EffectSlot[E]) Empty() bool {
	return !s.occupied
}

func (s *EffectSlot[E]) String() string {
	if !s.occupied {
		return s.empty
	}
	return s.effect.Name()
}
