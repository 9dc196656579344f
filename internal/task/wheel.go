package task

import (
	"sync"
	"time"
)

// DefaultSlotCount 默认槽位数量
const DefaultSlotCount = 60

// slot 时间轮槽位
type slot struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func newSlot() *slot {
	return &slot{tasks: make(map[string]*Task)}
}

func (s *slot) add(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *slot) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; ok {
		delete(s.tasks, id)
		return true
	}
	return false
}

// expire 取出到期任务，未到期的任务圈数减一后留在槽内
func (s *slot) expire() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Task
	for id, t := range s.tasks {
		if t.rounds > 0 {
			t.rounds--
			continue
		}
		due = append(due, t)
		delete(s.tasks, id)
	}
	return due
}

func (s *slot) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// TimeWheel 单层时间轮
// 每个 tick 推进一格，超过一圈的延迟通过圈数计数实现
type TimeWheel struct {
	slots   []*slot
	tick    time.Duration
	current int
	mu      sync.RWMutex

	index map[string]int // taskID -> 槽位
}

// NewTimeWheel 创建时间轮
func NewTimeWheel(slotCount int, tick time.Duration) *TimeWheel {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	if tick <= 0 {
		tick = time.Second
	}

	tw := &TimeWheel{
		slots: make([]*slot, slotCount),
		tick:  tick,
		index: make(map[string]int),
	}
	for i := range tw.slots {
		tw.slots[i] = newSlot()
	}
	return tw
}

// Tick 每格时长
func (tw *TimeWheel) Tick() time.Duration {
	return tw.tick
}

// AddTask 添加任务，至少延迟一格
func (tw *TimeWheel) AddTask(t *Task) {
	ticks := int(t.Delay / tw.tick)
	if t.Delay%tw.tick != 0 {
		ticks++
	}
	if ticks < 1 {
		ticks = 1
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[t.ID]; ok {
		tw.slots[old].remove(t.ID)
	}

	n := len(tw.slots)
	t.rounds = (ticks - 1) / n
	target := (tw.current + ticks) % n
	tw.slots[target].add(t)
	tw.index[t.ID] = target
}

// RemoveTask 删除任务
func (tw *TimeWheel) RemoveTask(id string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	target, ok := tw.index[id]
	if !ok {
		return false
	}
	delete(tw.index, id)
	return tw.slots[target].remove(id)
}

// Advance 推进一格，返回到期任务
func (tw *TimeWheel) Advance() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.current = (tw.current + 1) % len(tw.slots)
	due := tw.slots[tw.current].expire()
	for _, t := range due {
		delete(tw.index, t.ID)
	}
	return due
}

// Current 当前槽位
func (tw *TimeWheel) Current() int {
	tw.mu.RLock()
	defer tw.mu.RUnlock()
	return tw.current
}

// Count 等待中的任务总数
func (tw *TimeWheel) Count() int {
	total := 0
	for _, s := range tw.slots {
		total += s.count()
	}
	return total
}
