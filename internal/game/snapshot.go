package game

import "time"

// PlayerStatus 玩家公开状态
type PlayerStatus struct {
	CodeName string `json:"codeName"`
	Status   int    `json:"status"`
	Active   bool   `json:"active"`
	Cards    int    `json:"cards"`
}

// Snapshot 对局只读快照
// 每回合结束后由回合协程生成，其他协程只读取
type Snapshot struct {
	SessionID string         `json:"sessionId"`
	Game      string         `json:"game"`
	State     string         `json:"state"`
	Turn      int            `json:"turn"`
	Current   string         `json:"current,omitempty"`
	Players   []PlayerStatus `json:"players"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	// 手牌属于私密信息，不随快照对外序列化
	Hands map[string][]string `json:"-"`
}

// Information 对外展示的对局信息
type Information struct {
	Players map[string]int `json:"players"`
	Current string         `json:"current,omitempty"`
	Hand    []string       `json:"hand"`
}

// EventType 对局事件类型
type EventType string

const (
	EventJoined       EventType = "joined"
	EventRunning      EventType = "running"
	EventTurn         EventType = "turn"
	EventAnnouncement EventType = "announcement"
	EventFinished     EventType = "finished"
)

// Event 对局事件
type Event struct {
	SessionID string    `json:"sessionId"`
	Type      EventType `json:"type"`
	Text      string    `json:"text,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
	At        time.Time `json:"at"`
}

// Observer 对局事件观察者
// 在对局协程中同步调用，实现不应长时间阻塞
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc 函数形式的观察者
type ObserverFunc func(e Event)

// OnEvent 实现 Observer
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Snapshot 最近一次快照
func (s *Session[P, C]) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// Information 对局信息；viewer 为空时展示当前出牌玩家的手牌
func (s *Session[P, C]) Information(viewer string) Information {
	snap := s.Snapshot()

	info := Information{
		Players: make(map[string]int, len(snap.Players)),
		Current: snap.Current,
	}
	for _, p := range snap.Players {
		info.Players[p.CodeName] = p.Status
	}

	if viewer == "" {
		viewer = snap.Current
	}
	info.Hand = append([]string{}, snap.Hands[viewer]...)
	return info
}

// refresh 重新生成快照，只能在持有 mu 或名单已固定后调用
func (s *Session[P, C]) refresh() {
	snap := &Snapshot{
		SessionID: s.id,
		Game:      s.rules.Name(),
		State:     s.State().String(),
		Turn:      s.Turn(),
		Players:   make([]PlayerStatus, 0, len(s.players)),
		CreatedAt: s.createdAt,
		UpdatedAt: time.Now(),
		Hands:     make(map[string][]string, len(s.players)),
	}

	if s.started.Load() && len(s.players) > 0 {
		snap.Current = s.players[s.Turn()%len(s.players)].CodeName()
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}

	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerStatus{
			CodeName: p.CodeName(),
			Status:   p.Status(),
			Active:   p.Active(),
			Cards:    p.Cards().Count(),
		})
		snap.Hands[p.CodeName()] = p.Cards().Names()
	}

	s.snapshot.Store(snap)
}

func (s *Session[P, C]) notify(t EventType, text string) {
	s.emit(s.event(t, text))
}

// event 以当前快照构造事件
func (s *Session[P, C]) event(t EventType, text string) Event {
	return Event{
		SessionID: s.id,
		Type:      t,
		Text:      text,
		Snapshot:  s.Snapshot(),
		At:        time.Now(),
	}
}

// emit 依次通知观察者，调用方不得持有 mu
func (s *Session[P, C]) emit(e Event) {
	for _, o := range s.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Observer panic", "event", e.Type, "panic", r)
				}
			}()
			o.OnEvent(e)
		}()
	}
}
