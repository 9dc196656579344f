package console

// Kind 消息类型
type Kind int

const (
	// KindInfo 普通信息，只发给当前玩家
	KindInfo Kind = iota
	// KindSystem 系统消息
	KindSystem
	// KindAnnouncement 游戏公告，广播给所有玩家
	KindAnnouncement
	// KindWarning 警告消息
	KindWarning
	// KindPrompt 等待玩家输入时的提示
	KindPrompt
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSystem:
		return "system"
	case KindAnnouncement:
		return "announcement"
	case KindWarning:
		return "warning"
	case KindPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Message 推送给玩家的一条消息
type Message struct {
	Kind Kind
	Text string
}

// Option 供玩家选择的一个选项
type Option struct {
	Label       string // 显示标签，同一次选择内唯一
	Description string // 说明文字（可选）
}
