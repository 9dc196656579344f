package ws

import "sudooom.tablegame/internal/console"

// 帧类型
const (
	FrameMessage = "message" // 服务端推送消息
	FramePrompt  = "prompt"  // 服务端请求一行输入
	FrameChoose  = "choose"  // 服务端请求选择
	FrameCancel  = "cancel"  // 服务端撤回一个未答复的请求
	FrameAnswer  = "answer"  // 客户端答复
)

// Frame WebSocket 上的 JSON 帧
type Frame struct {
	T       string   `json:"t"`
	ID      uint64   `json:"id,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Text    string   `json:"text,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option 选择帧中的一个选项
type Option struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func toOptions(options []console.Option) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		out[i] = Option{Label: o.Label, Description: o.Description}
	}
	return out
}
