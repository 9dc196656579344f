package game

import (
	"errors"
	"fmt"
)

// 对局相关错误定义

var (
	// ErrSessionFull 对局人数已满
	ErrSessionFull = errors.New("session is full")

	// ErrSessionStarted 对局已开始，不再接受加入
	ErrSessionStarted = errors.New("session already started")

	// ErrSessionClosed 对局已关闭
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotFound 对局不存在
	ErrSessionNotFound = errors.New("session not found")

	// ErrCommandExecuted 出牌指令只能执行一次
	ErrCommandExecuted = errors.New("play command already executed")

	// ErrCardNotInHand 玩家手中没有该卡牌
	ErrCardNotInHand = errors.New("card not in hand")

	// ErrSessionAbandoned 连续一整轮回合都异常中止，通常是玩家全部断线
	ErrSessionAbandoned = errors.New("session abandoned")

	// ErrNotRunning 管理器已关闭
	ErrNotRunning = errors.New("manager is not running")

	// ErrShutdown 服务关闭导致的取消原因
	ErrShutdown = errors.New("server shutting down")
)

// GameError 规则层错误类型
type GameError struct {
	Code    string         // 错误代码
	Message string         // 面向玩家的错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配，便于与预定义错误比较
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithCause 返回附带原因的副本，预定义错误本身不被修改
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回附带上下文的副本
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	c.Context[key] = value
	return c
}

func (e *GameError) clone() *GameError {
	c := *e
	c.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return &c
}
