package console

import "errors"

var (
	// ErrNoOptions 选择列表为空
	ErrNoOptions = errors.New("no options to choose from")

	// ErrUnknownOption 客户端返回了不在列表中的选项
	ErrUnknownOption = errors.New("unknown option")

	// ErrDuplicateLabel 选项标签重复
	ErrDuplicateLabel = errors.New("duplicate option label")

	// ErrClosed 控制台对应的连接已关闭
	ErrClosed = errors.New("console closed")

	// errResponseTimeout 内部计时器的取消原因，只用于区分超时与外部取消
	errResponseTimeout = errors.New("response timeout")
)
