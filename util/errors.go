package util

import (
	"errors"
	"fmt"

	"github.com/ikilobyte/netloop/common"
)

var (
	ErrInvalidDelay    = errors.New("timer delay out of wheel range")
	ErrNotInLoop       = errors.New("called outside the owning event loop")
	ErrPoolInitialized = errors.New("loop thread pool already initialized")
	ErrServerStarted   = errors.New("server already started")
	ErrLoopClosed      = errors.New("event loop closed")
)

//Error 资源创建失败，携带进程退出码
type Error struct {
	Code common.ExitCode
	Op   string
	Err  error
}

//NewError .
func NewError(code common.ExitCode, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

//ExitCode 取出错误对应的退出码，不是 *Error 时返回 ExitUsage
func ExitCode(err error) common.ExitCode {
	if err == nil {
		return common.ExitOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return common.ExitUsage
}
