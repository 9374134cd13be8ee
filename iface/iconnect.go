package iface

import (
	"net"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/eventloop"
)

//IConnect 回调中拿到的连接
// Send、SendString、Shutdown、Close 可以在任意goroutine调用，会被投递到连接所属的事件循环
type IConnect interface {
	ID() uint64
	Fd() int
	RemoteAddr() net.Addr
	State() common.ConnectState
	Connected() bool
	Send(data []byte)
	SendString(s string)
	Shutdown()
	Close()
	Context() interface{}
	SetContext(ctx interface{})
	StartInactiveRelease(ticks int) error
	StopInactiveRelease()
	Upgrade(ctx interface{}, handlers Handlers) error
	GetLoop() *eventloop.EventLoop
}
