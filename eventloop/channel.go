//go:build linux
// +build linux

package eventloop

import (
	"golang.org/x/sys/unix"
)

const (
	readEvents  = unix.EPOLLIN | unix.EPOLLPRI | unix.EPOLLRDHUP
	writeEvents = unix.EPOLLOUT
)

//Channel 一个fd关注的事件以及对应的回调，只能在所属的事件循环里使用
type Channel struct {
	fd      int
	loop    *EventLoop
	events  uint32 // 已经注册到epoll的事件
	revents uint32 // 本轮epoll_wait返回的事件

	onRead  func()
	onWrite func()
	onError func()
	onClose func()
	onEvent func()
}

//NewChannel .
func NewChannel(loop *EventLoop, fd int) *Channel {
	return &Channel{fd: fd, loop: loop}
}

//Fd .
func (c *Channel) Fd() int {
	return c.fd
}

//Events .
func (c *Channel) Events() uint32 {
	return c.events
}

//Revents .
func (c *Channel) Revents() uint32 {
	return c.revents
}

//SetRevents 由poller在epoll_wait返回后设置
func (c *Channel) SetRevents(revents uint32) {
	c.revents = revents
}

func (c *Channel) SetReadHandler(fn func())  { c.onRead = fn }
func (c *Channel) SetWriteHandler(fn func()) { c.onWrite = fn }
func (c *Channel) SetErrorHandler(fn func()) { c.onError = fn }
func (c *Channel) SetCloseHandler(fn func()) { c.onClose = fn }
func (c *Channel) SetEventHandler(fn func()) { c.onEvent = fn }

//IsReading 是否监听了可读
func (c *Channel) IsReading() bool {
	return c.events&unix.EPOLLIN != 0
}

//IsWriting 是否监听了可写
func (c *Channel) IsWriting() bool {
	return c.events&unix.EPOLLOUT != 0
}

//EnableRead 监听可读以及对端关闭
func (c *Channel) EnableRead() error {
	c.events |= readEvents
	return c.update()
}

//EnableWrite 监听可写
func (c *Channel) EnableWrite() error {
	c.events |= writeEvents
	return c.update()
}

//DisableRead .
func (c *Channel) DisableRead() error {
	c.events &^= readEvents
	return c.update()
}

//DisableWrite .
func (c *Channel) DisableWrite() error {
	c.events &^= writeEvents
	return c.update()
}

//Remove 取消所有监听并从epoll中删除
func (c *Channel) Remove() error {
	c.events = 0
	return c.loop.removeChannel(c)
}

func (c *Channel) update() error {
	return c.loop.updateChannel(c)
}

//HandleEvent 按 可读 -> (可写 | 错误 | 挂断) -> 任意事件 的顺序派发
// 同时出现可写和挂断时先把数据写出去，挂断由下一轮处理
func (c *Channel) HandleEvent() {
	revents := c.revents

	if revents&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		if c.onRead != nil {
			c.onRead()
		}
	}

	switch {
	case revents&unix.EPOLLOUT != 0:
		if c.onWrite != nil {
			c.onWrite()
		}
	case revents&unix.EPOLLERR != 0:
		if c.onError != nil {
			c.onError()
		}
	case revents&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0:
		if c.onClose != nil {
			c.onClose()
		}
	}

	if revents != 0 && c.onEvent != nil {
		c.onEvent()
	}
}
