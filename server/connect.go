//go:build linux
// +build linux

package server

import (
	"io"
	"net"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/eventloop"
	"github.com/ikilobyte/netloop/iface"
	"github.com/ikilobyte/netloop/util"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

//Connect 每个连接的具体定义，除了状态以外的字段只在所属的事件循环中读写
type Connect struct {
	id       uint64   // 自定义生成的ID
	fd       int      // 系统分配的fd
	addr     net.Addr // 对端地址
	state    *atomic.Int32
	loop     *eventloop.EventLoop
	channel  *eventloop.Channel
	in       *util.Buffer
	out      *util.Buffer
	ctx      interface{}
	handlers iface.Handlers
	onRemove func(conn *Connect)
	inactive bool // 是否开启了超时释放
}

//newConnect 构造一个连接，此时还未开始监听事件
func newConnect(loop *eventloop.EventLoop, id uint64, fd int, addr net.Addr) *Connect {
	c := &Connect{
		id:    id,
		fd:    fd,
		addr:  addr,
		state: atomic.NewInt32(int32(common.Connecting)),
		loop:  loop,
		in:    util.NewBuffer(0),
		out:   util.NewBuffer(0),
	}

	c.channel = eventloop.NewChannel(loop, fd)
	c.channel.SetReadHandler(c.handleRead)
	c.channel.SetWriteHandler(c.handleWrite)
	c.channel.SetCloseHandler(c.handleClose)
	c.channel.SetErrorHandler(c.handleError)
	c.channel.SetEventHandler(c.handleEvent)
	return c
}

func (c *Connect) SetConnectCallback(cb iface.ConnectCallback) { c.handlers.OnConnect = cb }
func (c *Connect) SetMessageCallback(cb iface.MessageCallback) { c.handlers.OnMessage = cb }
func (c *Connect) SetCloseCallback(cb iface.CloseCallback)     { c.handlers.OnClose = cb }
func (c *Connect) SetEventCallback(cb iface.EventCallback)     { c.handlers.OnEvent = cb }

//setRemoveCallback 释放完成后通知管理者
func (c *Connect) setRemoveCallback(cb func(conn *Connect)) {
	c.onRemove = cb
}

//ID 获取连接ID
func (c *Connect) ID() uint64 {
	return c.id
}

//Fd 获取系统分配的fd
func (c *Connect) Fd() int {
	return c.fd
}

//RemoteAddr .
func (c *Connect) RemoteAddr() net.Addr {
	return c.addr
}

//State 任意goroutine都可以读
func (c *Connect) State() common.ConnectState {
	return common.ConnectState(c.state.Load())
}

func (c *Connect) setState(state common.ConnectState) {
	c.state.Store(int32(state))
}

//Connected .
func (c *Connect) Connected() bool {
	return c.State() == common.Connected
}

//Context 上层协议挂在连接上的数据
func (c *Connect) Context() interface{} {
	return c.ctx
}

//SetContext .
func (c *Connect) SetContext(ctx interface{}) {
	c.ctx = ctx
}

//GetLoop 连接所属的事件循环
func (c *Connect) GetLoop() *eventloop.EventLoop {
	return c.loop
}

//Establish 开始监听可读并执行OnConnect
func (c *Connect) Establish() {
	c.loop.RunInLoop(c.establishInLoop)
}

func (c *Connect) establishInLoop() {
	if c.State() != common.Connecting {
		return
	}
	c.setState(common.Connected)

	if err := c.channel.EnableRead(); err != nil {
		util.Logger.WithField("connID", c.id).Errorf("enable read error: %v", err)
		c.release()
		return
	}

	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect(c)
	}
}

//Send 复制一份数据放到发送缓冲，等可写时发出
func (c *Connect) Send(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	c.loop.RunInLoop(func() {
		c.sendInLoop(buf)
	})
}

//SendString .
func (c *Connect) SendString(s string) {
	c.Send([]byte(s))
}

func (c *Connect) sendInLoop(data []byte) {
	if c.State() == common.Disconnected {
		util.Logger.WithField("connID", c.id).Debugf("send %d bytes on released connect", len(data))
		return
	}

	_, _ = c.out.Write(data)
	if c.channel.IsWriting() {
		return
	}
	if err := c.channel.EnableWrite(); err != nil {
		util.Logger.WithField("connID", c.id).Errorf("enable write error: %v", err)
		c.release()
	}
}

//Shutdown 发送缓冲中的数据写完后断开
func (c *Connect) Shutdown() {
	c.loop.RunInLoop(c.shutdownInLoop)
}

func (c *Connect) shutdownInLoop() {
	if c.State() != common.Connected {
		return
	}
	c.setState(common.Disconnecting)

	c.flushInbound()

	if c.out.Len() == 0 {
		c.release()
		return
	}
	if !c.channel.IsWriting() {
		if err := c.channel.EnableWrite(); err != nil {
			c.release()
		}
	}
}

//Close 不管发送缓冲是否为空，直接释放
func (c *Connect) Close() {
	c.release()
}

//StartInactiveRelease 超过ticks个tick没有任何事件就释放连接，已开启时重新计时
func (c *Connect) StartInactiveRelease(ticks int) error {
	if err := c.loop.AddTimer(c.id, ticks, c.release); err != nil {
		return err
	}
	c.loop.RunInLoop(func() {
		c.inactive = true
	})
	return nil
}

//StopInactiveRelease .
func (c *Connect) StopInactiveRelease() {
	c.loop.RunInLoop(func() {
		c.inactive = false
		c.loop.CancelTimer(c.id)
	})
}

//Upgrade 切换协议，替换上下文以及全部回调，只能在所属的事件循环中调用
func (c *Connect) Upgrade(ctx interface{}, handlers iface.Handlers) error {
	if !c.loop.InLoop() {
		return util.ErrNotInLoop
	}
	c.ctx = ctx
	c.handlers = handlers
	return nil
}

func (c *Connect) handleRead() {
	buf := c.loop.Scratch()
	n, err := recv(c.fd, buf)
	if err != nil {
		if err != io.EOF {
			util.Logger.WithField("connID", c.id).Debugf("read error: %v", err)
		}
		c.release()
		return
	}
	if n == 0 {
		return
	}

	_, _ = c.in.Write(buf[:n])
	c.flushInbound()
}

func (c *Connect) handleWrite() {
	n, err := send(c.fd, c.out.Peek())
	if err != nil {
		util.Logger.WithField("connID", c.id).Debugf("write error: %v", err)
		c.flushInbound()
		c.release()
		return
	}
	c.out.Discard(n)

	if c.out.Len() > 0 {
		return
	}

	_ = c.channel.DisableWrite()
	if c.State() == common.Disconnecting {
		c.release()
	}
}

//handleClose 对端挂断，把剩下的数据交给上层后释放
func (c *Connect) handleClose() {
	c.flushInbound()
	c.release()
}

func (c *Connect) handleError() {
	c.flushInbound()
	c.release()
}

func (c *Connect) handleEvent() {
	if c.inactive {
		c.loop.RefreshTimer(c.id)
	}
	if c.handlers.OnEvent != nil {
		c.handlers.OnEvent(c)
	}
}

func (c *Connect) flushInbound() {
	if c.in.Len() > 0 && c.handlers.OnMessage != nil {
		c.handlers.OnMessage(c, c.in)
	}
}

//release 投递到任务队列，保证本轮事件派发完之后才关闭fd
func (c *Connect) release() {
	c.loop.Post(c.releaseInLoop)
}

func (c *Connect) releaseInLoop() {
	if c.State() == common.Disconnected {
		return
	}
	c.setState(common.Disconnected)

	if c.loop.HasTimer(c.id) {
		c.loop.CancelTimer(c.id)
	}

	if err := c.channel.Remove(); err != nil {
		util.Logger.WithField("connID", c.id).Debugf("remove channel: %v", err)
	}
	_ = unix.Close(c.fd)

	if c.handlers.OnClose != nil {
		c.handlers.OnClose(c)
	}
	if c.onRemove != nil {
		c.onRemove(c)
	}
}
