//go:build linux
// +build linux

package server

import (
	"net"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/eventloop"
	"github.com/ikilobyte/netloop/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type acceptCallback func(fd int, addr net.Addr)

//acceptor 监听socket挂在主事件循环上，可读时取出一个新连接交给回调
type acceptor struct {
	socket   *socket
	loop     *eventloop.EventLoop
	channel  *eventloop.Channel
	onAccept acceptCallback
}

func newAcceptor(loop *eventloop.EventLoop, sock *socket) *acceptor {
	a := &acceptor{
		socket:  sock,
		loop:    loop,
		channel: eventloop.NewChannel(loop, sock.fd),
	}
	a.channel.SetReadHandler(a.handleRead)
	return a
}

func (a *acceptor) setAcceptCallback(cb acceptCallback) {
	a.onAccept = cb
}

//listen 开始监听可读，只能在主事件循环里调用
func (a *acceptor) listen() error {
	if err := a.channel.EnableRead(); err != nil {
		return util.NewError(common.ExitListenerMonitor, "listener monitor", err)
	}
	return nil
}

func (a *acceptor) handleRead() {
	fd, addr, err := a.socket.accept()
	if err != nil {
		if err != unix.EAGAIN && err != unix.EINTR && err != unix.ECONNABORTED {
			err := util.NewError(common.ExitAccept, "accept", err)
			util.Logger.WithFields(logrus.Fields{
				"listener": a.socket.fd,
				"exitCode": int(err.Code),
			}).Error(err.Error())
		}
		return
	}

	if a.onAccept == nil {
		_ = unix.Close(fd)
		return
	}
	a.onAccept(fd, addr)
}

//close 从事件循环中移除并关闭监听socket
func (a *acceptor) close() {
	_ = a.channel.Remove()
	_ = a.socket.close()
}
